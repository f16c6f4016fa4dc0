package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mealhq/internal/models"
	"mealhq/internal/repository"
)

var (
	ErrNotAdmin     = errors.New("caller is not the current admin")
	ErrSelfTransfer = errors.New("cannot transfer admin role to yourself")
	ErrUnknownUser  = errors.New("no such member")
)

const defaultNotifyMessage = "Please update today's meal count."

type AdminService struct {
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
}

func NewAdminService(userRepo repository.UserRepository, notificationRepo repository.NotificationRepository) *AdminService {
	return &AdminService{userRepo: userRepo, notificationRepo: notificationRepo}
}

// TransferAdmin moves the single admin role from the caller to another member.
// The caller's elevated access ends the moment this returns.
func (service *AdminService) TransferAdmin(ctx context.Context, fromID string, toID string) error {
	if fromID == toID {
		return ErrSelfTransfer
	}

	from, err := service.userRepo.FindByID(ctx, fromID)
	if err != nil {
		return fmt.Errorf("finding current admin: %w", err)
	}
	if from.Role != models.RoleAdmin {
		return ErrNotAdmin
	}

	if _, err := service.userRepo.FindByID(ctx, toID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUnknownUser
		}
		return fmt.Errorf("finding new admin: %w", err)
	}

	if err := service.userRepo.TransferRole(ctx, fromID, toID); err != nil {
		return fmt.Errorf("transferring role: %w", err)
	}
	return nil
}

// Notify leaves a reminder on the member's profile. An empty message falls
// back to the meal-count nudge the admin view sends.
func (service *AdminService) Notify(ctx context.Context, userID string, message string) (models.Notification, error) {
	if _, err := service.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Notification{}, ErrUnknownUser
		}
		return models.Notification{}, fmt.Errorf("finding member: %w", err)
	}

	if strings.TrimSpace(message) == "" {
		message = defaultNotifyMessage
	}

	return service.notificationRepo.Create(ctx, models.Notification{
		UserID:  userID,
		Message: message,
	})
}
