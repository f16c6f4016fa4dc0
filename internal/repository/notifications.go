package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mealhq/internal/models"
)

type NotificationRepository interface {
	FindUnreadByUser(ctx context.Context, userID string) ([]models.Notification, error)
	Create(ctx context.Context, notification models.Notification) (models.Notification, error)
	MarkRead(ctx context.Context, id string, userID string) error
}

type SQLiteNotificationRepository struct {
	database *sql.DB
}

func NewNotificationRepository(database *sql.DB) *SQLiteNotificationRepository {
	return &SQLiteNotificationRepository{database: database}
}

func (repository *SQLiteNotificationRepository) FindUnreadByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT id, user_id, message, read, created_at
		FROM notifications WHERE user_id = ? AND read = 0 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var notification models.Notification
		if err := rows.Scan(
			&notification.ID, &notification.UserID, &notification.Message,
			&notification.Read, &notification.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

func (repository *SQLiteNotificationRepository) Create(ctx context.Context, notification models.Notification) (models.Notification, error) {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	notification.CreatedAt = time.Now()

	_, err := repository.database.ExecContext(ctx,
		"INSERT INTO notifications (id, user_id, message, read, created_at) VALUES (?, ?, ?, ?, ?)",
		notification.ID, notification.UserID, notification.Message, notification.Read, notification.CreatedAt,
	)
	if err != nil {
		return models.Notification{}, fmt.Errorf("creating notification: %w", err)
	}
	return notification, nil
}

// MarkRead scopes on user_id so a member cannot dismiss another member's
// notification by guessing IDs.
func (repository *SQLiteNotificationRepository) MarkRead(ctx context.Context, id string, userID string) error {
	_, err := repository.database.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?", id, userID,
	)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	return nil
}
