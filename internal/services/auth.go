package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/securecookie"

	"mealhq/internal/identity"
	"mealhq/internal/models"
	"mealhq/internal/repository"
)

type AuthService struct {
	provider     identity.Provider
	secureCookie *securecookie.SecureCookie
	userRepo     repository.UserRepository
}

type SessionData struct {
	UserID string `json:"user_id"`
}

// SignUpResult reports the two halves of sign-up independently: the credential
// at the provider and the mirrored profile row. A profile failure never rolls
// back the credential.
type SignUpResult struct {
	CredentialCreated bool
	ProfileCreated    bool
	User              models.User
}

func NewAuthService(provider identity.Provider, sessionSecret string, userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		provider:     provider,
		secureCookie: securecookie.New([]byte(sessionSecret), nil),
		userRepo:     userRepo,
	}
}

// SignIn delegates to the auth provider and mirrors the identity onto the
// local profile row. An unverified email triggers exactly one verification
// resend before the sentinel is returned.
func (service *AuthService) SignIn(ctx context.Context, email string, password string) (models.User, error) {
	ident, err := service.provider.SignIn(ctx, email, password)
	if errors.Is(err, identity.ErrEmailNotVerified) {
		if resendErr := service.provider.ResendVerification(ctx, email); resendErr != nil {
			slog.Warn("resending verification email", "error", resendErr)
		}
		return models.User{}, err
	}
	if err != nil {
		return models.User{}, err
	}

	return service.provisionUser(ctx, ident, "")
}

func (service *AuthService) SignUp(ctx context.Context, email string, password string, name string, phone string) (SignUpResult, error) {
	subject, err := service.provider.SignUp(ctx, email, password, name, phone)
	if err != nil {
		return SignUpResult{}, err
	}

	result := SignUpResult{CredentialCreated: true}

	user, err := service.provisionUser(ctx, identity.Identity{
		Subject: subject,
		Email:   email,
		Name:    name,
	}, phone)
	if err != nil {
		slog.Error("creating profile row after signup", "email", email, "error", err)
		return result, fmt.Errorf("creating profile: %w", err)
	}

	result.ProfileCreated = true
	result.User = user
	return result, nil
}

func (service *AuthService) SignOut(ctx context.Context, w http.ResponseWriter, user models.User) {
	service.ClearSession(w)
	if err := service.provider.SignOut(ctx, user.AuthSubject); err != nil {
		slog.Warn("revoking remote session", "error", err)
	}
}

func (service *AuthService) provisionUser(ctx context.Context, ident identity.Identity, phone string) (models.User, error) {
	existing, err := service.userRepo.FindByAuthSubject(ctx, ident.Subject)
	if err == nil {
		if phone == "" {
			phone = existing.Phone
		}
		if err := service.userRepo.UpdateProfile(ctx, existing.ID, ident.Name, ident.Email, phone); err != nil {
			slog.Warn("updating profile on sign-in", "error", err)
		}
		existing.Name = ident.Name
		existing.Email = ident.Email
		existing.Phone = phone
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("looking up user: %w", err)
	}

	userCount, err := service.userRepo.Count(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("counting users: %w", err)
	}

	// First member bootstraps as admin; from then on the role only moves via
	// the transfer operation.
	role := models.RoleMember
	if userCount == 0 {
		role = models.RoleAdmin
	}

	created, err := service.userRepo.Create(ctx, models.User{
		AuthSubject: ident.Subject,
		Email:       ident.Email,
		Name:        ident.Name,
		Phone:       phone,
		Role:        role,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("creating user: %w", err)
	}

	slog.Info("provisioned new member", "id", created.ID, "name", created.Name, "role", created.Role)
	return created, nil
}

func (service *AuthService) SetSession(w http.ResponseWriter, userID string) error {
	data, err := json.Marshal(SessionData{UserID: userID})
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	value, err := service.secureCookie.Encode("session", string(data))
	if err != nil {
		return fmt.Errorf("encoding session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 30,
	})
	return nil
}

func (service *AuthService) GetSession(r *http.Request) (SessionData, error) {
	cookie, err := r.Cookie("session")
	if err != nil {
		return SessionData{}, fmt.Errorf("no session cookie: %w", err)
	}

	var decoded string
	if err := service.secureCookie.Decode("session", cookie.Value, &decoded); err != nil {
		return SessionData{}, fmt.Errorf("decoding session cookie: %w", err)
	}

	var session SessionData
	if err := json.Unmarshal([]byte(decoded), &session); err != nil {
		return SessionData{}, fmt.Errorf("unmarshaling session: %w", err)
	}
	return session, nil
}

func (service *AuthService) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// GetCurrentUser reads the session cookie and reloads the profile row, so role
// changes (an admin transfer in particular) take effect on the next request.
func (service *AuthService) GetCurrentUser(r *http.Request) (models.User, error) {
	session, err := service.GetSession(r)
	if err != nil {
		return models.User{}, err
	}

	user, err := service.userRepo.FindByID(r.Context(), session.UserID)
	if err != nil {
		return models.User{}, fmt.Errorf("finding user: %w", err)
	}
	return user, nil
}
