package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mealhq/internal/models"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByAuthSubject(ctx context.Context, subject string) (models.User, error)
	FindAdmin(ctx context.Context) (models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user models.User) (models.User, error)
	UpdateProfile(ctx context.Context, id string, name string, email string, phone string) error
	UpdateMealCounts(ctx context.Context, id string, lunch int, dinner int, hasUpdated bool) error
	UpdateDefaults(ctx context.Context, id string, enabled bool, lunch int, dinner int) error
	ResetDailyCounts(ctx context.Context) error
	TransferRole(ctx context.Context, fromID string, toID string) error
	Count(ctx context.Context) (int, error)
}

type SQLiteUserRepository struct {
	database *sql.DB
}

func NewUserRepository(database *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{database: database}
}

const userColumns = `id, auth_subject, email, name, phone, role,
	lunch_count, dinner_count, has_updated,
	default_meal_enabled, default_lunch_count, default_dinner_count,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.AuthSubject, &user.Email, &user.Name, &user.Phone, &user.Role,
		&user.LunchCount, &user.DinnerCount, &user.HasUpdated,
		&user.DefaultMealEnabled, &user.DefaultLunchCount, &user.DefaultDinnerCount,
		&user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

func (repository *SQLiteUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	user, err := scanUser(repository.database.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id,
	))
	if err != nil {
		return models.User{}, fmt.Errorf("finding user by id: %w", err)
	}
	return user, nil
}

func (repository *SQLiteUserRepository) FindByAuthSubject(ctx context.Context, subject string) (models.User, error) {
	user, err := scanUser(repository.database.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE auth_subject = ?", subject,
	))
	if err != nil {
		return models.User{}, fmt.Errorf("finding user by auth subject: %w", err)
	}
	return user, nil
}

func (repository *SQLiteUserRepository) FindAdmin(ctx context.Context) (models.User, error) {
	user, err := scanUser(repository.database.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE role = ?", models.RoleAdmin,
	))
	if err != nil {
		return models.User{}, fmt.Errorf("finding admin: %w", err)
	}
	return user, nil
}

func (repository *SQLiteUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	rows, err := repository.database.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("finding all users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (repository *SQLiteUserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO users (id, auth_subject, email, name, phone, role,
			lunch_count, dinner_count, has_updated,
			default_meal_enabled, default_lunch_count, default_dinner_count,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.AuthSubject, user.Email, user.Name, user.Phone, user.Role,
		user.LunchCount, user.DinnerCount, user.HasUpdated,
		user.DefaultMealEnabled, user.DefaultLunchCount, user.DefaultDinnerCount,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

func (repository *SQLiteUserRepository) UpdateProfile(ctx context.Context, id string, name string, email string, phone string) error {
	_, err := repository.database.ExecContext(ctx,
		"UPDATE users SET name = ?, email = ?, phone = ?, updated_at = ? WHERE id = ?",
		name, email, phone, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("updating user profile: %w", err)
	}
	return nil
}

func (repository *SQLiteUserRepository) UpdateMealCounts(ctx context.Context, id string, lunch int, dinner int, hasUpdated bool) error {
	_, err := repository.database.ExecContext(ctx,
		"UPDATE users SET lunch_count = ?, dinner_count = ?, has_updated = ?, updated_at = ? WHERE id = ?",
		lunch, dinner, hasUpdated, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("updating meal counts: %w", err)
	}
	return nil
}

func (repository *SQLiteUserRepository) UpdateDefaults(ctx context.Context, id string, enabled bool, lunch int, dinner int) error {
	_, err := repository.database.ExecContext(ctx,
		`UPDATE users SET default_meal_enabled = ?, default_lunch_count = ?,
			default_dinner_count = ?, updated_at = ? WHERE id = ?`,
		enabled, lunch, dinner, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("updating meal defaults: %w", err)
	}
	return nil
}

func (repository *SQLiteUserRepository) ResetDailyCounts(ctx context.Context) error {
	_, err := repository.database.ExecContext(ctx,
		"UPDATE users SET lunch_count = 0, dinner_count = 0, has_updated = 0, updated_at = ?",
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("resetting daily counts: %w", err)
	}
	return nil
}

// TransferRole demotes fromID and promotes toID in one transaction so the
// single-admin invariant holds even if the process dies between the two writes.
func (repository *SQLiteUserRepository) TransferRole(ctx context.Context, fromID string, toID string) error {
	transaction, err := repository.database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transfer transaction: %w", err)
	}

	now := time.Now()
	if _, err := transaction.ExecContext(ctx,
		"UPDATE users SET role = ?, updated_at = ? WHERE id = ?",
		models.RoleMember, now, fromID,
	); err != nil {
		transaction.Rollback()
		return fmt.Errorf("demoting current admin: %w", err)
	}

	result, err := transaction.ExecContext(ctx,
		"UPDATE users SET role = ?, updated_at = ? WHERE id = ?",
		models.RoleAdmin, now, toID,
	)
	if err != nil {
		transaction.Rollback()
		return fmt.Errorf("promoting new admin: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		transaction.Rollback()
		return fmt.Errorf("checking promotion: %w", err)
	}
	if affected == 0 {
		transaction.Rollback()
		return sql.ErrNoRows
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("committing transfer: %w", err)
	}
	return nil
}

func (repository *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := repository.database.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}
