package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mealhq/internal/models"
)

type ContributionRepository interface {
	FindAll(ctx context.Context) ([]models.Contribution, error)
	FindByUser(ctx context.Context, userID string) ([]models.Contribution, error)
	Create(ctx context.Context, contribution models.Contribution) (models.Contribution, error)
}

type SQLiteContributionRepository struct {
	database *sql.DB
}

func NewContributionRepository(database *sql.DB) *SQLiteContributionRepository {
	return &SQLiteContributionRepository{database: database}
}

func (repository *SQLiteContributionRepository) FindAll(ctx context.Context) ([]models.Contribution, error) {
	return repository.query(ctx,
		`SELECT id, user_id, amount, description, date, created_at
		FROM contributions ORDER BY date DESC, created_at DESC`)
}

func (repository *SQLiteContributionRepository) FindByUser(ctx context.Context, userID string) ([]models.Contribution, error) {
	return repository.query(ctx,
		`SELECT id, user_id, amount, description, date, created_at
		FROM contributions WHERE user_id = ? ORDER BY date DESC, created_at DESC`, userID)
}

func (repository *SQLiteContributionRepository) query(ctx context.Context, query string, args ...any) ([]models.Contribution, error) {
	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding contributions: %w", err)
	}
	defer rows.Close()

	var contributions []models.Contribution
	for rows.Next() {
		var contribution models.Contribution
		if err := rows.Scan(
			&contribution.ID, &contribution.UserID, &contribution.Amount,
			&contribution.Description, &contribution.Date, &contribution.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning contribution: %w", err)
		}
		contributions = append(contributions, contribution)
	}
	return contributions, rows.Err()
}

func (repository *SQLiteContributionRepository) Create(ctx context.Context, contribution models.Contribution) (models.Contribution, error) {
	if contribution.ID == "" {
		contribution.ID = uuid.New().String()
	}
	contribution.CreatedAt = time.Now()

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO contributions (id, user_id, amount, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		contribution.ID, contribution.UserID, contribution.Amount,
		contribution.Description, contribution.Date, contribution.CreatedAt,
	)
	if err != nil {
		return models.Contribution{}, fmt.Errorf("creating contribution: %w", err)
	}
	return contribution, nil
}
