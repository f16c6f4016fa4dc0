package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mealhq/internal/models"
)

type ExtraFilter struct {
	UserID   string
	Category models.ExtraCategory
	DateFrom string
	DateTo   string
}

type ExtraRepository interface {
	FindAll(ctx context.Context, filter ExtraFilter) ([]models.Extra, error)
	Create(ctx context.Context, extra models.Extra) (models.Extra, error)
}

type SQLiteExtraRepository struct {
	database *sql.DB
}

func NewExtraRepository(database *sql.DB) *SQLiteExtraRepository {
	return &SQLiteExtraRepository{database: database}
}

func (repository *SQLiteExtraRepository) FindAll(ctx context.Context, filter ExtraFilter) ([]models.Extra, error) {
	query := `SELECT id, user_id, category, description, amount, date, created_at
	FROM extras WHERE 1=1`

	var args []any
	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.DateFrom != "" {
		query += " AND date >= ?"
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		query += " AND date <= ?"
		args = append(args, filter.DateTo)
	}

	query += " ORDER BY date DESC, created_at DESC"

	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding extras: %w", err)
	}
	defer rows.Close()

	var extras []models.Extra
	for rows.Next() {
		var extra models.Extra
		if err := rows.Scan(
			&extra.ID, &extra.UserID, &extra.Category, &extra.Description,
			&extra.Amount, &extra.Date, &extra.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning extra: %w", err)
		}
		extras = append(extras, extra)
	}
	return extras, rows.Err()
}

func (repository *SQLiteExtraRepository) Create(ctx context.Context, extra models.Extra) (models.Extra, error) {
	if extra.ID == "" {
		extra.ID = uuid.New().String()
	}
	extra.CreatedAt = time.Now()

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO extras (id, user_id, category, description, amount, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		extra.ID, extra.UserID, extra.Category, extra.Description,
		extra.Amount, extra.Date, extra.CreatedAt,
	)
	if err != nil {
		return models.Extra{}, fmt.Errorf("creating extra: %w", err)
	}
	return extra, nil
}
