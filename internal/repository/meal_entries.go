package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mealhq/internal/models"
)

type MealEntryFilter struct {
	UserID   string
	DateFrom string
	DateTo   string
}

type MealEntryRepository interface {
	FindByUserAndDate(ctx context.Context, userID string, date string) (models.MealEntry, error)
	FindAll(ctx context.Context, filter MealEntryFilter) ([]models.MealEntry, error)
	Upsert(ctx context.Context, entry models.MealEntry) error
	UserTotals(ctx context.Context, userID string) (lunch int, dinner int, err error)
	GrandTotal(ctx context.Context) (int, error)
}

type SQLiteMealEntryRepository struct {
	database *sql.DB
}

func NewMealEntryRepository(database *sql.DB) *SQLiteMealEntryRepository {
	return &SQLiteMealEntryRepository{database: database}
}

func (repository *SQLiteMealEntryRepository) FindByUserAndDate(ctx context.Context, userID string, date string) (models.MealEntry, error) {
	var entry models.MealEntry
	err := repository.database.QueryRowContext(ctx,
		`SELECT user_id, date, lunch, dinner, created_at, updated_at
		FROM meal_entries WHERE user_id = ? AND date = ?`, userID, date,
	).Scan(&entry.UserID, &entry.Date, &entry.Lunch, &entry.Dinner, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return models.MealEntry{}, fmt.Errorf("finding meal entry: %w", err)
	}
	return entry, nil
}

func (repository *SQLiteMealEntryRepository) FindAll(ctx context.Context, filter MealEntryFilter) ([]models.MealEntry, error) {
	query := `SELECT user_id, date, lunch, dinner, created_at, updated_at
	FROM meal_entries WHERE 1=1`

	var args []any
	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.DateFrom != "" {
		query += " AND date >= ?"
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		query += " AND date <= ?"
		args = append(args, filter.DateTo)
	}

	query += " ORDER BY date ASC"

	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding meal entries: %w", err)
	}
	defer rows.Close()

	var entries []models.MealEntry
	for rows.Next() {
		var entry models.MealEntry
		if err := rows.Scan(
			&entry.UserID, &entry.Date, &entry.Lunch, &entry.Dinner,
			&entry.CreatedAt, &entry.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning meal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (repository *SQLiteMealEntryRepository) Upsert(ctx context.Context, entry models.MealEntry) error {
	now := time.Now()
	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO meal_entries (user_id, date, lunch, dinner, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, date) DO UPDATE SET
			lunch = excluded.lunch,
			dinner = excluded.dinner,
			updated_at = excluded.updated_at`,
		entry.UserID, entry.Date, entry.Lunch, entry.Dinner, now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting meal entry: %w", err)
	}
	return nil
}

func (repository *SQLiteMealEntryRepository) UserTotals(ctx context.Context, userID string) (int, int, error) {
	var lunch, dinner int
	err := repository.database.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(lunch), 0), COALESCE(SUM(dinner), 0) FROM meal_entries WHERE user_id = ?",
		userID,
	).Scan(&lunch, &dinner)
	if err != nil {
		return 0, 0, fmt.Errorf("totalling meals for user: %w", err)
	}
	return lunch, dinner, nil
}

func (repository *SQLiteMealEntryRepository) GrandTotal(ctx context.Context) (int, error) {
	var total int
	err := repository.database.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(lunch + dinner), 0) FROM meal_entries",
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("totalling meals: %w", err)
	}
	return total, nil
}
