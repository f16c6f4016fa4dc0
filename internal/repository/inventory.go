package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mealhq/internal/models"
)

type InventoryRepository interface {
	FindByID(ctx context.Context, id string) (models.InventoryItem, error)
	FindAll(ctx context.Context) ([]models.InventoryItem, error)
	FindByStatus(ctx context.Context, status models.InventoryStatus) ([]models.InventoryItem, error)
	Create(ctx context.Context, item models.InventoryItem) (models.InventoryItem, error)
	Update(ctx context.Context, item models.InventoryItem) error
}

type SQLiteInventoryRepository struct {
	database *sql.DB
}

func NewInventoryRepository(database *sql.DB) *SQLiteInventoryRepository {
	return &SQLiteInventoryRepository{database: database}
}

func (repository *SQLiteInventoryRepository) FindByID(ctx context.Context, id string) (models.InventoryItem, error) {
	var item models.InventoryItem
	err := repository.database.QueryRowContext(ctx,
		`SELECT id, item, quantity, status, price, created_at, updated_at
		FROM inventory WHERE id = ?`, id,
	).Scan(&item.ID, &item.Item, &item.Quantity, &item.Status, &item.Price, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return models.InventoryItem{}, fmt.Errorf("finding inventory item: %w", err)
	}
	return item, nil
}

func (repository *SQLiteInventoryRepository) FindAll(ctx context.Context) ([]models.InventoryItem, error) {
	return repository.query(ctx,
		`SELECT id, item, quantity, status, price, created_at, updated_at
		FROM inventory ORDER BY item`)
}

func (repository *SQLiteInventoryRepository) FindByStatus(ctx context.Context, status models.InventoryStatus) ([]models.InventoryItem, error) {
	return repository.query(ctx,
		`SELECT id, item, quantity, status, price, created_at, updated_at
		FROM inventory WHERE status = ? ORDER BY item`, status)
}

func (repository *SQLiteInventoryRepository) query(ctx context.Context, query string, args ...any) ([]models.InventoryItem, error) {
	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding inventory: %w", err)
	}
	defer rows.Close()

	var items []models.InventoryItem
	for rows.Next() {
		var item models.InventoryItem
		if err := rows.Scan(
			&item.ID, &item.Item, &item.Quantity, &item.Status,
			&item.Price, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning inventory item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (repository *SQLiteInventoryRepository) Create(ctx context.Context, item models.InventoryItem) (models.InventoryItem, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO inventory (id, item, quantity, status, price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Item, item.Quantity, item.Status, item.Price, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return models.InventoryItem{}, fmt.Errorf("creating inventory item: %w", err)
	}
	return item, nil
}

func (repository *SQLiteInventoryRepository) Update(ctx context.Context, item models.InventoryItem) error {
	_, err := repository.database.ExecContext(ctx,
		"UPDATE inventory SET item = ?, quantity = ?, status = ?, price = ?, updated_at = ? WHERE id = ?",
		item.Item, item.Quantity, item.Status, item.Price, time.Now(), item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating inventory item: %w", err)
	}
	return nil
}
