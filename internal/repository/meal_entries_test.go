package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"mealhq/internal/models"
	"mealhq/internal/repository"
	"mealhq/internal/testutil"
)

func TestMealEntryRepository_UpsertInsertsThenUpdates(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := repository.NewMealEntryRepository(db)
	user := seedUser(t, repository.NewUserRepository(db), "alice")
	ctx := context.Background()

	if err := repo.Upsert(ctx, models.MealEntry{UserID: user.ID, Date: "2026-08-30", Lunch: 1, Dinner: 1}); err != nil {
		t.Fatalf("inserting entry: %v", err)
	}
	if err := repo.Upsert(ctx, models.MealEntry{UserID: user.ID, Date: "2026-08-30", Lunch: 2, Dinner: 0}); err != nil {
		t.Fatalf("updating entry: %v", err)
	}

	entry, err := repo.FindByUserAndDate(ctx, user.ID, "2026-08-30")
	if err != nil {
		t.Fatalf("finding entry: %v", err)
	}
	if entry.Lunch != 2 || entry.Dinner != 0 {
		t.Errorf("expected 2/0 after upsert, got %d/%d", entry.Lunch, entry.Dinner)
	}

	entries, err := repo.FindAll(ctx, repository.MealEntryFilter{UserID: user.ID})
	if err != nil {
		t.Fatalf("finding all: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected a single row per user and day, got %d", len(entries))
	}
}

func TestMealEntryRepository_FindByUserAndDateMissing(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := repository.NewMealEntryRepository(db)
	user := seedUser(t, repository.NewUserRepository(db), "alice")

	_, err := repo.FindByUserAndDate(context.Background(), user.ID, "2026-08-30")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestMealEntryRepository_FindAllDateRange(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := repository.NewMealEntryRepository(db)
	user := seedUser(t, repository.NewUserRepository(db), "alice")
	ctx := context.Background()

	repo.Upsert(ctx, models.MealEntry{UserID: user.ID, Date: "2026-08-01", Lunch: 1, Dinner: 0})
	repo.Upsert(ctx, models.MealEntry{UserID: user.ID, Date: "2026-08-15", Lunch: 0, Dinner: 1})
	repo.Upsert(ctx, models.MealEntry{UserID: user.ID, Date: "2026-09-01", Lunch: 1, Dinner: 1})

	entries, err := repo.FindAll(ctx, repository.MealEntryFilter{DateFrom: "2026-08-01", DateTo: "2026-08-31"})
	if err != nil {
		t.Fatalf("finding entries: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 August entries, got %d", len(entries))
	}
}

func TestMealEntryRepository_Totals(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	repo := repository.NewMealEntryRepository(db)
	alice := seedUser(t, userRepo, "alice")
	bob := seedUser(t, userRepo, "bob")
	ctx := context.Background()

	repo.Upsert(ctx, models.MealEntry{UserID: alice.ID, Date: "2026-08-29", Lunch: 2, Dinner: 1})
	repo.Upsert(ctx, models.MealEntry{UserID: alice.ID, Date: "2026-08-30", Lunch: 1, Dinner: 1})
	repo.Upsert(ctx, models.MealEntry{UserID: bob.ID, Date: "2026-08-30", Lunch: 0, Dinner: 2})

	lunch, dinner, err := repo.UserTotals(ctx, alice.ID)
	if err != nil {
		t.Fatalf("user totals: %v", err)
	}
	if lunch != 3 || dinner != 2 {
		t.Errorf("expected alice totals 3/2, got %d/%d", lunch, dinner)
	}

	grand, err := repo.GrandTotal(ctx)
	if err != nil {
		t.Fatalf("grand total: %v", err)
	}
	if grand != 7 {
		t.Errorf("expected grand total 7, got %d", grand)
	}
}

func TestMealEntryRepository_TotalsEmpty(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := repository.NewMealEntryRepository(db)
	user := seedUser(t, repository.NewUserRepository(db), "alice")
	ctx := context.Background()

	lunch, dinner, err := repo.UserTotals(ctx, user.ID)
	if err != nil {
		t.Fatalf("user totals: %v", err)
	}
	if lunch != 0 || dinner != 0 {
		t.Errorf("expected zero totals, got %d/%d", lunch, dinner)
	}

	grand, err := repo.GrandTotal(ctx)
	if err != nil {
		t.Fatalf("grand total: %v", err)
	}
	if grand != 0 {
		t.Errorf("expected zero grand total, got %d", grand)
	}
}
