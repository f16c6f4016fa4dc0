package services_test

import (
	"context"
	"testing"

	"mealhq/internal/models"
	"mealhq/internal/repository"
	"mealhq/internal/services"
	"mealhq/internal/testutil"
)

type mealFixture struct {
	service  *services.MealService
	userRepo repository.UserRepository
	mealRepo repository.MealEntryRepository
}

func newMealFixture(t *testing.T) mealFixture {
	t.Helper()
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	mealRepo := repository.NewMealEntryRepository(db)
	return mealFixture{
		service:  services.NewMealService(mealRepo, userRepo),
		userRepo: userRepo,
		mealRepo: mealRepo,
	}
}

func (fixture mealFixture) createUser(t *testing.T, subject string, role models.Role) models.User {
	t.Helper()
	user, err := fixture.userRepo.Create(context.Background(), models.User{
		AuthSubject: subject,
		Email:       subject + "@test.com",
		Name:        subject,
		Role:        role,
	})
	if err != nil {
		t.Fatalf("creating user %s: %v", subject, err)
	}
	return user
}

func TestTabulate_TotalsAgree(t *testing.T) {
	users := []models.User{
		{ID: "u1", Name: "Alice"},
		{ID: "u2", Name: "Bob"},
	}
	dates := []string{"2026-08-28", "2026-08-29", "2026-08-30"}
	entries := []models.MealEntry{
		{UserID: "u1", Date: "2026-08-28", Lunch: 1, Dinner: 1},
		{UserID: "u1", Date: "2026-08-30", Lunch: 2, Dinner: 0},
		{UserID: "u2", Date: "2026-08-29", Lunch: 0, Dinner: 1},
	}

	table := services.Tabulate(users, entries, dates)

	rowSum := 0
	for _, row := range table.Rows {
		cellSum := 0
		for _, cell := range row.Cells {
			cellSum += cell
		}
		if cellSum != row.Total {
			t.Errorf("row %s: cells sum to %d but total is %d", row.User.Name, cellSum, row.Total)
		}
		rowSum += row.Total
	}

	columnSum := 0
	for _, total := range table.ColumnTotals {
		columnSum += total
	}

	if rowSum != table.GrandTotal {
		t.Errorf("row totals sum to %d but grand total is %d", rowSum, table.GrandTotal)
	}
	if columnSum != table.GrandTotal {
		t.Errorf("column totals sum to %d but grand total is %d", columnSum, table.GrandTotal)
	}
	if table.GrandTotal != 5 {
		t.Errorf("expected grand total 5, got %d", table.GrandTotal)
	}
}

func TestTabulate_EveryUserGetsARow(t *testing.T) {
	users := []models.User{{ID: "u1", Name: "Alice"}, {ID: "u2", Name: "Bob"}}
	dates := []string{"2026-08-30"}

	table := services.Tabulate(users, nil, dates)

	if len(table.Rows) != 2 {
		t.Fatalf("expected a row per user, got %d rows", len(table.Rows))
	}
	for _, row := range table.Rows {
		if len(row.Cells) != len(dates) {
			t.Errorf("row %s: expected %d cells, got %d", row.User.Name, len(dates), len(row.Cells))
		}
		if row.Total != 0 {
			t.Errorf("row %s: expected zero total without entries, got %d", row.User.Name, row.Total)
		}
	}
}

func TestSubmitDaily_OncePerDay(t *testing.T) {
	fixture := newMealFixture(t)
	ctx := context.Background()
	user := fixture.createUser(t, "alice", models.RoleMember)

	if err := fixture.service.SubmitDaily(ctx, user.ID, "2026-08-30", 1, 1); err != nil {
		t.Fatalf("first submission: %v", err)
	}

	err := fixture.service.SubmitDaily(ctx, user.ID, "2026-08-30", 2, 2)
	if err != services.ErrAlreadySubmitted {
		t.Errorf("expected ErrAlreadySubmitted, got %v", err)
	}

	// The rejected second submission must not have touched the entry.
	entry, err := fixture.mealRepo.FindByUserAndDate(ctx, user.ID, "2026-08-30")
	if err != nil {
		t.Fatalf("finding entry: %v", err)
	}
	if entry.Lunch != 1 || entry.Dinner != 1 {
		t.Errorf("expected entry 1/1, got %d/%d", entry.Lunch, entry.Dinner)
	}
}

func TestSubmitDaily_RejectsOutOfRangeCounts(t *testing.T) {
	fixture := newMealFixture(t)
	ctx := context.Background()
	user := fixture.createUser(t, "alice", models.RoleMember)

	for _, counts := range [][2]int{{-1, 0}, {0, -1}, {6, 0}, {0, 6}} {
		err := fixture.service.SubmitDaily(ctx, user.ID, "2026-08-30", counts[0], counts[1])
		if err != services.ErrInvalidMealCount {
			t.Errorf("counts %v: expected ErrInvalidMealCount, got %v", counts, err)
		}
	}
}

func TestSetDay_OverridesWithoutDailyGate(t *testing.T) {
	fixture := newMealFixture(t)
	ctx := context.Background()
	user := fixture.createUser(t, "alice", models.RoleMember)

	if err := fixture.service.SubmitDaily(ctx, user.ID, "2026-08-30", 1, 1); err != nil {
		t.Fatalf("submitting: %v", err)
	}
	if err := fixture.service.SetDay(ctx, user.ID, "2026-08-30", 3, 2); err != nil {
		t.Fatalf("overriding: %v", err)
	}

	entry, err := fixture.mealRepo.FindByUserAndDate(ctx, user.ID, "2026-08-30")
	if err != nil {
		t.Fatalf("finding entry: %v", err)
	}
	if entry.Lunch != 3 || entry.Dinner != 2 {
		t.Errorf("expected entry 3/2 after override, got %d/%d", entry.Lunch, entry.Dinner)
	}
}

func TestResetDay_AppliesDefaultsAndReopensSubmission(t *testing.T) {
	fixture := newMealFixture(t)
	ctx := context.Background()

	alice := fixture.createUser(t, "alice", models.RoleMember)
	bob := fixture.createUser(t, "bob", models.RoleMember)

	// Alice opts in to defaults; Bob does not.
	if err := fixture.service.SetDefaults(ctx, alice.ID, true, 1, 1); err != nil {
		t.Fatalf("setting defaults: %v", err)
	}
	if err := fixture.service.SubmitDaily(ctx, bob.ID, "2026-08-29", 2, 2); err != nil {
		t.Fatalf("submitting for bob: %v", err)
	}

	if err := fixture.service.ResetDay(ctx, "2026-08-30"); err != nil {
		t.Fatalf("resetting day: %v", err)
	}

	// Alice's defaults become her entry for the new day.
	entry, err := fixture.mealRepo.FindByUserAndDate(ctx, alice.ID, "2026-08-30")
	if err != nil {
		t.Fatalf("finding alice's entry: %v", err)
	}
	if entry.Lunch != 1 || entry.Dinner != 1 {
		t.Errorf("expected default entry 1/1, got %d/%d", entry.Lunch, entry.Dinner)
	}

	// Everyone may submit again, including Bob who submitted yesterday.
	if err := fixture.service.SubmitDaily(ctx, bob.ID, "2026-08-30", 1, 0); err != nil {
		t.Errorf("expected bob's gate to reopen, got %v", err)
	}

	// Alice's defaulted entry still counts as not hand-submitted.
	if err := fixture.service.SubmitDaily(ctx, alice.ID, "2026-08-30", 2, 2); err != nil {
		t.Errorf("expected alice to be able to override her default, got %v", err)
	}
}

func TestTable_DateRangeValidation(t *testing.T) {
	fixture := newMealFixture(t)
	ctx := context.Background()

	if _, err := fixture.service.Table(ctx, "2026-08-30", "2026-08-01"); err == nil {
		t.Error("expected error for inverted range")
	}
	if _, err := fixture.service.Table(ctx, "not-a-date", "2026-08-30"); err == nil {
		t.Error("expected error for malformed date")
	}
}
