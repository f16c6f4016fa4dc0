package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"mealhq/internal/middleware"
	"mealhq/internal/models"
	"mealhq/internal/repository"
	"mealhq/internal/services"
	"mealhq/internal/testutil"
)

type apiFixture struct {
	db       *sql.DB
	router   *chi.Mux
	userRepo repository.UserRepository
	mealRepo repository.MealEntryRepository
	admin    models.User
	rawToken string
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	db := testutil.NewTestDatabase(t)

	userRepo := repository.NewUserRepository(db)
	extraRepo := repository.NewExtraRepository(db)
	contributionRepo := repository.NewContributionRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	mealRepo := repository.NewMealEntryRepository(db)
	tokenRepo := repository.NewAPITokenRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	budgetService := services.NewBudgetService(contributionRepo, extraRepo, userRepo, settingsRepo, mealRepo)
	mealService := services.NewMealService(mealRepo, userRepo)
	apiHandler := NewAPIHandler(budgetService, mealService, userRepo, extraRepo, contributionRepo, inventoryRepo)

	ctx := context.Background()

	admin, err := userRepo.Create(ctx, models.User{
		AuthSubject: "admin-sub",
		Email:       "admin@test.com",
		Name:        "Admin",
		Role:        models.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("creating admin: %v", err)
	}

	rawToken := "test-api-token"
	if _, err := tokenRepo.Create(ctx, models.APIToken{
		Name:            "test",
		TokenHash:       repository.HashToken(rawToken),
		CreatedByUserID: admin.ID,
	}); err != nil {
		t.Fatalf("creating token: %v", err)
	}

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(middleware.APITokenAuth(tokenRepo, userRepo))

		r.Get("/api/users", apiHandler.Users)
		r.Get("/api/budget/summary", apiHandler.BudgetSummary)
		r.Get("/api/meal-table", apiHandler.MealTable)
		r.Post("/api/jobs/reset-day", apiHandler.ResetDay)
	})

	return apiFixture{
		db:       db,
		router:   router,
		userRepo: userRepo,
		mealRepo: mealRepo,
		admin:    admin,
		rawToken: rawToken,
	}
}

func (fixture apiFixture) do(method string, target string, token string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, nil)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)
	return recorder
}

func TestAPI_RejectsMissingToken(t *testing.T) {
	fixture := newAPIFixture(t)

	recorder := fixture.do(http.MethodGet, "/api/users", "")
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", recorder.Code)
	}
}

func TestAPI_RejectsUnknownToken(t *testing.T) {
	fixture := newAPIFixture(t)

	recorder := fixture.do(http.MethodGet, "/api/users", "wrong-token")
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown token, got %d", recorder.Code)
	}
}

func TestAPI_RejectsExpiredToken(t *testing.T) {
	fixture := newAPIFixture(t)
	tokenRepo := repository.NewAPITokenRepository(fixture.db)

	expired := time.Now().Add(-time.Hour)
	rawToken := "expired-token"
	if _, err := tokenRepo.Create(context.Background(), models.APIToken{
		Name:            "expired",
		TokenHash:       repository.HashToken(rawToken),
		CreatedByUserID: fixture.admin.ID,
		ExpiresAt:       &expired,
	}); err != nil {
		t.Fatalf("creating expired token: %v", err)
	}

	recorder := fixture.do(http.MethodGet, "/api/users", rawToken)
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %d", recorder.Code)
	}
}

func TestAPI_Users(t *testing.T) {
	fixture := newAPIFixture(t)

	recorder := fixture.do(http.MethodGet, "/api/users", fixture.rawToken)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var users []map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &users); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0]["role"] != "admin" {
		t.Errorf("expected role admin, got %v", users[0]["role"])
	}
}

func TestAPI_BudgetSummary(t *testing.T) {
	fixture := newAPIFixture(t)
	ctx := context.Background()

	contributionRepo := repository.NewContributionRepository(fixture.db)
	extraRepo := repository.NewExtraRepository(fixture.db)
	contributionRepo.Create(ctx, models.Contribution{UserID: fixture.admin.ID, Amount: decimal.NewFromInt(100), Date: "2026-08-01"})
	extraRepo.Create(ctx, models.Extra{UserID: fixture.admin.ID, Category: models.CategoryOther, Description: "snacks", Amount: decimal.NewFromInt(30), Date: "2026-08-02"})

	recorder := fixture.do(http.MethodGet, "/api/budget/summary", fixture.rawToken)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var summary map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if summary["remaining"] != "70.00" {
		t.Errorf("expected remaining 70.00, got %s", summary["remaining"])
	}
	if summary["percent_spent"] != "30.0" {
		t.Errorf("expected percent_spent 30.0, got %s", summary["percent_spent"])
	}
}

func TestAPI_MealTableTotals(t *testing.T) {
	fixture := newAPIFixture(t)
	ctx := context.Background()

	today := time.Now().Format(dateLayout)
	fixture.mealRepo.Upsert(ctx, models.MealEntry{UserID: fixture.admin.ID, Date: today, Lunch: 2, Dinner: 1})

	recorder := fixture.do(http.MethodGet, "/api/meal-table", fixture.rawToken)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var table struct {
		Dates        []string `json:"dates"`
		ColumnTotals []int    `json:"column_totals"`
		GrandTotal   int      `json:"grand_total"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &table); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if table.GrandTotal != 3 {
		t.Errorf("expected grand total 3, got %d", table.GrandTotal)
	}

	columnSum := 0
	for _, total := range table.ColumnTotals {
		columnSum += total
	}
	if columnSum != table.GrandTotal {
		t.Errorf("column totals sum to %d but grand total is %d", columnSum, table.GrandTotal)
	}
}

func TestAPI_ResetDay(t *testing.T) {
	fixture := newAPIFixture(t)
	ctx := context.Background()

	member, err := fixture.userRepo.Create(ctx, models.User{
		AuthSubject: "member-sub",
		Email:       "member@test.com",
		Name:        "Member",
		Role:        models.RoleMember,
	})
	if err != nil {
		t.Fatalf("creating member: %v", err)
	}
	if err := fixture.userRepo.UpdateDefaults(ctx, member.ID, true, 1, 1); err != nil {
		t.Fatalf("setting defaults: %v", err)
	}
	if err := fixture.userRepo.UpdateMealCounts(ctx, fixture.admin.ID, 2, 2, true); err != nil {
		t.Fatalf("setting counts: %v", err)
	}

	recorder := fixture.do(http.MethodPost, "/api/jobs/reset-day?date=2026-08-30", fixture.rawToken)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	// The admin's flag is cleared and the member's default applied.
	admin, _ := fixture.userRepo.FindByID(ctx, fixture.admin.ID)
	if admin.HasUpdated || admin.LunchCount != 0 {
		t.Errorf("expected admin counts reset, got %d updated=%v", admin.LunchCount, admin.HasUpdated)
	}

	entry, err := fixture.mealRepo.FindByUserAndDate(ctx, member.ID, "2026-08-30")
	if err != nil {
		t.Fatalf("finding default entry: %v", err)
	}
	if entry.Lunch != 1 || entry.Dinner != 1 {
		t.Errorf("expected default entry 1/1, got %d/%d", entry.Lunch, entry.Dinner)
	}
}

func TestAPI_ResetDayRejectsBadDate(t *testing.T) {
	fixture := newAPIFixture(t)

	recorder := fixture.do(http.MethodPost, "/api/jobs/reset-day?date=yesterday", fixture.rawToken)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed date, got %d", recorder.Code)
	}
}
