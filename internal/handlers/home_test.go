package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"mealhq/internal/models"
	"mealhq/internal/repository"
	"mealhq/internal/services"
	"mealhq/internal/testutil"
	"mealhq/internal/views"
)

type homeHandlerFixture struct {
	handler  *HomeHandler
	userRepo repository.UserRepository
	member   models.User
}

func newHomeHandlerFixture(t *testing.T) homeHandlerFixture {
	t.Helper()
	db := testutil.NewTestDatabase(t)

	userRepo := repository.NewUserRepository(db)
	extraRepo := repository.NewExtraRepository(db)
	contributionRepo := repository.NewContributionRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	mealRepo := repository.NewMealEntryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	budgetService := services.NewBudgetService(contributionRepo, extraRepo, userRepo, settingsRepo, mealRepo)
	mealService := services.NewMealService(mealRepo, userRepo)

	renderer, err := views.New()
	if err != nil {
		t.Fatalf("parsing templates: %v", err)
	}

	member, err := userRepo.Create(context.Background(), models.User{
		AuthSubject: "s1",
		Email:       "a@test.com",
		Name:        "Alice",
		Role:        models.RoleMember,
	})
	if err != nil {
		t.Fatalf("creating member: %v", err)
	}

	return homeHandlerFixture{
		handler:  NewHomeHandler(budgetService, mealService, notificationRepo, inventoryRepo, settingsRepo, renderer),
		userRepo: userRepo,
		member:   member,
	}
}

func TestHome_Renders(t *testing.T) {
	fixture := newHomeHandlerFixture(t)

	request := httptest.NewRequest(http.MethodGet, "/home", nil)
	recorder := httptest.NewRecorder()
	asUser(fixture.member, fixture.handler.Home).ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "Alice") {
		t.Error("expected the member's name on the dashboard")
	}
	if !strings.Contains(body, "Budget") {
		t.Error("expected the budget card on the dashboard")
	}
}

func TestSubmitMeals_SecondSubmissionRejected(t *testing.T) {
	fixture := newHomeHandlerFixture(t)

	form := url.Values{"lunch": {"1"}, "dinner": {"1"}}
	first := postFormAs(fixture.member, fixture.handler.SubmitMeals, "/meals/submit", form)
	if location := first.Header().Get("Location"); !strings.HasPrefix(location, "/home?flash=") {
		t.Fatalf("expected first submission accepted, got %s", location)
	}

	// Reload so the fixture user carries the has_updated flag.
	updated, _ := fixture.userRepo.FindByID(context.Background(), fixture.member.ID)
	second := postFormAs(updated, fixture.handler.SubmitMeals, "/meals/submit", form)
	if location := second.Header().Get("Location"); !strings.HasPrefix(location, "/home?error=") {
		t.Errorf("expected second submission rejected, got %s", location)
	}
}

func TestAddExtras_RequiresAtLeastOneItem(t *testing.T) {
	fixture := newHomeHandlerFixture(t)

	recorder := postFormAs(fixture.member, fixture.handler.AddExtras, "/extras", url.Values{
		"rice": {"0"},
		"egg":  {"0"},
	})

	if location := recorder.Header().Get("Location"); !strings.HasPrefix(location, "/home?error=") {
		t.Errorf("expected validation error redirect, got %s", location)
	}
}

func TestAddContribution_RejectsNonNumericAmount(t *testing.T) {
	fixture := newHomeHandlerFixture(t)

	recorder := postFormAs(fixture.member, fixture.handler.AddContribution, "/contributions", url.Values{
		"amount": {"lots"},
	})

	if location := recorder.Header().Get("Location"); !strings.HasPrefix(location, "/home?error=") {
		t.Errorf("expected validation error redirect, got %s", location)
	}
}

func TestAddContribution_Accepted(t *testing.T) {
	fixture := newHomeHandlerFixture(t)

	recorder := postFormAs(fixture.member, fixture.handler.AddContribution, "/contributions", url.Values{
		"amount":      {"150.00"},
		"description": {"August"},
	})

	if location := recorder.Header().Get("Location"); !strings.HasPrefix(location, "/home?flash=") {
		t.Errorf("expected success redirect, got %s", location)
	}
}
