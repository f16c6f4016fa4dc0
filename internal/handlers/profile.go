package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"mealhq/internal/middleware"
	"mealhq/internal/models"
	"mealhq/internal/repository"
	"mealhq/internal/services"
	"mealhq/internal/views"
)

type ProfileHandler struct {
	userRepo         repository.UserRepository
	contributionRepo repository.ContributionRepository
	extraRepo        repository.ExtraRepository
	mealService      *services.MealService
	settingsRepo     repository.SettingsRepository
	renderer         *views.Renderer
}

func NewProfileHandler(
	userRepo repository.UserRepository,
	contributionRepo repository.ContributionRepository,
	extraRepo repository.ExtraRepository,
	mealService *services.MealService,
	settingsRepo repository.SettingsRepository,
	renderer *views.Renderer,
) *ProfileHandler {
	return &ProfileHandler{
		userRepo:         userRepo,
		contributionRepo: contributionRepo,
		extraRepo:        extraRepo,
		mealService:      mealService,
		settingsRepo:     settingsRepo,
		renderer:         renderer,
	}
}

type profilePageData struct {
	views.Page
	TotalLunch    int
	TotalDinner   int
	Contributions []models.Contribution
	Extras        []models.Extra
}

func (handler *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	totalLunch, totalDinner, err := handler.mealService.UserTotals(ctx, user.ID)
	if err != nil {
		slog.Error("totalling meals", "user", user.ID, "error", err)
	}

	contributions, err := handler.contributionRepo.FindByUser(ctx, user.ID)
	if err != nil {
		slog.Error("finding contributions", "user", user.ID, "error", err)
	}

	extras, err := handler.extraRepo.FindAll(ctx, repository.ExtraFilter{UserID: user.ID})
	if err != nil {
		slog.Error("finding extras", "user", user.ID, "error", err)
	}

	handler.renderer.Render(w, http.StatusOK, "profile", profilePageData{
		Page:          basePage(ctx, r, handler.settingsRepo, "Profile"),
		TotalLunch:    totalLunch,
		TotalDinner:   totalDinner,
		Contributions: contributions,
		Extras:        extras,
	})
}

func (handler *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	phone := strings.TrimSpace(r.FormValue("phone"))
	if name == "" || email == "" {
		redirectError(w, r, "/profile", "Name and email are required.")
		return
	}

	if err := handler.userRepo.UpdateProfile(ctx, user.ID, name, email, phone); err != nil {
		slog.Error("updating profile", "user", user.ID, "error", err)
		redirectError(w, r, "/profile", "Could not save your details.")
		return
	}
	redirectFlash(w, r, "/profile", "Details saved.")
}

func (handler *ProfileHandler) UpdateDefaults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	enabled := r.FormValue("enabled") == "1"
	err := handler.mealService.SetDefaults(ctx, user.ID, enabled, formInt(r, "lunch"), formInt(r, "dinner"))
	switch {
	case errors.Is(err, services.ErrInvalidMealCount):
		redirectError(w, r, "/profile", "Default counts must be between 0 and 5.")
	case err != nil:
		slog.Error("updating defaults", "user", user.ID, "error", err)
		redirectError(w, r, "/profile", "Could not save your defaults.")
	default:
		redirectFlash(w, r, "/profile", "Defaults saved.")
	}
}
