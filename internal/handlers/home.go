package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"mealhq/internal/middleware"
	"mealhq/internal/models"
	"mealhq/internal/repository"
	"mealhq/internal/services"
	"mealhq/internal/views"
)

type HomeHandler struct {
	budgetService    *services.BudgetService
	mealService      *services.MealService
	notificationRepo repository.NotificationRepository
	inventoryRepo    repository.InventoryRepository
	settingsRepo     repository.SettingsRepository
	renderer         *views.Renderer
}

func NewHomeHandler(
	budgetService *services.BudgetService,
	mealService *services.MealService,
	notificationRepo repository.NotificationRepository,
	inventoryRepo repository.InventoryRepository,
	settingsRepo repository.SettingsRepository,
	renderer *views.Renderer,
) *HomeHandler {
	return &HomeHandler{
		budgetService:    budgetService,
		mealService:      mealService,
		notificationRepo: notificationRepo,
		inventoryRepo:    inventoryRepo,
		settingsRepo:     settingsRepo,
		renderer:         renderer,
	}
}

type homePageData struct {
	views.Page
	Summary       services.BudgetSummary
	Breakdown     []services.CategoryBreakdown
	MealRate      decimal.Decimal
	Notifications []models.Notification
	LowItems      []models.InventoryItem
}

func (handler *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	summary, err := handler.budgetService.Summary(ctx)
	if err != nil {
		slog.Error("summarizing budget", "error", err)
	}

	breakdown, err := handler.budgetService.Breakdown(ctx)
	if err != nil {
		slog.Error("breaking down extras", "error", err)
	}

	mealRate, err := handler.budgetService.EstimatedMealRate(ctx)
	if err != nil {
		slog.Error("estimating meal rate", "error", err)
	}

	notifications, err := handler.notificationRepo.FindUnreadByUser(ctx, user.ID)
	if err != nil {
		slog.Error("finding notifications", "error", err)
	}

	lowItems, err := handler.inventoryRepo.FindByStatus(ctx, models.StatusLow)
	if err != nil {
		slog.Error("finding low inventory", "error", err)
	}

	handler.renderer.Render(w, http.StatusOK, "home", homePageData{
		Page:          basePage(ctx, r, handler.settingsRepo, "Home"),
		Summary:       summary,
		Breakdown:     breakdown,
		MealRate:      mealRate,
		Notifications: notifications,
		LowItems:      lowItems,
	})
}

func (handler *HomeHandler) SubmitMeals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	err := handler.mealService.SubmitDaily(ctx, user.ID, today(), formInt(r, "lunch"), formInt(r, "dinner"))
	switch {
	case errors.Is(err, services.ErrAlreadySubmitted):
		redirectError(w, r, "/home", "You already submitted your counts for today.")
	case errors.Is(err, services.ErrInvalidMealCount):
		redirectError(w, r, "/home", "Meal counts must be between 0 and 5.")
	case err != nil:
		slog.Error("submitting meals", "user", user.ID, "error", err)
		redirectError(w, r, "/home", "Could not save your meal counts.")
	default:
		redirectFlash(w, r, "/home", "Meal counts saved for today.")
	}
}

func (handler *HomeHandler) AddExtras(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	_, err := handler.budgetService.AddExtraItems(ctx, user.ID, formInt(r, "rice"), formInt(r, "egg"), today())
	switch {
	case errors.Is(err, services.ErrNoExtraItems):
		redirectError(w, r, "/home", "Pick at least one extra item.")
	case err != nil:
		slog.Error("adding extras", "user", user.ID, "error", err)
		redirectError(w, r, "/home", "Could not add your extras.")
	default:
		redirectFlash(w, r, "/home", "Extras added.")
	}
}

func (handler *HomeHandler) AddCustomExtra(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	amount, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("amount")))
	if err != nil {
		redirectError(w, r, "/home", "Enter the amount as a number.")
		return
	}

	_, err = handler.budgetService.AddCustomExtra(ctx, user.ID, amount, strings.TrimSpace(r.FormValue("description")), today())
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		redirectError(w, r, "/home", "The amount must be greater than zero.")
	case err != nil:
		slog.Error("adding custom extra", "user", user.ID, "error", err)
		redirectError(w, r, "/home", "Could not add the extra.")
	default:
		redirectFlash(w, r, "/home", "Extra added.")
	}
}

func (handler *HomeHandler) AddContribution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	amount, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("amount")))
	if err != nil {
		redirectError(w, r, "/home", "Enter the amount as a number.")
		return
	}

	_, err = handler.budgetService.AddContribution(ctx, user.ID, amount, strings.TrimSpace(r.FormValue("description")), today())
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		redirectError(w, r, "/home", "The amount must be greater than zero.")
	case err != nil:
		slog.Error("adding contribution", "user", user.ID, "error", err)
		redirectError(w, r, "/home", "Could not add your contribution.")
	default:
		redirectFlash(w, r, "/home", "Contribution added.")
	}
}

func (handler *HomeHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	id := chi.URLParam(r, "id")

	if err := handler.notificationRepo.MarkRead(ctx, id, user.ID); err != nil {
		slog.Error("marking notification read", "user", user.ID, "error", err)
	}
	http.Redirect(w, r, "/home", http.StatusFound)
}
