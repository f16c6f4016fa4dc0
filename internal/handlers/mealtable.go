package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"mealhq/internal/repository"
	"mealhq/internal/services"
	"mealhq/internal/views"
)

type MealTableHandler struct {
	mealService  *services.MealService
	settingsRepo repository.SettingsRepository
	renderer     *views.Renderer
}

func NewMealTableHandler(mealService *services.MealService, settingsRepo repository.SettingsRepository, renderer *views.Renderer) *MealTableHandler {
	return &MealTableHandler{
		mealService:  mealService,
		settingsRepo: settingsRepo,
		renderer:     renderer,
	}
}

type mealTablePageData struct {
	views.Page
	Table services.MealTable
	From  string
	To    string
}

// Table shows the last seven days unless the member picked a range.
func (handler *MealTableHandler) Table(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		now := time.Now()
		to = now.Format(dateLayout)
		from = now.AddDate(0, 0, -6).Format(dateLayout)
	}

	table, err := handler.mealService.Table(ctx, from, to)
	if err != nil {
		slog.Error("building meal table", "from", from, "to", to, "error", err)
		redirectError(w, r, "/meal-table", "Pick a valid date range.")
		return
	}

	handler.renderer.Render(w, http.StatusOK, "mealtable", mealTablePageData{
		Page:  basePage(ctx, r, handler.settingsRepo, "Meal Table"),
		Table: table,
		From:  from,
		To:    to,
	})
}
