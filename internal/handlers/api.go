package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"mealhq/internal/repository"
	"mealhq/internal/services"
)

// APIHandler serves the JSON surface used by external schedulers and
// integrations. Everything behind it is bearer-token authenticated.
type APIHandler struct {
	budgetService    *services.BudgetService
	mealService      *services.MealService
	userRepo         repository.UserRepository
	extraRepo        repository.ExtraRepository
	contributionRepo repository.ContributionRepository
	inventoryRepo    repository.InventoryRepository
}

func NewAPIHandler(
	budgetService *services.BudgetService,
	mealService *services.MealService,
	userRepo repository.UserRepository,
	extraRepo repository.ExtraRepository,
	contributionRepo repository.ContributionRepository,
	inventoryRepo repository.InventoryRepository,
) *APIHandler {
	return &APIHandler{
		budgetService:    budgetService,
		mealService:      mealService,
		userRepo:         userRepo,
		extraRepo:        extraRepo,
		contributionRepo: contributionRepo,
		inventoryRepo:    inventoryRepo,
	}
}

func (handler *APIHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := handler.userRepo.FindAll(r.Context())
	if err != nil {
		slog.Error("finding users", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load users"})
		return
	}

	type userResponse struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Email       string `json:"email"`
		Role        string `json:"role"`
		LunchCount  int    `json:"lunch_count"`
		DinnerCount int    `json:"dinner_count"`
		HasUpdated  bool   `json:"has_updated"`
	}

	response := make([]userResponse, 0, len(users))
	for _, user := range users {
		response = append(response, userResponse{
			ID:          user.ID,
			Name:        user.Name,
			Email:       user.Email,
			Role:        string(user.Role),
			LunchCount:  user.LunchCount,
			DinnerCount: user.DinnerCount,
			HasUpdated:  user.HasUpdated,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (handler *APIHandler) Extras(w http.ResponseWriter, r *http.Request) {
	filter := repository.ExtraFilter{
		DateFrom: r.URL.Query().Get("from"),
		DateTo:   r.URL.Query().Get("to"),
	}

	extras, err := handler.extraRepo.FindAll(r.Context(), filter)
	if err != nil {
		slog.Error("finding extras", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load extras"})
		return
	}

	type extraResponse struct {
		ID          string `json:"id"`
		UserID      string `json:"user_id"`
		Category    string `json:"category"`
		Description string `json:"description"`
		Amount      string `json:"amount"`
		Date        string `json:"date"`
	}

	response := make([]extraResponse, 0, len(extras))
	for _, extra := range extras {
		response = append(response, extraResponse{
			ID:          extra.ID,
			UserID:      extra.UserID,
			Category:    string(extra.Category),
			Description: extra.Description,
			Amount:      extra.Amount.StringFixed(2),
			Date:        extra.Date,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (handler *APIHandler) Contributions(w http.ResponseWriter, r *http.Request) {
	contributions, err := handler.contributionRepo.FindAll(r.Context())
	if err != nil {
		slog.Error("finding contributions", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load contributions"})
		return
	}

	type contributionResponse struct {
		ID          string `json:"id"`
		UserID      string `json:"user_id"`
		Amount      string `json:"amount"`
		Description string `json:"description"`
		Date        string `json:"date"`
	}

	response := make([]contributionResponse, 0, len(contributions))
	for _, contribution := range contributions {
		response = append(response, contributionResponse{
			ID:          contribution.ID,
			UserID:      contribution.UserID,
			Amount:      contribution.Amount.StringFixed(2),
			Description: contribution.Description,
			Date:        contribution.Date,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (handler *APIHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	items, err := handler.inventoryRepo.FindAll(r.Context())
	if err != nil {
		slog.Error("finding inventory", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load inventory"})
		return
	}

	type itemResponse struct {
		ID       string `json:"id"`
		Item     string `json:"item"`
		Quantity string `json:"quantity"`
		Status   string `json:"status"`
		Price    string `json:"price"`
	}

	response := make([]itemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, itemResponse{
			ID:       item.ID,
			Item:     item.Item,
			Quantity: item.Quantity,
			Status:   string(item.Status),
			Price:    item.Price,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (handler *APIHandler) BudgetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := handler.budgetService.Summary(ctx)
	if err != nil {
		slog.Error("summarizing budget", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to summarize budget"})
		return
	}

	mealRate, err := handler.budgetService.EstimatedMealRate(ctx)
	if err != nil {
		slog.Error("estimating meal rate", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to estimate meal rate"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"total_contributions": summary.TotalContributions.StringFixed(2),
		"total_spent":         summary.TotalSpent.StringFixed(2),
		"remaining":           summary.Remaining.StringFixed(2),
		"percent_spent":       summary.PercentSpent.StringFixed(1),
		"estimated_meal_rate": mealRate.StringFixed(2),
	})
}

func (handler *APIHandler) MealTable(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		now := time.Now()
		to = now.Format(dateLayout)
		from = now.AddDate(0, 0, -6).Format(dateLayout)
	}

	table, err := handler.mealService.Table(r.Context(), from, to)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date range"})
		return
	}

	type rowResponse struct {
		UserID string `json:"user_id"`
		Name   string `json:"name"`
		Cells  []int  `json:"cells"`
		Total  int    `json:"total"`
	}

	rows := make([]rowResponse, 0, len(table.Rows))
	for _, row := range table.Rows {
		rows = append(rows, rowResponse{
			UserID: row.User.ID,
			Name:   row.User.Name,
			Cells:  row.Cells,
			Total:  row.Total,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dates":         table.Dates,
		"rows":          rows,
		"column_totals": table.ColumnTotals,
		"grand_total":   table.GrandTotal,
	})
}

// ResetDay is the endpoint a cron job hits once a day, shortly after
// midnight, to roll the household over to the new date.
func (handler *APIHandler) ResetDay(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = today()
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}

	if err := handler.mealService.ResetDay(r.Context(), date); err != nil {
		slog.Error("resetting day", "date", date, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to reset day"})
		return
	}

	slog.Info("daily reset complete", "date", date)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "date": date})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
