package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"mealhq/internal/middleware"
	"mealhq/internal/models"
	"mealhq/internal/repository"
	"mealhq/internal/services"
	"mealhq/internal/views"
)

type AdminHandler struct {
	adminService  *services.AdminService
	mealService   *services.MealService
	userRepo      repository.UserRepository
	inventoryRepo repository.InventoryRepository
	tokenRepo     repository.APITokenRepository
	settingsRepo  repository.SettingsRepository
	renderer      *views.Renderer
}

func NewAdminHandler(
	adminService *services.AdminService,
	mealService *services.MealService,
	userRepo repository.UserRepository,
	inventoryRepo repository.InventoryRepository,
	tokenRepo repository.APITokenRepository,
	settingsRepo repository.SettingsRepository,
	renderer *views.Renderer,
) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		mealService:   mealService,
		userRepo:      userRepo,
		inventoryRepo: inventoryRepo,
		tokenRepo:     tokenRepo,
		settingsRepo:  settingsRepo,
		renderer:      renderer,
	}
}

type adminPageData struct {
	views.Page
	Members   []models.User
	Inventory []models.InventoryItem
	Tokens    []models.APIToken
	Today     string
	RicePrice string
	EggPrice  string
	NewToken  string
}

func (handler *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	members, err := handler.userRepo.FindAll(ctx)
	if err != nil {
		slog.Error("finding members", "error", err)
	}

	inventory, err := handler.inventoryRepo.FindAll(ctx)
	if err != nil {
		slog.Error("finding inventory", "error", err)
	}

	tokens, err := handler.tokenRepo.FindAll(ctx)
	if err != nil {
		slog.Error("finding tokens", "error", err)
	}

	ricePrice, _ := handler.settingsRepo.Get(ctx, repository.SettingRicePrice)
	eggPrice, _ := handler.settingsRepo.Get(ctx, repository.SettingEggPrice)

	handler.renderer.Render(w, http.StatusOK, "admin", adminPageData{
		Page:      basePage(ctx, r, handler.settingsRepo, "Admin"),
		Members:   members,
		Inventory: inventory,
		Tokens:    tokens,
		Today:     today(),
		RicePrice: ricePrice,
		EggPrice:  eggPrice,
		NewToken:  handler.takeNewToken(w, r),
	})
}

const newTokenCookie = "new_api_token"

// takeNewToken reads the one-time handoff cookie left by CreateToken and
// expires it, so the raw value renders on this response only.
func (handler *AdminHandler) takeNewToken(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(newTokenCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     newTokenCookie,
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return cookie.Value
}

func (handler *AdminHandler) SetMeals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date := r.FormValue("date")
	if date == "" {
		date = today()
	}

	err := handler.mealService.SetDay(ctx, r.FormValue("user_id"), date, formInt(r, "lunch"), formInt(r, "dinner"))
	switch {
	case errors.Is(err, services.ErrInvalidMealCount):
		redirectError(w, r, "/admin", "Meal counts must be between 0 and 5.")
	case err != nil:
		slog.Error("setting meal counts", "error", err)
		redirectError(w, r, "/admin", "Could not save the meal counts.")
	default:
		redirectFlash(w, r, "/admin", "Meal counts saved.")
	}
}

func (handler *AdminHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetUser(ctx)

	err := handler.adminService.TransferAdmin(ctx, caller.ID, r.FormValue("user_id"))
	switch {
	case errors.Is(err, services.ErrSelfTransfer):
		redirectError(w, r, "/admin", "You already hold the admin role.")
	case errors.Is(err, services.ErrUnknownUser):
		redirectError(w, r, "/admin", "That member does not exist.")
	case errors.Is(err, services.ErrNotAdmin):
		http.Redirect(w, r, "/home", http.StatusFound)
	case err != nil:
		slog.Error("transferring admin role", "error", err)
		redirectError(w, r, "/admin", "Could not transfer the admin role.")
	default:
		// The caller is a regular member now, so the admin page would bounce.
		redirectFlash(w, r, "/home", "Admin role transferred.")
	}
}

func (handler *AdminHandler) Notify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	_, err := handler.adminService.Notify(ctx, r.FormValue("user_id"), strings.TrimSpace(r.FormValue("message")))
	switch {
	case errors.Is(err, services.ErrUnknownUser):
		redirectError(w, r, "/admin", "That member does not exist.")
	case err != nil:
		slog.Error("notifying member", "error", err)
		redirectError(w, r, "/admin", "Could not send the notification.")
	default:
		redirectFlash(w, r, "/admin", "Notification sent.")
	}
}

func (handler *AdminHandler) CreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	item := strings.TrimSpace(r.FormValue("item"))
	quantity := strings.TrimSpace(r.FormValue("quantity"))
	if item == "" || quantity == "" {
		redirectError(w, r, "/admin", "Item and quantity are required.")
		return
	}

	_, err := handler.inventoryRepo.Create(ctx, models.InventoryItem{
		Item:     item,
		Quantity: quantity,
		Status:   models.StatusSufficient,
		Price:    strings.TrimSpace(r.FormValue("price")),
	})
	if err != nil {
		slog.Error("creating inventory item", "error", err)
		redirectError(w, r, "/admin", "Could not add the item.")
		return
	}
	redirectFlash(w, r, "/admin", "Item added.")
}

func (handler *AdminHandler) UpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	item, err := handler.inventoryRepo.FindByID(ctx, id)
	if err != nil {
		redirectError(w, r, "/admin", "That item does not exist.")
		return
	}

	if quantity := strings.TrimSpace(r.FormValue("quantity")); quantity != "" {
		item.Quantity = quantity
	}
	if status := models.InventoryStatus(r.FormValue("status")); status == models.StatusSufficient || status == models.StatusLow {
		item.Status = status
	}

	if err := handler.inventoryRepo.Update(ctx, item); err != nil {
		slog.Error("updating inventory item", "error", err)
		redirectError(w, r, "/admin", "Could not update the item.")
		return
	}
	redirectFlash(w, r, "/admin", "Item updated.")
}

func (handler *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	groupName := strings.TrimSpace(r.FormValue("group_name"))
	if groupName == "" {
		redirectError(w, r, "/admin", "The group name cannot be empty.")
		return
	}
	if err := handler.settingsRepo.Set(ctx, repository.SettingGroupName, groupName); err != nil {
		slog.Error("saving group name", "error", err)
		redirectError(w, r, "/admin", "Could not save the settings.")
		return
	}

	for _, setting := range []struct {
		key   string
		field string
	}{
		{repository.SettingRicePrice, "rice_price"},
		{repository.SettingEggPrice, "egg_price"},
	} {
		value := strings.TrimSpace(r.FormValue(setting.field))
		if value == "" {
			continue
		}
		price, err := decimal.NewFromString(value)
		if err != nil || price.IsNegative() {
			redirectError(w, r, "/admin", "Unit prices must be non-negative numbers.")
			return
		}
		if err := handler.settingsRepo.Set(ctx, setting.key, price.StringFixed(2)); err != nil {
			slog.Error("saving unit price", "key", setting.key, "error", err)
			redirectError(w, r, "/admin", "Could not save the settings.")
			return
		}
	}

	redirectFlash(w, r, "/admin", "Settings saved.")
}

func (handler *AdminHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetUser(ctx)

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		redirectError(w, r, "/admin", "The token needs a name.")
		return
	}

	rawToken := generateToken()
	token := models.APIToken{
		Name:            name,
		TokenHash:       repository.HashToken(rawToken),
		CreatedByUserID: caller.ID,
	}
	if days := formInt(r, "expires_days"); days > 0 {
		expiry := time.Now().AddDate(0, 0, days)
		token.ExpiresAt = &expiry
	}

	if _, err := handler.tokenRepo.Create(ctx, token); err != nil {
		slog.Error("creating token", "error", err)
		redirectError(w, r, "/admin", "Could not create the token.")
		return
	}

	// The raw token is shown exactly once. It travels in a short-lived
	// cookie rather than the URL so it never reaches access logs, history
	// or Referer headers.
	http.SetCookie(w, &http.Cookie{
		Name:     newTokenCookie,
		Value:    rawToken,
		Path:     "/admin",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	redirectFlash(w, r, "/admin", "Token created. Copy it now, it will not be shown again.")
}

func (handler *AdminHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := handler.tokenRepo.Delete(ctx, id); err != nil {
		slog.Error("deleting token", "error", err)
		redirectError(w, r, "/admin", "Could not revoke the token.")
		return
	}
	redirectFlash(w, r, "/admin", "Token revoked.")
}

type shoppingListPageData struct {
	views.Page
	Items []models.InventoryItem
}

// ShoppingList lists everything marked low, ready to take to the market.
func (handler *AdminHandler) ShoppingList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := handler.inventoryRepo.FindByStatus(ctx, models.StatusLow)
	if err != nil {
		slog.Error("finding low inventory", "error", err)
	}

	handler.renderer.Render(w, http.StatusOK, "shoppinglist", shoppingListPageData{
		Page:  basePage(ctx, r, handler.settingsRepo, "Shopping List"),
		Items: items,
	})
}

func generateToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
