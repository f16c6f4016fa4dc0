package server

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"

	"mealhq/internal/config"
	"mealhq/internal/handlers"
	"mealhq/internal/middleware"
	"mealhq/internal/repository"
	"mealhq/internal/services"
	"mealhq/internal/views"
)

type Server struct {
	router *chi.Mux
	config config.Config
}

func New(database *sql.DB, cfg config.Config, authService *services.AuthService, renderer *views.Renderer) *Server {
	userRepo := repository.NewUserRepository(database)
	extraRepo := repository.NewExtraRepository(database)
	contributionRepo := repository.NewContributionRepository(database)
	inventoryRepo := repository.NewInventoryRepository(database)
	mealEntryRepo := repository.NewMealEntryRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)
	tokenRepo := repository.NewAPITokenRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)

	budgetService := services.NewBudgetService(contributionRepo, extraRepo, userRepo, settingsRepo, mealEntryRepo)
	mealService := services.NewMealService(mealEntryRepo, userRepo)
	adminService := services.NewAdminService(userRepo, notificationRepo)

	authHandler := handlers.NewAuthHandler(authService, settingsRepo, renderer)
	homeHandler := handlers.NewHomeHandler(budgetService, mealService, notificationRepo, inventoryRepo, settingsRepo, renderer)
	profileHandler := handlers.NewProfileHandler(userRepo, contributionRepo, extraRepo, mealService, settingsRepo, renderer)
	mealTableHandler := handlers.NewMealTableHandler(mealService, settingsRepo, renderer)
	adminHandler := handlers.NewAdminHandler(adminService, mealService, userRepo, inventoryRepo, tokenRepo, settingsRepo, renderer)
	apiHandler := handlers.NewAPIHandler(budgetService, mealService, userRepo, extraRepo, contributionRepo, inventoryRepo)

	router := chi.NewRouter()

	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Compress(5))

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// The JSON API authenticates with bearer tokens, not cookies, so it sits
	// outside the CSRF wrap.
	router.Group(func(r chi.Router) {
		r.Use(middleware.APITokenAuth(tokenRepo, userRepo))

		r.Get("/api/users", apiHandler.Users)
		r.Get("/api/extras", apiHandler.Extras)
		r.Get("/api/contributions", apiHandler.Contributions)
		r.Get("/api/inventory", apiHandler.Inventory)
		r.Get("/api/budget/summary", apiHandler.BudgetSummary)
		r.Get("/api/meal-table", apiHandler.MealTable)
		r.Post("/api/jobs/reset-day", apiHandler.ResetDay)
	})

	// TLS terminates at the reverse proxy.
	csrfProtect := csrf.Protect([]byte(cfg.CSRFKey), csrf.Secure(false), csrf.Path("/"))

	router.Group(func(r chi.Router) {
		r.Use(csrfProtect)

		r.Get("/", authHandler.Landing)
		r.Get("/login", authHandler.LoginPage)
		r.Post("/login", authHandler.Login)
		r.Get("/signup", authHandler.SignupPage)
		r.Post("/signup", authHandler.Signup)
		r.Get("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(authService))

			r.Get("/home", homeHandler.Home)
			r.Post("/meals/submit", homeHandler.SubmitMeals)
			r.Post("/extras", homeHandler.AddExtras)
			r.Post("/extras/custom", homeHandler.AddCustomExtra)
			r.Post("/contributions", homeHandler.AddContribution)
			r.Post("/notifications/{id}/read", homeHandler.DismissNotification)

			r.Get("/profile", profileHandler.Profile)
			r.Post("/profile", profileHandler.Update)
			r.Post("/profile/defaults", profileHandler.UpdateDefaults)

			r.Get("/meal-table", mealTableHandler.Table)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/admin", adminHandler.Dashboard)
				r.Post("/admin/meals", adminHandler.SetMeals)
				r.Post("/admin/transfer", adminHandler.Transfer)
				r.Post("/admin/notify", adminHandler.Notify)
				r.Post("/admin/inventory", adminHandler.CreateInventoryItem)
				r.Post("/admin/inventory/{id}", adminHandler.UpdateInventoryItem)
				r.Post("/admin/settings", adminHandler.UpdateSettings)
				r.Post("/admin/tokens", adminHandler.CreateToken)
				r.Post("/admin/tokens/{id}/delete", adminHandler.DeleteToken)
				r.Get("/admin/shopping-list", adminHandler.ShoppingList)
			})
		})

		r.NotFound(authHandler.NotFound)
	})

	return &Server{router: router, config: cfg}
}

func (server *Server) Router() http.Handler {
	return server.router
}

func (server *Server) Start() error {
	return http.ListenAndServe(":"+server.config.Port, server.router)
}
