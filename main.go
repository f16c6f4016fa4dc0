package main

import (
	"context"
	"log/slog"
	"os"

	"mealhq/internal/config"
	"mealhq/internal/database"
	"mealhq/internal/identity"
	"mealhq/internal/logging"
	"mealhq/internal/repository"
	"mealhq/internal/server"
	"mealhq/internal/services"
	"mealhq/internal/views"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	identityClient, err := identity.NewClient(context.Background(), cfg)
	if err != nil {
		slog.Error("creating identity client", "error", err)
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(db)
	authService := services.NewAuthService(identityClient, cfg.SessionSecret, userRepo)

	renderer, err := views.New()
	if err != nil {
		slog.Error("parsing templates", "error", err)
		os.Exit(1)
	}

	srv := server.New(db, cfg, authService, renderer)

	slog.Info("starting server", "port", cfg.Port)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
