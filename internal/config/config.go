package config

import (
	"fmt"
	"os"
)

type Config struct {
	DatabasePath string

	// External auth provider. Issuer is used for OIDC discovery; the signup
	// and resend endpoints are provider-specific and configured separately.
	AuthIssuer       string
	AuthClientID     string
	AuthClientSecret string
	AuthSignupURL    string
	AuthResendURL    string
	AuthRevokeURL    string

	SessionSecret string
	CSRFKey       string
	LogLevel      string
	Port          string
}

func Load() (Config, error) {
	config := Config{
		DatabasePath:     envOrDefault("DATABASE_PATH", "./data/mealhq.db"),
		AuthIssuer:       os.Getenv("AUTH_ISSUER"),
		AuthClientID:     os.Getenv("AUTH_CLIENT_ID"),
		AuthClientSecret: os.Getenv("AUTH_CLIENT_SECRET"),
		AuthSignupURL:    os.Getenv("AUTH_SIGNUP_URL"),
		AuthResendURL:    os.Getenv("AUTH_RESEND_URL"),
		AuthRevokeURL:    os.Getenv("AUTH_REVOKE_URL"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		CSRFKey:          os.Getenv("CSRF_KEY"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		Port:             envOrDefault("PORT", "8080"),
	}

	if config.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET is required")
	}
	if config.CSRFKey == "" {
		config.CSRFKey = config.SessionSecret
	}

	return config, nil
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
