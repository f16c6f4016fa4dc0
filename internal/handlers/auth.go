package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"mealhq/internal/identity"
	"mealhq/internal/repository"
	"mealhq/internal/services"
	"mealhq/internal/views"
)

type AuthHandler struct {
	authService  *services.AuthService
	settingsRepo repository.SettingsRepository
	renderer     *views.Renderer
}

func NewAuthHandler(authService *services.AuthService, settingsRepo repository.SettingsRepository, renderer *views.Renderer) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		settingsRepo: settingsRepo,
		renderer:     renderer,
	}
}

type loginPageData struct {
	views.Page
	Email string
	From  string
}

type signupPageData struct {
	views.Page
	Name  string
	Email string
	Phone string
}

func (handler *AuthHandler) Landing(w http.ResponseWriter, r *http.Request) {
	if _, err := handler.authService.GetSession(r); err == nil {
		http.Redirect(w, r, "/home", http.StatusFound)
		return
	}
	handler.renderer.Render(w, http.StatusOK, "landing", struct{ views.Page }{
		basePage(r.Context(), r, handler.settingsRepo, "Welcome"),
	})
}

func (handler *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	handler.renderer.Render(w, http.StatusOK, "login", loginPageData{
		Page:  basePage(r.Context(), r, handler.settingsRepo, "Log in"),
		Email: r.URL.Query().Get("email"),
		From:  r.URL.Query().Get("from"),
	})
}

func (handler *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	user, err := handler.authService.SignIn(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailNotVerified):
			redirectError(w, r, "/login", "Your email is not verified yet. We just sent you a fresh verification link.")
		case errors.Is(err, identity.ErrInvalidCredentials):
			redirectError(w, r, "/login", "Wrong email or password.")
		default:
			slog.Error("signing in", "email", email, "error", err)
			redirectError(w, r, "/login", "Could not log you in. Try again in a moment.")
		}
		return
	}

	if err := handler.authService.SetSession(w, user.ID); err != nil {
		slog.Error("setting session", "error", err)
		redirectError(w, r, "/login", "Could not start your session.")
		return
	}

	target := r.FormValue("from")
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		target = "/home"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (handler *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	handler.renderer.Render(w, http.StatusOK, "signup", signupPageData{
		Page: basePage(r.Context(), r, handler.settingsRepo, "Sign up"),
	})
}

func (handler *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	phone := strings.TrimSpace(r.FormValue("phone"))
	password := r.FormValue("password")

	if name == "" || email == "" || len(password) < 8 {
		redirectError(w, r, "/signup", "Name, email and a password of at least 8 characters are required.")
		return
	}

	result, err := handler.authService.SignUp(ctx, email, password, name, phone)
	if err != nil {
		// The credential and the profile row are created separately, so
		// tell the member which half failed.
		if result.CredentialCreated {
			slog.Error("creating profile after signup", "email", email, "error", err)
			redirectError(w, r, "/login", "Your account was created but setting up your profile failed. Log in to retry.")
			return
		}
		slog.Error("signing up", "email", email, "error", err)
		redirectError(w, r, "/signup", "Could not create your account. Try again in a moment.")
		return
	}

	redirectFlash(w, r, "/login", "Account created. Check your inbox for a verification link, then log in.")
}

func (handler *AuthHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	handler.renderer.Render(w, http.StatusNotFound, "notfound", struct{ views.Page }{
		basePage(r.Context(), r, handler.settingsRepo, "Not Found"),
	})
}

func (handler *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := handler.authService.GetCurrentUser(r)
	if err == nil {
		handler.authService.SignOut(r.Context(), w, user)
	} else {
		handler.authService.ClearSession(w)
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}
