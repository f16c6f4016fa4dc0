package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"mealhq/internal/identity"
	"mealhq/internal/repository"
	"mealhq/internal/services"
	"mealhq/internal/testutil"
	"mealhq/internal/views"
)

type stubIdentity struct {
	signInIdentity identity.Identity
	signInErr      error
	signUpSubject  string
	signUpErr      error
	resendCalls    int
}

func (stub *stubIdentity) SignIn(ctx context.Context, email string, password string) (identity.Identity, error) {
	return stub.signInIdentity, stub.signInErr
}

func (stub *stubIdentity) SignUp(ctx context.Context, email string, password string, name string, phone string) (string, error) {
	return stub.signUpSubject, stub.signUpErr
}

func (stub *stubIdentity) ResendVerification(ctx context.Context, email string) error {
	stub.resendCalls++
	return nil
}

func (stub *stubIdentity) SignOut(ctx context.Context, subject string) error {
	return nil
}

func newAuthHandlerFixture(t *testing.T, provider identity.Provider) *AuthHandler {
	t.Helper()
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	authService := services.NewAuthService(provider, "0123456789abcdef0123456789abcdef", userRepo)

	renderer, err := views.New()
	if err != nil {
		t.Fatalf("parsing templates: %v", err)
	}

	return NewAuthHandler(authService, repository.NewSettingsRepository(db), renderer)
}

func postForm(handler http.HandlerFunc, target string, form url.Values) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	handler(recorder, request)
	return recorder
}

func TestLogin_SuccessSetsSessionAndRedirects(t *testing.T) {
	provider := &stubIdentity{
		signInIdentity: identity.Identity{Subject: "sub-1", Email: "a@test.com", Name: "Alice"},
	}
	handler := newAuthHandlerFixture(t, provider)

	recorder := postForm(handler.Login, "/login", url.Values{
		"email":    {"a@test.com"},
		"password": {"correct-horse"},
	})

	if recorder.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "/home" {
		t.Errorf("expected redirect to /home, got %s", location)
	}
	if len(recorder.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
}

func TestLogin_ReturnsToRequestedPage(t *testing.T) {
	provider := &stubIdentity{
		signInIdentity: identity.Identity{Subject: "sub-1", Email: "a@test.com", Name: "Alice"},
	}
	handler := newAuthHandlerFixture(t, provider)

	recorder := postForm(handler.Login, "/login", url.Values{
		"email":    {"a@test.com"},
		"password": {"correct-horse"},
		"from":     {"/meal-table"},
	})

	if location := recorder.Header().Get("Location"); location != "/meal-table" {
		t.Errorf("expected redirect to /meal-table, got %s", location)
	}
}

func TestLogin_RejectsOffsiteReturnTarget(t *testing.T) {
	provider := &stubIdentity{
		signInIdentity: identity.Identity{Subject: "sub-1", Email: "a@test.com", Name: "Alice"},
	}
	handler := newAuthHandlerFixture(t, provider)

	recorder := postForm(handler.Login, "/login", url.Values{
		"email":    {"a@test.com"},
		"password": {"correct-horse"},
		"from":     {"https://evil.example"},
	})

	if location := recorder.Header().Get("Location"); location != "/home" {
		t.Errorf("expected offsite target replaced with /home, got %s", location)
	}
}

func TestLogin_UnverifiedEmailResendsAndExplains(t *testing.T) {
	provider := &stubIdentity{signInErr: identity.ErrEmailNotVerified}
	handler := newAuthHandlerFixture(t, provider)

	recorder := postForm(handler.Login, "/login", url.Values{
		"email":    {"a@test.com"},
		"password": {"correct-horse"},
	})

	if recorder.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", recorder.Code)
	}
	location := recorder.Header().Get("Location")
	if !strings.HasPrefix(location, "/login?error=") {
		t.Errorf("expected redirect back to login with an error, got %s", location)
	}
	if provider.resendCalls != 1 {
		t.Errorf("expected one verification resend, got %d", provider.resendCalls)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	provider := &stubIdentity{signInErr: identity.ErrInvalidCredentials}
	handler := newAuthHandlerFixture(t, provider)

	recorder := postForm(handler.Login, "/login", url.Values{
		"email":    {"a@test.com"},
		"password": {"wrong"},
	})

	location := recorder.Header().Get("Location")
	if !strings.HasPrefix(location, "/login?error=") {
		t.Errorf("expected redirect back to login with an error, got %s", location)
	}
	if len(recorder.Result().Cookies()) != 0 {
		t.Error("expected no session cookie on failed login")
	}
}

func TestSignup_RejectsShortPassword(t *testing.T) {
	provider := &stubIdentity{signUpSubject: "sub-1"}
	handler := newAuthHandlerFixture(t, provider)

	recorder := postForm(handler.Signup, "/signup", url.Values{
		"name":     {"Alice"},
		"email":    {"a@test.com"},
		"password": {"short"},
	})

	location := recorder.Header().Get("Location")
	if !strings.HasPrefix(location, "/signup?error=") {
		t.Errorf("expected validation error redirect, got %s", location)
	}
}

func TestSignup_SuccessRedirectsToLogin(t *testing.T) {
	provider := &stubIdentity{signUpSubject: "sub-1"}
	handler := newAuthHandlerFixture(t, provider)

	recorder := postForm(handler.Signup, "/signup", url.Values{
		"name":     {"Alice"},
		"email":    {"a@test.com"},
		"password": {"long-enough-password"},
	})

	location := recorder.Header().Get("Location")
	if !strings.HasPrefix(location, "/login?flash=") {
		t.Errorf("expected redirect to login with a flash, got %s", location)
	}
}

func TestLoginPage_Renders(t *testing.T) {
	handler := newAuthHandlerFixture(t, &stubIdentity{})

	request := httptest.NewRequest(http.MethodGet, "/login", nil)
	recorder := httptest.NewRecorder()
	handler.LoginPage(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "Log in") {
		t.Error("expected the login form in the response")
	}
}
