// Package identity wraps the external auth provider. Accounts, credentials and
// email verification live entirely at the provider; this client only exchanges
// credentials for a verified identity and mirrors the provider's side channels
// (signup, verification resend, session revocation).
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"mealhq/internal/config"
)

var (
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Identity is the read-only cached copy of what the provider knows about a
// signed-in account.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

type Provider interface {
	SignIn(ctx context.Context, email string, password string) (Identity, error)
	SignUp(ctx context.Context, email string, password string, name string, phone string) (string, error)
	ResendVerification(ctx context.Context, email string) error
	SignOut(ctx context.Context, subject string) error
}

type Client struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	signupURL   string
	resendURL   string
	revokeURL   string
	httpClient  *http.Client
}

func NewClient(ctx context.Context, cfg config.Config) (*Client, error) {
	if cfg.AuthIssuer == "" {
		return nil, errors.New("AUTH_ISSUER is required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.AuthIssuer)
	if err != nil {
		return nil, fmt.Errorf("discovering auth provider: %w", err)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.AuthClientID,
		ClientSecret: cfg.AuthClientSecret,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &Client{
		oauthConfig: oauthConfig,
		verifier:    provider.Verifier(&oidc.Config{ClientID: cfg.AuthClientID}),
		signupURL:   cfg.AuthSignupURL,
		resendURL:   cfg.AuthResendURL,
		revokeURL:   cfg.AuthRevokeURL,
		httpClient:  http.DefaultClient,
	}, nil
}

func (client *Client) SignIn(ctx context.Context, email string, password string) (Identity, error) {
	token, err := client.oauthConfig.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return Identity{}, mapTokenError(err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return Identity{}, errors.New("no id_token in token response")
	}

	idToken, err := client.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Identity{}, fmt.Errorf("verifying id token: %w", err)
	}

	var claims struct {
		Subject           string `json:"sub"`
		Email             string `json:"email"`
		EmailVerified     bool   `json:"email_verified"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("parsing claims: %w", err)
	}

	if !claims.EmailVerified {
		return Identity{}, ErrEmailNotVerified
	}

	return Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    displayName(claims.Name, claims.PreferredUsername, claims.Email),
	}, nil
}

func (client *Client) SignUp(ctx context.Context, email string, password string, name string, phone string) (string, error) {
	if client.signupURL == "" {
		return "", errors.New("AUTH_SIGNUP_URL not configured")
	}

	var response struct {
		Subject string `json:"subject"`
	}
	err := client.postJSON(ctx, client.signupURL, map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
		"phone":    phone,
	}, &response)
	if err != nil {
		return "", fmt.Errorf("creating credential: %w", err)
	}
	if response.Subject == "" {
		return "", errors.New("provider returned no subject")
	}
	return response.Subject, nil
}

func (client *Client) ResendVerification(ctx context.Context, email string) error {
	if client.resendURL == "" {
		return errors.New("AUTH_RESEND_URL not configured")
	}
	if err := client.postJSON(ctx, client.resendURL, map[string]string{"email": email}, nil); err != nil {
		return fmt.Errorf("resending verification: %w", err)
	}
	return nil
}

func (client *Client) SignOut(ctx context.Context, subject string) error {
	if client.revokeURL == "" {
		return nil
	}
	if err := client.postJSON(ctx, client.revokeURL, map[string]string{"subject": subject}, nil); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

func (client *Client) postJSON(ctx context.Context, url string, payload any, response any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&failure)
		if failure.Error != "" {
			return fmt.Errorf("provider returned %d: %s", resp.StatusCode, failure.Error)
		}
		return fmt.Errorf("provider returned %d", resp.StatusCode)
	}

	if response != nil {
		if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// mapTokenError distinguishes the unverified-email rejection from a plain bad
// password so callers can trigger the verification resend.
func mapTokenError(err error) error {
	var retrieveError *oauth2.RetrieveError
	if !errors.As(err, &retrieveError) {
		return fmt.Errorf("exchanging credentials: %w", err)
	}

	description := strings.ToLower(retrieveError.ErrorDescription + " " + string(retrieveError.Body))
	if strings.Contains(description, "not verified") ||
		strings.Contains(description, "not confirmed") ||
		strings.Contains(description, "unverified") {
		return ErrEmailNotVerified
	}
	if retrieveError.ErrorCode == "invalid_grant" {
		return ErrInvalidCredentials
	}
	return fmt.Errorf("exchanging credentials: %w", err)
}

func displayName(name string, preferredUsername string, email string) string {
	if name != "" {
		return name
	}
	if preferredUsername != "" {
		return preferredUsername
	}
	return email
}
