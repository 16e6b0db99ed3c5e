package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/jamdmasud/JWTAuthProviderAPI/internal/auth"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/services"
	pkghttp "github.com/jamdmasud/JWTAuthProviderAPI/pkg/http"
)

// GrantServiceInterface defines the interface for the credential grant
type GrantServiceInterface interface {
	Grant(ctx context.Context, username, password, ipAddress string) (*services.GrantResponse, error)
}

// TokenHandler serves the OAuth2 resource-owner password grant endpoint
type TokenHandler struct {
	service       GrantServiceInterface
	sessionCookie auth.SessionCookieConfig
}

// NewTokenHandler creates a new TokenHandler
func NewTokenHandler(service GrantServiceInterface, sessionCookie auth.SessionCookieConfig) *TokenHandler {
	return &TokenHandler{
		service:       service,
		sessionCookie: sessionCookie,
	}
}

// Token handles POST /oauth/token. The body is form-encoded per the
// OAuth2 password grant: grant_type=password, username, password. A
// client_id field is accepted and ignored; there is no client registry.
func (h *TokenHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		pkghttp.WriteOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	if r.PostFormValue("grant_type") != "password" {
		pkghttp.WriteOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "only the password grant is supported")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		pkghttp.WriteOAuthError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	resp, err := h.service.Grant(r.Context(), username, password, pkghttp.ExtractClientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			// One body for unknown user and wrong password.
			pkghttp.WriteOAuthError(w, http.StatusBadRequest, "invalid_grant", err.Error())
		case errors.Is(err, models.ErrAccountNotConfirmed):
			pkghttp.WriteOAuthError(w, http.StatusBadRequest, "invalid_grant", "user did not confirm email")
		case errors.Is(err, models.ErrInvalidTicket), errors.Is(err, models.ErrSigningUnavailable):
			pkghttp.WriteOAuthError(w, http.StatusInternalServerError, "server_error", "token issuance failed")
		default:
			pkghttp.WriteOAuthError(w, http.StatusInternalServerError, "server_error", "an internal error occurred")
		}
		return
	}

	if h.sessionCookie.Enabled && resp.SessionToken != "" {
		auth.SetSessionCookie(w, resp.SessionToken, resp.ExpiresAt, h.sessionCookie)
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
