package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamdmasud/JWTAuthProviderAPI/internal/auth"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/services"
)

func postToken(t *testing.T, handler *TokenHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.Token(rec, req)
	return rec
}

func passwordGrantForm(username, password string) url.Values {
	return url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}
}

func TestToken_Success(t *testing.T) {
	grant := &MockGrantService{
		GrantFunc: func(ctx context.Context, username, password string) (*services.GrantResponse, error) {
			return &services.GrantResponse{
				AccessToken: "signed-token",
				TokenType:   "bearer",
				ExpiresIn:   86400,
				UserName:    username,
				Roles:       "Admin",
			}, nil
		},
	}
	handler := NewTokenHandler(grant, auth.SessionCookieConfig{})

	rec := postToken(t, handler, passwordGrantForm("alice", "Sup3rSecret"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "signed-token", body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, float64(86400), body["expires_in"])
	assert.Equal(t, "alice", body["userName"])
	assert.Equal(t, "Admin", body["roles"])
}

func TestToken_ClientIDIgnored(t *testing.T) {
	grant := &MockGrantService{
		GrantFunc: func(ctx context.Context, username, password string) (*services.GrantResponse, error) {
			return &services.GrantResponse{AccessToken: "signed-token", TokenType: "bearer"}, nil
		},
	}
	handler := NewTokenHandler(grant, auth.SessionCookieConfig{})

	form := passwordGrantForm("alice", "Sup3rSecret")
	form.Set("client_id", "some-registered-client")

	rec := postToken(t, handler, form)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestToken_UnsupportedGrantType(t *testing.T) {
	handler := NewTokenHandler(&MockGrantService{}, auth.SessionCookieConfig{})

	form := url.Values{"grant_type": {"client_credentials"}}
	rec := postToken(t, handler, form)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported_grant_type")
}

func TestToken_MissingCredentials(t *testing.T) {
	handler := NewTokenHandler(&MockGrantService{}, auth.SessionCookieConfig{})

	rec := postToken(t, handler, url.Values{"grant_type": {"password"}, "username": {"alice"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func TestToken_InvalidCredentialsBodyIsUniform(t *testing.T) {
	grant := &MockGrantService{
		GrantFunc: func(ctx context.Context, username, password string) (*services.GrantResponse, error) {
			return nil, models.ErrInvalidCredentials
		},
	}
	handler := NewTokenHandler(grant, auth.SessionCookieConfig{})

	// Unknown user and wrong password both reach the handler as the
	// same error; the response bodies must be byte-identical.
	unknownUser := postToken(t, handler, passwordGrantForm("nosuchuser", "x"))
	wrongPassword := postToken(t, handler, passwordGrantForm("alice", "wrongpw"))

	assert.Equal(t, http.StatusBadRequest, unknownUser.Code)
	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, unknownUser.Body.String(), wrongPassword.Body.String())
	assert.Contains(t, unknownUser.Body.String(), "invalid_grant")
}

func TestToken_UnconfirmedEmail(t *testing.T) {
	grant := &MockGrantService{
		GrantFunc: func(ctx context.Context, username, password string) (*services.GrantResponse, error) {
			return nil, models.ErrAccountNotConfirmed
		},
	}
	handler := NewTokenHandler(grant, auth.SessionCookieConfig{})

	rec := postToken(t, handler, passwordGrantForm("alice", "Sup3rSecret"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_grant")
	assert.Contains(t, rec.Body.String(), "confirm")
}

func TestToken_IssuanceFailureIsServerError(t *testing.T) {
	for _, issueErr := range []error{models.ErrSigningUnavailable, models.ErrInvalidTicket} {
		grant := &MockGrantService{
			GrantFunc: func(ctx context.Context, username, password string) (*services.GrantResponse, error) {
				return nil, issueErr
			},
		}
		handler := NewTokenHandler(grant, auth.SessionCookieConfig{})

		rec := postToken(t, handler, passwordGrantForm("alice", "Sup3rSecret"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "server_error")
	}
}

func TestToken_SessionCookie(t *testing.T) {
	expiresAt := time.Now().Add(24 * time.Hour)
	grant := &MockGrantService{
		GrantFunc: func(ctx context.Context, username, password string) (*services.GrantResponse, error) {
			return &services.GrantResponse{
				AccessToken:  "signed-token",
				TokenType:    "bearer",
				SessionToken: "cookie-token",
				ExpiresAt:    expiresAt,
			}, nil
		},
	}
	handler := NewTokenHandler(grant, auth.SessionCookieConfig{Enabled: true})

	rec := postToken(t, handler, passwordGrantForm("alice", "Sup3rSecret"))

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "cookie-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	// The session token never appears in the JSON body.
	assert.NotContains(t, rec.Body.String(), "cookie-token")
}
