package auth

import (
	"net/http"
	"time"
)

const sessionCookieName = "auth_session"

// SessionCookieConfig holds settings for the optional parallel
// session-cookie identity issued alongside the bearer token. Its
// lifecycle is independent of the bearer contract.
type SessionCookieConfig struct {
	Enabled bool
	Secure  bool
	Domain  string
}

// SetSessionCookie stores the cookie-typed token in an httpOnly cookie.
func SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time, config SessionCookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.Domain,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie deletes the session cookie.
func ClearSessionCookie(w http.ResponseWriter, config SessionCookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetSessionCookie retrieves the session token from the request.
func GetSessionCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}
