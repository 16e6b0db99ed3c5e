package auth

import (
	"context"
	"net/http"
	"strings"

	pkghttp "github.com/jamdmasud/JWTAuthProviderAPI/pkg/http"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
)

// contextKey is a custom type for context keys
type contextKey string

const identityContextKey contextKey = "identity"

// Middleware validates the Authorization bearer token and injects the
// reconstructed claim set into the request context. Every validation
// failure kind results in the same denied response.
func Middleware(tv *TokenValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			identity, err := tv.Validate(parts[1])
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the authenticated claim set stored by
// Middleware. Callers receive the identity explicitly; nothing in the
// core reads it ambiently.
func IdentityFromContext(ctx context.Context) (models.ClaimSet, bool) {
	identity, ok := ctx.Value(identityContextKey).(models.ClaimSet)
	return identity, ok
}

// RequireRole gates a route on a role claim carried in the token.
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				pkghttp.WriteUnauthorized(w, "authentication required")
				return
			}

			if !identity.HasRole(role) {
				pkghttp.WriteForbidden(w, "insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
