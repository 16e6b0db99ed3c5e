package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
)

// TokenIssuer serializes authentication tickets into signed compact
// tokens. Issuer, audience and signing key are fixed configuration;
// the key never appears in a token payload.
type TokenIssuer struct {
	issuer     string
	audience   string
	signingKey []byte
}

// NewTokenIssuer creates a new TokenIssuer
func NewTokenIssuer(issuer, audience string, signingKey []byte) *TokenIssuer {
	return &TokenIssuer{
		issuer:     issuer,
		audience:   audience,
		signingKey: signingKey,
	}
}

// Issue signs the ticket's claim set into an HS256 compact token.
// A ticket without both issued and expiry timestamps is rejected: a
// token must never be signed without an expiry.
func (ti *TokenIssuer) Issue(ticket *models.AuthenticationTicket) (string, error) {
	if ticket == nil {
		return "", models.ErrInvalidTicket
	}
	if ticket.Properties.IssuedAt.IsZero() || ticket.Properties.ExpiresAt.IsZero() {
		return "", models.ErrInvalidTicket
	}
	if len(ti.signingKey) == 0 {
		return "", models.ErrSigningUnavailable
	}

	claims := claimSetToTokenClaims(ticket.Claims)
	claims.Issuer = ti.issuer
	claims.Audience = jwt.ClaimStrings{ti.audience}
	claims.IssuedAt = jwt.NewNumericDate(ticket.Properties.IssuedAt)
	claims.ExpiresAt = jwt.NewNumericDate(ticket.Properties.ExpiresAt)
	if authType, ok := ticket.Properties.Extra["auth_type"]; ok {
		claims.AuthType = authType
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ti.signingKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrSigningUnavailable, err)
	}

	return signed, nil
}
