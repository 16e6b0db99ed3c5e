package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
)

// TokenValidator is the inverse of TokenIssuer, run on every incoming
// request bearing a token. Checks happen in a fixed order so each
// failure maps to exactly one error kind: structure, signature,
// audience, issuer, expiry.
type TokenValidator struct {
	issuer     string
	audience   string
	signingKey []byte
	now        func() time.Time
}

// NewTokenValidator creates a new TokenValidator
func NewTokenValidator(issuer, audience string, signingKey []byte) *TokenValidator {
	return &TokenValidator{
		issuer:     issuer,
		audience:   audience,
		signingKey: signingKey,
		now:        time.Now,
	}
}

// WithClock overrides the validator's time source. Used by tests to
// pin expiry checks to a known instant.
func (tv *TokenValidator) WithClock(now func() time.Time) *TokenValidator {
	tv.now = now
	return tv
}

// Validate parses and verifies a raw compact token and reconstructs
// the claim set it carries. Claims validation is disabled in the
// parser; audience, issuer and expiry are checked here, after the
// signature, so a tampered token never reaches the claim checks.
func (tv *TokenValidator) Validate(raw string) (models.ClaimSet, error) {
	claims := &accessTokenClaims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, models.ErrBadSignature
		}
		return tv.signingKey, nil
	}, jwt.WithoutClaimsValidation())

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, models.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, models.ErrBadSignature
		case errors.Is(err, models.ErrBadSignature):
			// keyfunc rejected the signing method
			return nil, models.ErrBadSignature
		default:
			return nil, models.ErrTokenMalformed
		}
	}

	if !hasAudience(claims.Audience, tv.audience) {
		return nil, models.ErrAudienceMismatch
	}

	if claims.Issuer != tv.issuer {
		return nil, models.ErrIssuerMismatch
	}

	if claims.ExpiresAt == nil || !tv.now().Before(claims.ExpiresAt.Time) {
		return nil, models.ErrTokenExpired
	}

	return tokenClaimsToClaimSet(claims), nil
}

func hasAudience(audiences jwt.ClaimStrings, expected string) bool {
	for _, aud := range audiences {
		if aud == expected {
			return true
		}
	}
	return false
}
