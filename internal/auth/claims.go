package auth

import (
	"sort"

	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
)

// BuildClaims derives the claim set for an authenticated user. It is a
// pure transformation: identical user state always yields an identical,
// stably ordered claim set. The authType label distinguishes bearer
// identities from the optional cookie-session identity.
func BuildClaims(user *models.User, roles []string, authType string) models.ClaimSet {
	claims := models.ClaimSet{
		{Type: models.ClaimTypeUserID, Value: user.ID},
		{Type: models.ClaimTypeName, Value: user.Username},
	}

	// Roles are sorted so the set is deterministic regardless of how
	// the store returned them.
	sorted := make([]string, len(roles))
	copy(sorted, roles)
	sort.Strings(sorted)

	for _, role := range sorted {
		claims = append(claims, models.Claim{Type: models.ClaimTypeRole, Value: role})
	}

	// Cookie-session identities stay lean; the bearer identity carries
	// the email as a custom claim.
	if authType == models.AuthTypeBearer && user.Email != "" {
		claims = append(claims, models.Claim{Type: models.ClaimTypeEmail, Value: user.Email})
	}

	return claims
}
