package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
)

// accessTokenClaims is the JWT payload shape shared by the issuer and
// the validator. The claim set flattens to name/roles/email plus the
// registered claims; auth_type records which identity flavor the token
// carries.
type accessTokenClaims struct {
	Name     string   `json:"name,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Email    string   `json:"email,omitempty"`
	AuthType string   `json:"auth_type,omitempty"`
	jwt.RegisteredClaims
}

func claimSetToTokenClaims(cs models.ClaimSet) accessTokenClaims {
	return accessTokenClaims{
		Name:  cs.Username(),
		Roles: cs.Roles(),
		Email: cs.First(models.ClaimTypeEmail),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: cs.UserID(),
		},
	}
}

func tokenClaimsToClaimSet(tc *accessTokenClaims) models.ClaimSet {
	cs := models.ClaimSet{
		{Type: models.ClaimTypeUserID, Value: tc.Subject},
		{Type: models.ClaimTypeName, Value: tc.Name},
	}
	for _, role := range tc.Roles {
		cs = append(cs, models.Claim{Type: models.ClaimTypeRole, Value: role})
	}
	if tc.Email != "" {
		cs = append(cs, models.Claim{Type: models.ClaimTypeEmail, Value: tc.Email})
	}
	return cs
}
