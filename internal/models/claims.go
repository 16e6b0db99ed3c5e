package models

import (
	"time"
)

// Claim types carried in issued tokens
const (
	ClaimTypeUserID = "sub"
	ClaimTypeName   = "name"
	ClaimTypeRole   = "role"
	ClaimTypeEmail  = "email"
)

// Authentication type labels. Bearer identities go into the compact
// token; cookie identities back the optional parallel session cookie.
const (
	AuthTypeBearer = "JWT"
	AuthTypeCookie = "Cookies"
)

// Claim is a single typed fact about an authenticated identity.
type Claim struct {
	Type  string
	Value string
}

// ClaimSet is an ordered sequence of claims. Duplicate types are
// allowed (one claim per role).
type ClaimSet []Claim

// First returns the value of the first claim with the given type.
func (cs ClaimSet) First(claimType string) string {
	for _, c := range cs {
		if c.Type == claimType {
			return c.Value
		}
	}
	return ""
}

// All returns every value carried under the given claim type.
func (cs ClaimSet) All(claimType string) []string {
	var values []string
	for _, c := range cs {
		if c.Type == claimType {
			values = append(values, c.Value)
		}
	}
	return values
}

// UserID returns the stable user identifier claim.
func (cs ClaimSet) UserID() string {
	return cs.First(ClaimTypeUserID)
}

// Username returns the name claim.
func (cs ClaimSet) Username() string {
	return cs.First(ClaimTypeName)
}

// Roles returns every role claim value.
func (cs ClaimSet) Roles() []string {
	return cs.All(ClaimTypeRole)
}

// HasRole reports whether the set carries the given role claim.
func (cs ClaimSet) HasRole(role string) bool {
	for _, c := range cs {
		if c.Type == ClaimTypeRole && c.Value == role {
			return true
		}
	}
	return false
}

// TicketProperties holds the issuance window and auxiliary grant
// metadata. Zero timestamps mean "absent" and make issuance fail.
type TicketProperties struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]string
}

// AuthenticationTicket pairs a claim set with its issuance properties.
// Built fresh per grant and consumed exactly once by the token issuer.
type AuthenticationTicket struct {
	Claims     ClaimSet
	Properties TicketProperties
}

// PasswordResetToken is the stored association between a user and a
// pending single-use reset token. Only the SHA-256 hash of the token
// is persisted; the plaintext leaves the process once, inside the
// reset email.
type PasswordResetToken struct {
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}
