package auth

import (
	"testing"

	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
	"github.com/stretchr/testify/assert"
)

func testUser() *models.User {
	return &models.User{
		ID:             "2f1c9a6e-7b1d-4f42-9f5c-0a3d8f1e2b4c",
		Username:       "alice",
		Email:          "alice@example.com",
		EmailConfirmed: true,
	}
}

func TestBuildClaims_MinimumClaims(t *testing.T) {
	user := testUser()

	claims := BuildClaims(user, []string{"Admin"}, models.AuthTypeBearer)

	assert.Equal(t, user.ID, claims.UserID())
	assert.Equal(t, "alice", claims.Username())
	assert.Equal(t, []string{"Admin"}, claims.Roles())
	assert.Equal(t, "alice@example.com", claims.First(models.ClaimTypeEmail))
}

func TestBuildClaims_Deterministic(t *testing.T) {
	user := testUser()

	a := BuildClaims(user, []string{"User", "Admin"}, models.AuthTypeBearer)
	b := BuildClaims(user, []string{"Admin", "User"}, models.AuthTypeBearer)

	// Role order from the store must not change the result.
	assert.Equal(t, a, b)
	assert.Equal(t, []string{"Admin", "User"}, a.Roles())
}

func TestBuildClaims_MultipleRoleClaims(t *testing.T) {
	claims := BuildClaims(testUser(), []string{"Admin", "User"}, models.AuthTypeBearer)

	assert.True(t, claims.HasRole("Admin"))
	assert.True(t, claims.HasRole("User"))
	assert.False(t, claims.HasRole("SuperAdmin"))
}

func TestBuildClaims_CookieIdentityOmitsEmail(t *testing.T) {
	claims := BuildClaims(testUser(), []string{"Admin"}, models.AuthTypeCookie)

	assert.Equal(t, "alice", claims.Username())
	assert.Empty(t, claims.First(models.ClaimTypeEmail))
}

func TestBuildClaims_NoRoles(t *testing.T) {
	claims := BuildClaims(testUser(), nil, models.AuthTypeBearer)

	assert.Empty(t, claims.Roles())
	assert.Equal(t, "alice", claims.Username())
}
