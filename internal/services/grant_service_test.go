package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamdmasud/JWTAuthProviderAPI/internal/auth"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
)

const (
	testIssuer   = "http://localhost:8080"
	testAudience = "099153c2625149bc8ecb3e85e03f0022"
	testLifetime = 24 * time.Hour
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func newGrantService(repo UserRepository, sessionEnabled bool) *GrantService {
	issuer := auth.NewTokenIssuer(testIssuer, testAudience, testSigningKey)
	return NewGrantService(repo, issuer, testLifetime, sessionEnabled, newTestLogger(), newTestAudit())
}

func repoWithUser(user *models.User, roles []string) *MockUserRepository {
	return &MockUserRepository{
		FindByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			if username == user.Username {
				return user, nil
			}
			return nil, models.ErrNotFound
		},
		GetRolesFunc: func(ctx context.Context, userID string) ([]string, error) {
			return roles, nil
		},
	}
}

func TestGrant_Success(t *testing.T) {
	user := NewTestUser()
	svc := newGrantService(repoWithUser(user, []string{"Admin"}), false)

	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return issuedAt })

	resp, err := svc.Grant(context.Background(), "alice", testPassword, "203.0.113.7")
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, int64(86400), resp.ExpiresIn)
	assert.Equal(t, "alice", resp.UserName)
	assert.Equal(t, "Admin", resp.Roles)
	assert.Empty(t, resp.SessionToken)
	assert.Equal(t, issuedAt.Add(testLifetime), resp.ExpiresAt)
}

func TestGrant_TokenClaimsAndLifetime(t *testing.T) {
	user := NewTestUser()
	svc := newGrantService(repoWithUser(user, []string{"Admin", "User"}), false)

	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return issuedAt })

	resp, err := svc.Grant(context.Background(), "alice", testPassword, "203.0.113.7")
	require.NoError(t, err)

	// The token itself is authoritative: verify it round-trips through
	// the validator with the identity intact.
	validator := auth.NewTokenValidator(testIssuer, testAudience, testSigningKey).
		WithClock(func() time.Time { return issuedAt.Add(time.Minute) })

	claims, err := validator.Validate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID())
	assert.Equal(t, "alice", claims.Username())
	assert.ElementsMatch(t, []string{"Admin", "User"}, claims.Roles())

	// exp - iat must equal the configured lifetime exactly.
	parsed := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(resp.AccessToken, parsed, func(t *jwt.Token) (interface{}, error) {
		return testSigningKey, nil
	}, jwt.WithoutClaimsValidation())
	require.NoError(t, err)

	exp, err := parsed.GetExpirationTime()
	require.NoError(t, err)
	iat, err := parsed.GetIssuedAt()
	require.NoError(t, err)
	assert.Equal(t, testLifetime, exp.Sub(iat.Time))
}

func TestGrant_EnumerationResistance(t *testing.T) {
	user := NewTestUser()
	svc := newGrantService(repoWithUser(user, []string{"User"}), false)

	// Unknown username and wrong password must be indistinguishable to
	// the caller: same error value, same message.
	_, unknownErr := svc.Grant(context.Background(), "nosuchuser", "whatever", "203.0.113.7")
	_, wrongPwErr := svc.Grant(context.Background(), "alice", "not-the-password", "203.0.113.7")

	require.Error(t, unknownErr)
	require.Error(t, wrongPwErr)
	assert.ErrorIs(t, unknownErr, models.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongPwErr, models.ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongPwErr.Error())
}

func TestGrant_UnconfirmedAccount(t *testing.T) {
	user := NewTestUser()
	user.EmailConfirmed = false
	svc := newGrantService(repoWithUser(user, nil), false)

	resp, err := svc.Grant(context.Background(), "alice", testPassword, "203.0.113.7")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, models.ErrAccountNotConfirmed)
}

func TestGrant_NoRoles(t *testing.T) {
	user := NewTestUser()
	svc := newGrantService(repoWithUser(user, nil), false)

	resp, err := svc.Grant(context.Background(), "alice", testPassword, "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, "", resp.Roles)
}

func TestGrant_SessionTokenWhenEnabled(t *testing.T) {
	user := NewTestUser()
	svc := newGrantService(repoWithUser(user, []string{"User"}), true)

	resp, err := svc.Grant(context.Background(), "alice", testPassword, "203.0.113.7")
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionToken)
	assert.NotEqual(t, resp.AccessToken, resp.SessionToken)

	// The cookie identity omits the email claim.
	validator := auth.NewTokenValidator(testIssuer, testAudience, testSigningKey)
	claims, err := validator.Validate(resp.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID())
	assert.Empty(t, claims.First(models.ClaimTypeEmail))
}

func TestGrant_RepositoryFailure(t *testing.T) {
	repo := &MockUserRepository{
		FindByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return nil, assert.AnError
		},
	}
	svc := newGrantService(repo, false)

	resp, err := svc.Grant(context.Background(), "alice", testPassword, "203.0.113.7")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, models.ErrInternalServer)
}
