package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
	pkgauth "github.com/jamdmasud/JWTAuthProviderAPI/pkg/auth"
)

const resetWindow = 24 * time.Hour

func newResetFixture(user *models.User) (*PasswordResetService, *MockResetTokenRepository, *MockEmailService) {
	users := &MockUserRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			if user != nil && id == user.ID {
				return user, nil
			}
			return nil, models.ErrNotFound
		},
	}
	tokens := NewMockResetTokenRepository()
	email := &MockEmailService{}
	svc := NewPasswordResetService(users, tokens, email, resetWindow, newTestLogger(), newTestAudit())
	return svc, tokens, email
}

func TestResetGenerate_StoresHashNotPlaintext(t *testing.T) {
	user := NewTestUser()
	svc, tokens, email := newResetFixture(user)

	err := svc.Generate(context.Background(), user.ID)
	require.NoError(t, err)

	require.Len(t, email.SentTo, 1)
	assert.Equal(t, user.Email, email.SentTo[0])
	require.NotEmpty(t, email.SentToken)

	stored, ok := tokens.StoredToken(user.ID)
	require.True(t, ok)
	assert.NotEqual(t, email.SentToken, stored.TokenHash)

	sum := sha256.Sum256([]byte(email.SentToken))
	assert.Equal(t, hex.EncodeToString(sum[:]), stored.TokenHash)
	assert.Equal(t, stored.CreatedAt.Add(resetWindow), stored.ExpiresAt)
}

func TestResetGenerate_UnknownUser(t *testing.T) {
	svc, _, email := newResetFixture(nil)

	err := svc.Generate(context.Background(), "missing-user")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, email.SentTo)
}

func TestResetGenerate_ReplacesPendingToken(t *testing.T) {
	user := NewTestUser()
	svc, tokens, email := newResetFixture(user)

	require.NoError(t, svc.Generate(context.Background(), user.ID))
	firstToken := email.SentToken
	require.NoError(t, svc.Generate(context.Background(), user.ID))

	assert.NotEqual(t, firstToken, email.SentToken)

	// Only the latest token redeems; the replaced one no longer matches.
	err := svc.Consume(context.Background(), user.ID, firstToken, "NewPassword1")
	assert.ErrorIs(t, err, models.ErrResetTokenMismatch)

	_, ok := tokens.StoredToken(user.ID)
	assert.True(t, ok)
}

func TestResetConsume_Success(t *testing.T) {
	user := NewTestUser()
	svc, tokens, email := newResetFixture(user)

	require.NoError(t, svc.Generate(context.Background(), user.ID))

	err := svc.Consume(context.Background(), user.ID, email.SentToken, "NewPassword1")
	require.NoError(t, err)

	newHash, ok := tokens.PasswordHash(user.ID)
	require.True(t, ok)
	assert.NoError(t, pkgauth.ComparePassword(newHash, "NewPassword1"))

	_, pending := tokens.StoredToken(user.ID)
	assert.False(t, pending)
}

func TestResetConsume_SingleUse(t *testing.T) {
	user := NewTestUser()
	svc, _, email := newResetFixture(user)

	require.NoError(t, svc.Generate(context.Background(), user.ID))
	token := email.SentToken

	require.NoError(t, svc.Consume(context.Background(), user.ID, token, "NewPassword1"))

	err := svc.Consume(context.Background(), user.ID, token, "NewPassword2")
	assert.ErrorIs(t, err, models.ErrResetTokenNotFound)
}

func TestResetConsume_ConcurrentOneSuccess(t *testing.T) {
	user := NewTestUser()
	svc, _, email := newResetFixture(user)

	require.NoError(t, svc.Generate(context.Background(), user.ID))
	token := email.SentToken

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Consume(context.Background(), user.ID, token, "NewPassword1")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, models.ErrResetTokenNotFound)
		}
	}
	assert.Equal(t, 1, successes)
}

func TestResetConsume_Expired(t *testing.T) {
	user := NewTestUser()
	svc, tokens, email := newResetFixture(user)

	require.NoError(t, svc.Generate(context.Background(), user.ID))

	svc.WithClock(func() time.Time { return time.Now().Add(resetWindow + time.Minute) })

	err := svc.Consume(context.Background(), user.ID, email.SentToken, "NewPassword1")
	assert.ErrorIs(t, err, models.ErrResetTokenExpired)

	// The expired row is gone; a retry reports not-found.
	err = svc.Consume(context.Background(), user.ID, email.SentToken, "NewPassword1")
	assert.ErrorIs(t, err, models.ErrResetTokenNotFound)

	_, pending := tokens.StoredToken(user.ID)
	assert.False(t, pending)
}

func TestResetConsume_WrongToken(t *testing.T) {
	user := NewTestUser()
	svc, _, _ := newResetFixture(user)

	require.NoError(t, svc.Generate(context.Background(), user.ID))

	err := svc.Consume(context.Background(), user.ID, "not-the-token", "NewPassword1")
	assert.ErrorIs(t, err, models.ErrResetTokenMismatch)
}

func TestResetConsume_WeakPasswordRejectedBeforeRedemption(t *testing.T) {
	user := NewTestUser()
	svc, tokens, email := newResetFixture(user)

	require.NoError(t, svc.Generate(context.Background(), user.ID))

	err := svc.Consume(context.Background(), user.ID, email.SentToken, "short")
	require.Error(t, err)

	var validationErr *pkgauth.PasswordValidationError
	assert.ErrorAs(t, err, &validationErr)

	// The token survives a rejected password so the user can retry.
	_, pending := tokens.StoredToken(user.ID)
	assert.True(t, pending)
}

func TestPurgeExpired(t *testing.T) {
	user := NewTestUser()
	svc, tokens, _ := newResetFixture(user)

	require.NoError(t, svc.Generate(context.Background(), user.ID))

	svc.WithClock(func() time.Time { return time.Now().Add(resetWindow + time.Minute) })

	deleted, err := svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, pending := tokens.StoredToken(user.ID)
	assert.False(t, pending)
}
