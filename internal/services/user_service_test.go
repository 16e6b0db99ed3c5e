package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
	pkgauth "github.com/jamdmasud/JWTAuthProviderAPI/pkg/auth"
)

func newUserService(repo UserRepository) *UserService {
	return NewUserService(repo, newTestLogger(), newTestAudit())
}

func TestUserCreate_HashesPassword(t *testing.T) {
	var created *models.User
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			created = user
			user.ID = "generated-id"
			return user, nil
		},
	}
	svc := newUserService(repo)

	user, err := svc.Create(context.Background(), "bob", "bob@example.com", "Sup3rSecret", "Bob", "Builder")
	require.NoError(t, err)

	assert.Equal(t, "generated-id", user.ID)
	assert.True(t, user.EmailConfirmed)
	require.NotNil(t, created)
	assert.NotEqual(t, "Sup3rSecret", created.PasswordHash)
	assert.NoError(t, pkgauth.ComparePassword(created.PasswordHash, "Sup3rSecret"))
}

func TestUserCreate_WeakPassword(t *testing.T) {
	svc := newUserService(&MockUserRepository{})

	_, err := svc.Create(context.Background(), "bob", "bob@example.com", "weak", "Bob", "Builder")
	require.Error(t, err)

	var validationErr *pkgauth.PasswordValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, models.ErrConflict
		},
	}
	svc := newUserService(repo)

	_, err := svc.Create(context.Background(), "alice", "alice@example.com", "Sup3rSecret", "", "")
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestChangePassword_Success(t *testing.T) {
	user := NewTestUser()
	var updatedHash string
	repo := &MockUserRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		UpdatePasswordHashFunc: func(ctx context.Context, userID, newHash string) error {
			updatedHash = newHash
			return nil
		},
	}
	svc := newUserService(repo)

	err := svc.ChangePassword(context.Background(), user.ID, testPassword, "NewPassword1")
	require.NoError(t, err)
	assert.NoError(t, pkgauth.ComparePassword(updatedHash, "NewPassword1"))
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	user := NewTestUser()
	repo := &MockUserRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		UpdatePasswordHashFunc: func(ctx context.Context, userID, newHash string) error {
			t.Fatal("password must not change when the old password is wrong")
			return nil
		},
	}
	svc := newUserService(repo)

	err := svc.ChangePassword(context.Background(), user.ID, "not-the-password", "NewPassword1")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestAssignRoles_UnknownRole(t *testing.T) {
	user := NewTestUser()
	repo := &MockUserRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		ReplaceRolesFunc: func(ctx context.Context, userID string, roles []string) error {
			return models.ErrBadRequest
		},
	}
	svc := newUserService(repo)

	err := svc.AssignRoles(context.Background(), user.ID, []string{"NoSuchRole"})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestDelete_NotFound(t *testing.T) {
	repo := &MockUserRepository{
		DeleteFunc: func(ctx context.Context, id string) error {
			return models.ErrNotFound
		},
	}
	svc := newUserService(repo)

	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
