package handlers

import (
	"context"
	"time"

	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/services"
)

// MockGrantService implements GrantServiceInterface for testing
type MockGrantService struct {
	GrantFunc func(ctx context.Context, username, password string) (*services.GrantResponse, error)
}

func (m *MockGrantService) Grant(ctx context.Context, username, password, ipAddress string) (*services.GrantResponse, error) {
	if m.GrantFunc != nil {
		return m.GrantFunc(ctx, username, password)
	}
	return nil, models.ErrInvalidCredentials
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.User, error)
	GetByUsernameFunc  func(ctx context.Context, username string) (*models.User, error)
	ListFunc           func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateFunc         func(ctx context.Context, username, email, password, firstName, lastName string) (*models.User, error)
	DeleteFunc         func(ctx context.Context, id string) error
	AssignRolesFunc    func(ctx context.Context, userID string, roles []string) error
	ChangePasswordFunc func(ctx context.Context, userID, oldPassword, newPassword string) error
}

func (m *MockUserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockUserService) Create(ctx context.Context, username, email, password, firstName, lastName string) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, username, email, password, firstName, lastName)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserService) AssignRoles(ctx context.Context, userID string, roles []string) error {
	if m.AssignRolesFunc != nil {
		return m.AssignRolesFunc(ctx, userID, roles)
	}
	return nil
}

func (m *MockUserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, userID, oldPassword, newPassword)
	}
	return nil
}

// MockResetService implements ResetServiceInterface for testing
type MockResetService struct {
	GenerateFunc func(ctx context.Context, userID string) error
	ConsumeFunc  func(ctx context.Context, userID, token, newPassword string) error

	GeneratedFor []string
}

func (m *MockResetService) Generate(ctx context.Context, userID string) error {
	m.GeneratedFor = append(m.GeneratedFor, userID)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, userID)
	}
	return nil
}

func (m *MockResetService) Consume(ctx context.Context, userID, token, newPassword string) error {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, userID, token, newPassword)
	}
	return nil
}

func testUser() *models.User {
	now := time.Now()
	return &models.User{
		ID:             "8f9c9a1a-8c38-4b2e-9f1e-0a2f6a1b3c4d",
		Username:       "alice",
		Email:          "alice@example.com",
		PasswordHash:   "$2a$12$irrelevantforhandlertests",
		EmailConfirmed: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
