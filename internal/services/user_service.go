package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
	pkgauth "github.com/jamdmasud/JWTAuthProviderAPI/pkg/auth"
	pkglogger "github.com/jamdmasud/JWTAuthProviderAPI/pkg/logger"
)

// UserService handles user account business logic. This is thin glue
// over the user store; the correctness-critical paths live in the
// grant and reset services.
type UserService struct {
	repo   UserRepository
	logger *slog.Logger
	audit  *pkglogger.AuditLogger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, logger *slog.Logger, audit *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
		audit:  audit,
	}
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}

// GetByUsername retrieves a user by username
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user by username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}

// List retrieves users with pagination
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return users, nil
}

// Create registers a new account. Accounts created through this path
// are email-confirmed immediately, matching the original behavior.
func (s *UserService) Create(ctx context.Context, username, email, password, firstName, lastName string) (*models.User, error) {
	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Username:       username,
		Email:          email,
		PasswordHash:   hashedPassword,
		FirstName:      firstName,
		LastName:       lastName,
		EmailConfirmed: true,
	}

	createdUser, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAccountAction("user_created", createdUser.ID, nil)
	return createdUser, nil
}

// Delete removes a user account
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete user", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.LogAccountAction("user_deleted", id, nil)
	return nil
}

// AssignRoles replaces the user's role memberships
func (s *UserService) AssignRoles(ctx context.Context, userID string, roles []string) error {
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user for role assignment", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.ReplaceRoles(ctx, userID, roles); err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			return err
		}
		s.logger.Error("failed to replace roles", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.LogAccountAction("roles_assigned", userID, map[string]string{
		"roles": fmt.Sprintf("%v", roles),
	})
	return nil
}

// ChangePassword verifies the old password and sets a new one for an
// authenticated user.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user for password change", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, oldPassword); err != nil {
		s.audit.LogAccountAction("password_change_rejected", userID, nil)
		return models.ErrInvalidCredentials
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	newHash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		s.logger.Error("failed to update password hash", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.LogAccountAction("password_changed", userID, nil)
	return nil
}
