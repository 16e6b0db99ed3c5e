package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
	pkgauth "github.com/jamdmasud/JWTAuthProviderAPI/pkg/auth"
	pkglogger "github.com/jamdmasud/JWTAuthProviderAPI/pkg/logger"
)

// ResetTokenRepository defines the interface for reset token persistence.
// Consume must redeem the token and update the password hash as one
// atomic unit.
type ResetTokenRepository interface {
	Store(ctx context.Context, token *models.PasswordResetToken) error
	Consume(ctx context.Context, userID, tokenHash, newPasswordHash string, now time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PasswordResetService manages the single-use, time-limited reset
// token lifecycle. It is unrelated to the bearer-token path except for
// sharing the user store.
type PasswordResetService struct {
	users  UserRepository
	tokens ResetTokenRepository
	email  EmailService
	window time.Duration
	logger *slog.Logger
	audit  *pkglogger.AuditLogger
	now    func() time.Time
}

// NewPasswordResetService creates a new PasswordResetService
func NewPasswordResetService(users UserRepository, tokens ResetTokenRepository, email EmailService, window time.Duration, logger *slog.Logger, audit *pkglogger.AuditLogger) *PasswordResetService {
	return &PasswordResetService{
		users:  users,
		tokens: tokens,
		email:  email,
		window: window,
		logger: logger,
		audit:  audit,
		now:    time.Now,
	}
}

// WithClock overrides the service clock for tests.
func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	s.now = now
	return s
}

// hashToken is the at-rest form of a reset token. Storing the SHA-256
// hash means a leaked table row cannot be replayed as a token.
func hashToken(plainToken string) string {
	sum := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(sum[:])
}

// Generate creates a pending reset token for the user and emails the
// reset link. The plaintext token is never stored or logged.
func (s *PasswordResetService) Generate(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to look up user for reset", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if user.Email == "" {
		return fmt.Errorf("%w: user has no email address", models.ErrBadRequest)
	}

	plainToken, err := pkgauth.GenerateResetToken()
	if err != nil {
		s.logger.Error("failed to generate reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	now := s.now()
	expiresAt := now.Add(s.window)

	err = s.tokens.Store(ctx, &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashToken(plainToken),
		CreatedAt: now,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		s.logger.Error("failed to store reset token", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.email.SendPasswordResetEmail(ctx, user.Email, user.ID, plainToken, expiresAt); err != nil {
		s.logger.Error("failed to send reset email", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.LogPasswordReset("reset_token_generated", user.ID, true)
	return nil
}

// Consume redeems a reset token and sets the new password. The token
// transitions to permanently invalid on first successful redemption;
// the repository makes the check-and-update atomic, so concurrent
// consumers yield exactly one success.
func (s *PasswordResetService) Consume(ctx context.Context, userID, token, newPassword string) error {
	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	newHash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	err = s.tokens.Consume(ctx, userID, hashToken(token), newHash, s.now())
	if err != nil {
		switch {
		case errors.Is(err, models.ErrResetTokenNotFound),
			errors.Is(err, models.ErrResetTokenExpired),
			errors.Is(err, models.ErrResetTokenMismatch):
			s.audit.LogPasswordReset("reset_token_rejected", userID, false)
			return err
		default:
			s.logger.Error("failed to consume reset token", slog.String("user_id", userID), slog.Any("error", err))
			return models.ErrInternalServer
		}
	}

	s.audit.LogPasswordReset("password_reset", userID, true)
	return nil
}

// PurgeExpired removes tokens past their window; run periodically by
// the background cleanup task.
func (s *PasswordResetService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now())
}
