package repositories

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/database"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
)

// ResetTokenRepository persists pending password reset tokens. One
// pending token per user; generating a new one replaces the previous.
type ResetTokenRepository struct {
	db *database.DB
}

func NewResetTokenRepository(db *database.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

// Store saves a pending token, replacing any earlier one for the user.
func (r *ResetTokenRepository) Store(ctx context.Context, token *models.PasswordResetToken) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO password_reset_tokens (user_id, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET token_hash = EXCLUDED.token_hash,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at
	`, token.UserID, token.TokenHash, token.CreatedAt, token.ExpiresAt)

	return database.MapPostgresError(err)
}

// Consume validates and redeems the user's pending token and updates
// the password hash as one atomic unit. The token row is locked for
// the duration of the transaction, so concurrent consumers serialize:
// exactly one succeeds, the rest observe the deleted row and fail with
// ErrResetTokenNotFound.
func (r *ResetTokenRepository) Consume(ctx context.Context, userID, tokenHash, newPasswordHash string, now time.Time) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var storedHash string
		var expiresAt time.Time

		err := tx.QueryRow(ctx, `
			SELECT token_hash, expires_at FROM password_reset_tokens
			WHERE user_id = $1
			FOR UPDATE
		`, userID).Scan(&storedHash, &expiresAt)
		if err != nil {
			if errors.Is(database.MapPostgresError(err), models.ErrNotFound) {
				return models.ErrResetTokenNotFound
			}
			return database.MapPostgresError(err)
		}

		if now.After(expiresAt) {
			// Expired tokens are removed on sight so later attempts
			// report not-found rather than expired forever.
			if _, err := tx.Exec(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, userID); err != nil {
				return database.MapPostgresError(err)
			}
			return models.ErrResetTokenExpired
		}

		if subtle.ConstantTimeCompare([]byte(storedHash), []byte(tokenHash)) != 1 {
			return models.ErrResetTokenMismatch
		}

		tag, err := tx.Exec(ctx, `
			UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2
		`, newPasswordHash, userID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrResetTokenNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, userID); err != nil {
			return database.MapPostgresError(err)
		}

		return nil
	})
}

// DeleteExpired purges tokens past their expiry window.
func (r *ResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `
		DELETE FROM password_reset_tokens WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
