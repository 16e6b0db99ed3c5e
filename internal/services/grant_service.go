package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jamdmasud/JWTAuthProviderAPI/internal/auth"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
	pkgauth "github.com/jamdmasud/JWTAuthProviderAPI/pkg/auth"
	pkglogger "github.com/jamdmasud/JWTAuthProviderAPI/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
	GetRoles(ctx context.Context, userID string) ([]string, error)
	ReplaceRoles(ctx context.Context, userID string, roles []string) error
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
}

// GrantResponse is the successful outcome of a credential grant. The
// UserName and Roles fields mirror the original token endpoint's
// additional response parameters; they are convenience metadata only —
// the claim set inside the token is authoritative.
type GrantResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	UserName     string `json:"userName"`
	Roles        string `json:"roles"`
	SessionToken string `json:"-"`
	ExpiresAt    time.Time `json:"-"`
}

// GrantService runs the resource-owner password grant: one pass per
// request, no retries, terminal success or failure.
type GrantService struct {
	repo           UserRepository
	issuer         *auth.TokenIssuer
	tokenLifetime  time.Duration
	sessionEnabled bool
	logger         *slog.Logger
	audit          *pkglogger.AuditLogger
	now            func() time.Time
}

// NewGrantService creates a new GrantService
func NewGrantService(repo UserRepository, issuer *auth.TokenIssuer, tokenLifetime time.Duration, sessionEnabled bool, logger *slog.Logger, audit *pkglogger.AuditLogger) *GrantService {
	return &GrantService{
		repo:           repo,
		issuer:         issuer,
		tokenLifetime:  tokenLifetime,
		sessionEnabled: sessionEnabled,
		logger:         logger,
		audit:          audit,
		now:            time.Now,
	}
}

// WithClock overrides the grant clock for tests.
func (s *GrantService) WithClock(now func() time.Time) *GrantService {
	s.now = now
	return s
}

// Grant authenticates the credential pair and issues a signed bearer
// token. Unknown username and wrong password both fail with
// ErrInvalidCredentials so responses cannot be used to enumerate
// accounts; a bcrypt comparison runs on both branches to keep their
// cost similar. The ipAddress is audit metadata only.
func (s *GrantService) Grant(ctx context.Context, username, password, ipAddress string) (*GrantResponse, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			_ = pkgauth.ComparePassword(pkgauth.DummyBcryptHash, password)
			s.audit.LogGrantAttempt(pkglogger.AuditEvent{
				EventType:     "grant_failed",
				Username:      username,
				IPAddress:     ipAddress,
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to look up user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.audit.LogGrantAttempt(pkglogger.AuditEvent{
			EventType:     "grant_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		return nil, models.ErrInvalidCredentials
	}

	if !user.EmailConfirmed {
		s.audit.LogGrantAttempt(pkglogger.AuditEvent{
			EventType:     "grant_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "email_not_confirmed",
			Success:       false,
		})
		return nil, models.ErrAccountNotConfirmed
	}

	roles, err := s.repo.GetRoles(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to load roles", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	claims := auth.BuildClaims(user, roles, models.AuthTypeBearer)

	primaryRole := ""
	if len(claims.Roles()) > 0 {
		primaryRole = claims.Roles()[0]
	}

	now := s.now()
	expiresAt := now.Add(s.tokenLifetime)
	ticket := &models.AuthenticationTicket{
		Claims: claims,
		Properties: models.TicketProperties{
			IssuedAt:  now,
			ExpiresAt: expiresAt,
			Extra: map[string]string{
				"userName":  user.Username,
				"roles":     primaryRole,
				"auth_type": models.AuthTypeBearer,
			},
		},
	}

	token, err := s.issuer.Issue(ticket)
	if err != nil {
		// Issuance precondition failures are fatal for the request; an
		// unsigned or expiry-less token is never returned.
		s.logger.Error("token issuance failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, err
	}

	resp := &GrantResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokenLifetime.Seconds()),
		UserName:    user.Username,
		Roles:       primaryRole,
		ExpiresAt:   expiresAt,
	}

	if s.sessionEnabled {
		sessionToken, err := s.issueSessionToken(user, roles, now, expiresAt)
		if err != nil {
			// The cookie identity is best-effort; the bearer grant
			// already succeeded.
			s.logger.Warn("session token issuance failed", slog.String("user_id", user.ID), slog.Any("error", err))
		} else {
			resp.SessionToken = sessionToken
		}
	}

	s.audit.LogGrantAttempt(pkglogger.AuditEvent{
		EventType: "grant_issued",
		UserID:    user.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return resp, nil
}

// issueSessionToken builds the optional parallel cookie identity from
// a separate, cookie-typed claim set.
func (s *GrantService) issueSessionToken(user *models.User, roles []string, issuedAt, expiresAt time.Time) (string, error) {
	ticket := &models.AuthenticationTicket{
		Claims: auth.BuildClaims(user, roles, models.AuthTypeCookie),
		Properties: models.TicketProperties{
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
			Extra:     map[string]string{"auth_type": models.AuthTypeCookie},
		},
	}
	return s.issuer.Issue(ticket)
}
