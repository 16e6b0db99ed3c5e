package services

import (
	"context"
	"crypto/subtle"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
	pkgauth "github.com/jamdmasud/JWTAuthProviderAPI/pkg/auth"
	pkglogger "github.com/jamdmasud/JWTAuthProviderAPI/pkg/logger"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	FindByIDFunc           func(ctx context.Context, id string) (*models.User, error)
	FindByUsernameFunc     func(ctx context.Context, username string) (*models.User, error)
	ListFunc               func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateFunc             func(ctx context.Context, user *models.User) (*models.User, error)
	DeleteFunc             func(ctx context.Context, id string) error
	GetRolesFunc           func(ctx context.Context, userID string) ([]string, error)
	ReplaceRolesFunc       func(ctx context.Context, userID string, roles []string) error
	UpdatePasswordHashFunc func(ctx context.Context, userID, newHash string) error
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.FindByUsernameFunc != nil {
		return m.FindByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return user, nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) GetRoles(ctx context.Context, userID string) ([]string, error) {
	if m.GetRolesFunc != nil {
		return m.GetRolesFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockUserRepository) ReplaceRoles(ctx context.Context, userID string, roles []string) error {
	if m.ReplaceRolesFunc != nil {
		return m.ReplaceRolesFunc(ctx, userID, roles)
	}
	return nil
}

func (m *MockUserRepository) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	if m.UpdatePasswordHashFunc != nil {
		return m.UpdatePasswordHashFunc(ctx, userID, newHash)
	}
	return nil
}

// MockResetTokenRepository is an in-memory ResetTokenRepository. Its
// Consume holds a mutex for the whole check-and-delete, mirroring the
// row lock the real store takes, so concurrency tests exercise the
// same exactly-one-success behavior.
type MockResetTokenRepository struct {
	mu        sync.Mutex
	tokens    map[string]*models.PasswordResetToken
	passwords map[string]string

	StoreErr   error
	ConsumeErr error
}

func NewMockResetTokenRepository() *MockResetTokenRepository {
	return &MockResetTokenRepository{
		tokens:    make(map[string]*models.PasswordResetToken),
		passwords: make(map[string]string),
	}
}

func (m *MockResetTokenRepository) Store(ctx context.Context, token *models.PasswordResetToken) error {
	if m.StoreErr != nil {
		return m.StoreErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.UserID] = token
	return nil
}

func (m *MockResetTokenRepository) Consume(ctx context.Context, userID, tokenHash, newPasswordHash string, now time.Time) error {
	if m.ConsumeErr != nil {
		return m.ConsumeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.tokens[userID]
	if !ok {
		return models.ErrResetTokenNotFound
	}
	if now.After(stored.ExpiresAt) {
		delete(m.tokens, userID)
		return models.ErrResetTokenExpired
	}
	if subtle.ConstantTimeCompare([]byte(stored.TokenHash), []byte(tokenHash)) != 1 {
		return models.ErrResetTokenMismatch
	}

	m.passwords[userID] = newPasswordHash
	delete(m.tokens, userID)
	return nil
}

func (m *MockResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for userID, token := range m.tokens {
		if now.After(token.ExpiresAt) {
			delete(m.tokens, userID)
			deleted++
		}
	}
	return deleted, nil
}

// StoredToken returns the pending token for a user, if any.
func (m *MockResetTokenRepository) StoredToken(userID string) (*models.PasswordResetToken, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[userID]
	return token, ok
}

// PasswordHash returns the hash written by a successful Consume.
func (m *MockResetTokenRepository) PasswordHash(userID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hash, ok := m.passwords[userID]
	return hash, ok
}

// MockEmailService captures sent reset emails instead of delivering them
type MockEmailService struct {
	mu        sync.Mutex
	SentTo    []string
	SentToken string
	SendErr   error
}

func (m *MockEmailService) SendPasswordResetEmail(ctx context.Context, email, userID, token string, expiresAt time.Time) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentTo = append(m.SentTo, email)
	m.SentToken = token
	return nil
}

var (
	testHashOnce     sync.Once
	testPasswordHash string
)

const testPassword = "Correct-Horse1"

// testUserHash returns a bcrypt hash of testPassword, computed once per
// test binary since bcrypt at the production cost is slow.
func testUserHash() string {
	testHashOnce.Do(func() {
		hash, err := pkgauth.HashPassword(testPassword)
		if err != nil {
			panic(err)
		}
		testPasswordHash = hash
	})
	return testPasswordHash
}

// NewTestUser builds a confirmed user with a known password.
func NewTestUser() *models.User {
	now := time.Now()
	return &models.User{
		ID:             uuid.New().String(),
		Username:       "alice",
		Email:          "alice@example.com",
		PasswordHash:   testUserHash(),
		FirstName:      "Alice",
		LastName:       "Anderson",
		EmailConfirmed: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAudit() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(newTestLogger())
}
