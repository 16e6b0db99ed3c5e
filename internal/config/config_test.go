package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 32 random bytes, base64url
const testSecret = "IxrAjDoa2FqElO7IhrSrUJELhUckePEPVpaePlS_Xaw"

func setRequiredEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("TOKEN_AUDIENCE", "099153c2625149bc8ecb3e85e03f0022")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenLifetime)
	assert.Equal(t, 24*time.Hour, cfg.Auth.ResetTokenLifetime)
	assert.Len(t, cfg.Auth.SigningKey, 32)
	assert.False(t, cfg.Auth.SessionCookieEnabled)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_MissingAudience(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("TOKEN_AUDIENCE", "")

	_, err := Load()
	assert.ErrorContains(t, err, "TOKEN_AUDIENCE")
}

func TestLoad_ShortSecretInProduction(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "c2hvcnRrZXk") // "shortkey"

	_, err := Load()
	assert.ErrorContains(t, err, "at least 32 bytes")
}

func TestLoad_InvalidSecretEncoding(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "!!!not-base64url!!!")

	_, err := Load()
	assert.ErrorContains(t, err, "base64url")
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOKEN_LIFETIME", "1h")
	t.Setenv("SESSION_COOKIE_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Auth.TokenLifetime)
	assert.True(t, cfg.Auth.SessionCookieEnabled)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", Name: "jwtauth", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=jwtauth sslmode=disable", cfg.DSN())
}
