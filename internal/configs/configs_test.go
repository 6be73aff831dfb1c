package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv fills in the variables LoadConfig insists on regardless of
// environment.
func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("S3_BUCKET_NAME", "test-bucket")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("S3_ACCESS_KEY_ID", "test-key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "test-secret")
}

func TestLoadConfigDevelopmentDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("PORT", "")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "haven_session", cfg.SessionCookieName)
	assert.NotEmpty(t, cfg.SessionSecret)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.NotEmpty(t, cfg.DatabaseDSN)
	assert.Zero(t, cfg.MatchTick, "cadence overrides default to zero, meaning package defaults")
}

func TestLoadConfigProductionRequiresSecrets(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("DATABASE_URL", "postgres://app@db/havenchat")

	_, err := LoadConfig()
	assert.Error(t, err, "production must not fall back to the insecure default secret")

	t.Setenv("SESSION_SECRET", "real-secret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "real-secret", cfg.SessionSecret)
}

func TestLoadConfigParsesOriginsAndCadence(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")
	t.Setenv("MATCH_TICK_MS", "25")
	t.Setenv("REBALANCE_TICK_MS", "1000")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 25*time.Millisecond, cfg.MatchTick)
	assert.Equal(t, time.Second, cfg.RebalanceTick)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("PORT", "80")
	_, err := LoadConfig()
	assert.Error(t, err, "privileged ports are rejected")

	t.Setenv("PORT", "8080")
	t.Setenv("MATCH_TICK_MS", "-5")
	_, err = LoadConfig()
	assert.Error(t, err)
}
