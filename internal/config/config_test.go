package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 10*time.Second, cfg.LockExpiry)
	assert.Equal(t, 32, cfg.LockTries)
	assert.True(t, cfg.BaselineDefault.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 3, cfg.BaselineWindowMonths)
	assert.False(t, cfg.StorageEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("BASELINE_DEFAULT", "250.50")
	t.Setenv("BASELINE_WINDOW_MONTHS", "6")
	t.Setenv("LOCK_EXPIRY", "30s")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("S3_BUCKET", "reports")

	cfg := Load()

	assert.Equal(t, "250.5", cfg.BaselineDefault.String())
	assert.Equal(t, 6, cfg.BaselineWindowMonths)
	assert.Equal(t, 30*time.Second, cfg.LockExpiry)
	assert.False(t, cfg.AutoMigrate)
	assert.True(t, cfg.StorageEnabled())
}

func TestEnvHelpersFallBackOnInvalidValues(t *testing.T) {
	t.Setenv("TEST_INT", "many")
	t.Setenv("TEST_DURATION", "soon")
	t.Setenv("TEST_BOOL", "maybe")
	t.Setenv("TEST_DECIMAL", "-5")

	assert.Equal(t, 7, envInt("TEST_INT", 7))
	assert.Equal(t, time.Minute, envDuration("TEST_DURATION", time.Minute))
	assert.True(t, envBool("TEST_BOOL", true))
	assert.True(t, envDecimal("TEST_DECIMAL", decimal.NewFromInt(100)).Equal(decimal.NewFromInt(100)))
}

func TestEnvStringEmptyUsesDefault(t *testing.T) {
	t.Setenv("TEST_STRING", "")
	assert.Equal(t, "fallback", envString("TEST_STRING", "fallback"))
}

func TestLogValueOmitsSecrets(t *testing.T) {
	cfg := &Config{
		AppName:             "goalflow",
		AppEnv:              "production",
		JWTSecret:           "super-secret",
		LedgerWebhookSecret: "whsec_abc",
		S3SecretKey:         "s3-secret",
		RedisURL:            "redis://:password@localhost:6379/0",
		BaselineDefault:     decimal.NewFromInt(100),
	}

	value := cfg.LogValue()
	require.Equal(t, slog.KindGroup, value.Kind())

	rendered := value.String()
	assert.NotContains(t, rendered, "super-secret")
	assert.NotContains(t, rendered, "whsec_abc")
	assert.NotContains(t, rendered, "s3-secret")
	assert.NotContains(t, rendered, "password")
	assert.Contains(t, rendered, "goalflow")
}
