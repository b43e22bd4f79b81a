package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string
	AutoMigrate  bool // apply pending migrations on server start

	// Security
	JWTSecret           string
	JWTExpiry           time.Duration
	LedgerWebhookSecret string // Standard Webhooks secret shared with the accounting system

	// Observability (optional)
	SentryDSN string

	// Locking. Without REDIS_URL goal locks are process-local.
	RedisURL       string
	LockExpiry     time.Duration
	LockTries      int
	LockRetryDelay time.Duration

	// Engine
	BaselineDefault      decimal.Decimal // expense baseline when an account has no history
	BaselineWindowMonths int

	// Storage for audit reports (optional, S3-compatible)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
	AuditPrefix string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "goalflow"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/goalflow.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),
		AutoMigrate:  envBool("AUTO_MIGRATE", true),

		// Security
		JWTSecret:           envRequired("JWT_SECRET"),
		JWTExpiry:           envDuration("JWT_EXPIRY", 24*time.Hour),
		LedgerWebhookSecret: envString("LEDGER_WEBHOOK_SECRET", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Locking
		RedisURL:       envString("REDIS_URL", ""),
		LockExpiry:     envDuration("LOCK_EXPIRY", 10*time.Second),
		LockTries:      envInt("LOCK_TRIES", 32),
		LockRetryDelay: envDuration("LOCK_RETRY_DELAY", 100*time.Millisecond),

		// Engine
		BaselineDefault:      envDecimal("BASELINE_DEFAULT", decimal.NewFromInt(100)),
		BaselineWindowMonths: envInt("BASELINE_WINDOW_MONTHS", 3),

		// Storage (audit uploads are skipped when S3_BUCKET is empty)
		S3Region:    envString("S3_REGION", "us-east-1"),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""), // Optional: for non-AWS providers
		AuditPrefix: envString("AUDIT_PREFIX", "audits"),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures the services a multi-instance deployment relies on are configured.
func validateProduction(cfg *Config) {
	if cfg.LedgerWebhookSecret == "" {
		slog.Error("production deployment requires LEDGER_WEBHOOK_SECRET",
			"hint", "set APP_ENV=development to accept unsigned ledger webhooks locally")
		os.Exit(1)
	}
	if cfg.RedisURL == "" {
		slog.Warn("REDIS_URL not set, goal locks only hold within this process")
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envDecimal(key string, def decimal.Decimal) decimal.Decimal {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		slog.Warn("config invalid amount, using default", "key", key, "value", v, "default", def.String())
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// StorageEnabled reports whether audit reports can be uploaded.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

// LogValue logs only public/safe fields. Secrets and credentials are excluded.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("app_name", c.AppName),
		slog.String("app_env", c.AppEnv),
		slog.String("port", c.Port),
		slog.String("db_driver", c.DBDriver),
		slog.Bool("redis", c.RedisURL != ""),
		slog.Duration("lock_expiry", c.LockExpiry),
		slog.String("baseline_default", c.BaselineDefault.String()),
		slog.Int("baseline_window_months", c.BaselineWindowMonths),
		slog.Bool("storage", c.StorageEnabled()),
		slog.Bool("webhook_signed", c.LedgerWebhookSecret != ""),
	)
}
