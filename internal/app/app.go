package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/templui/goalflow/internal/config"
	"github.com/templui/goalflow/internal/db"
	"github.com/templui/goalflow/internal/lock"
	"github.com/templui/goalflow/internal/repository"
	"github.com/templui/goalflow/internal/service"
	"github.com/templui/goalflow/internal/storage"
)

type App struct {
	Cfg                  *config.Config
	DB                   *sqlx.DB
	Redis                *redis.Client
	Store                repository.Store
	Locker               lock.Locker
	AuthService          *service.AuthService
	GoalService          *service.GoalService
	AuditService         *service.AuditService
	LedgerWebhookService *service.LedgerWebhookService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &App{
		Cfg: cfg,
		DB:  database,
	}

	// Run database migrations
	if cfg.AutoMigrate {
		err = db.RunMigrations(database.DB, cfg.DBDriver)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	a.Store = repository.NewStore(database)

	// Goal locks
	a.Locker, err = a.newLocker(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	// Storage
	auditStorage, err := storage.New(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Services
	baseline := service.NewBaselineEstimator(a.Store.Repos().Ledger, cfg.BaselineDefault, cfg.BaselineWindowMonths)
	calculator := service.NewContributionCalculator(baseline)

	a.GoalService = service.NewGoalService(a.Store, a.Locker, calculator)
	a.AuditService = service.NewAuditService(a.GoalService, auditStorage, cfg.AuditPrefix)
	a.LedgerWebhookService = service.NewLedgerWebhookService(a.GoalService, cfg.LedgerWebhookSecret)
	a.AuthService = service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry)

	return a, nil
}

// newLocker uses Redis when configured so every instance shares goal locks,
// and falls back to an in-process lock otherwise.
func (a *App) newLocker(ctx context.Context) (lock.Locker, error) {
	if a.Cfg.RedisURL == "" {
		slog.Info("goal locks are process-local, set REDIS_URL to share them")
		return lock.NewLocal(), nil
	}

	opts, err := redis.ParseURL(a.Cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.Redis = client

	slog.Info("goal locks use redis", "addr", opts.Addr)
	return lock.NewRedis(client, lock.RedisOptions{
		Expiry:     a.Cfg.LockExpiry,
		Tries:      a.Cfg.LockTries,
		RetryDelay: a.Cfg.LockRetryDelay,
	}), nil
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
