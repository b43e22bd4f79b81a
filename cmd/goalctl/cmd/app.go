package cmd

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/templui/goalflow/internal/app"
	"github.com/templui/goalflow/internal/config"
	"github.com/templui/goalflow/internal/logger"
)

// loadConfig reads the same environment as the server and sets up logging.
func loadConfig() (*config.Config, func()) {
	cfg := config.Load()
	flush := logger.Init(logger.Options{
		Development: cfg.IsDevelopment(),
		SentryDSN:   cfg.SentryDSN,
		Service:     "goalctl",
		Environment: cfg.AppEnv,
	})
	return cfg, flush
}

// withApp runs fn against a fully wired app and closes it afterwards.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, flush := loadConfig()
	defer flush()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := a.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}()

	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
