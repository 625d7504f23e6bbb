// Command printdeskctl runs maintenance tasks against the configured store:
// backups, restores, clearing data and triggering background jobs.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/printdesk/printdesk/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt := &runtime{stdout: os.Stdout, open: openFromEnv}
	if err := newApp(rt).RunContext(ctx, os.Args); err != nil {
		slog.Default().Error("printdeskctl", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func openFromEnv(ctx context.Context) (*app.Config, *app.Services, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	services, err := app.Wire(ctx, cfg, app.NewLogger(cfg), nil)
	if err != nil {
		return nil, nil, err
	}
	return cfg, services, nil
}
