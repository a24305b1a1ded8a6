package app

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"cn-data/internal/backfill"
	"cn-data/internal/progress"
	"cn-data/internal/slogx"
)

// Daemon bundles the long-lived collaborators built by the injector.
type Daemon struct {
	Config    *Config
	Tracker   *progress.Tracker
	Scheduler *backfill.Scheduler
}

// Run installs signal handling and drives the scheduler until a termination
// signal cancels the context. Cancellation is cooperative: in-flight fetches
// finish and their writes stand, no new work starts.
func (d *Daemon) Run() error {
	slog.SetDefault(slogx.NewDefault(d.Config.LogLevel))
	slog.Info("daemon starting", "data_dir", d.Config.DataDir, "gateway", d.Config.Gateway.URL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer d.Tracker.Close()

	return d.Scheduler.Run(ctx)
}
