//go:build wireinject
// +build wireinject

package main

import (
	"cn-data/internal/app"
	"cn-data/internal/source"
	"cn-data/internal/source/baostock"

	"github.com/google/wire"
)

// InitializeDaemon builds the Daemon (config, tracker, scheduler) via Wire.
func InitializeDaemon(path app.ConfigPath) (*app.Daemon, error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideStore,
		app.ProvideTracker,
		app.ProvideClock,
		app.ProvideConnector,
		app.ProvideScheduler,
		wire.Bind(new(source.Connector), new(*baostock.Connector)),
		wire.Struct(new(app.Daemon), "Config", "Tracker", "Scheduler"),
	)
	return nil, nil
}
