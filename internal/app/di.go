package app

import (
	"cn-data/internal/backfill"
	"cn-data/internal/marketclock"
	"cn-data/internal/progress"
	"cn-data/internal/source"
	"cn-data/internal/source/baostock"
	"cn-data/internal/store"
)

// ConfigPath is the --config flag value, distinct from string for Wire.
type ConfigPath string

// ProvideConfig loads configuration from the given path (for Wire).
func ProvideConfig(path ConfigPath) (*Config, error) {
	return LoadConfig(string(path))
}

// ProvideStore creates the columnar store (for Wire).
func ProvideStore(cfg *Config) *store.Store {
	return store.New(cfg.DataDir)
}

// ProvideTracker creates the progress tracker over the store's marker
// directories (for Wire). Caller must Close when shutting down.
func ProvideTracker(cfg *Config, st *store.Store) (*progress.Tracker, error) {
	return progress.NewTracker(st.IndexMarkerDir(), st.DailyMarkerDir(), st.FundamentalsMarkerDir())
}

// ProvideClock creates the market clock with the configured cutoff (for Wire).
func ProvideClock(cfg *Config) *marketclock.Clock {
	return marketclock.New(cfg.CutoffHour, cfg.CutoffMinute)
}

// ProvideConnector creates the gateway connector (for Wire).
func ProvideConnector(cfg *Config) *baostock.Connector {
	return baostock.NewConnector(cfg.Gateway.URL, cfg.Gateway.User, cfg.Gateway.Password)
}

// ProvideScheduler creates the phase scheduler (for Wire).
func ProvideScheduler(conn source.Connector, st *store.Store, tr *progress.Tracker, clock *marketclock.Clock, cfg *Config) *backfill.Scheduler {
	return backfill.NewScheduler(conn, st, tr, clock, backfill.Config{
		Indices:       cfg.Indices,
		HistoryFloor:  cfg.StartDate,
		IntradayFloor: cfg.IntradayFloor,
		FundFloorYear: cfg.FundFloorYear,
		Workers:       cfg.Workers,
	})
}
