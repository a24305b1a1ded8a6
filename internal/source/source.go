// Package source defines the capability interface the collector uses to talk
// to the external market-data provider. Implementations own their connection
// lifecycle; callers obtain one Session per worker via a Connector.
package source

import (
	"context"

	"cn-data/internal/model"
)

// Session is one authenticated provider session. All queries distinguish
// failure (non-nil error) from empty success (nil error, zero rows).
type Session interface {
	// TradingDays returns the ordered list of trading dates in [start, end].
	TradingDays(ctx context.Context, start, end string) ([]string, error)

	// Constituents returns the members of the given index on the given date.
	// Returns an empty slice on non-trading days.
	Constituents(ctx context.Context, index, date string) ([]model.Constituent, error)

	// DailyBars returns daily bars for symbol in [start, end].
	DailyBars(ctx context.Context, symbol, start, end string) ([]model.DailyBar, error)

	// MinuteBars returns 5-minute bars for symbol in [start, end].
	MinuteBars(ctx context.Context, symbol, start, end string) ([]model.MinuteBar, error)

	// Fundamentals returns the quarterly statement rows of one family for
	// symbol in the given fiscal quarter.
	Fundamentals(ctx context.Context, symbol string, st model.StatementType, year, quarter int) ([]model.FundamentalRecord, error)

	// Close logs the session out and releases its resources.
	Close() error
}

// Connector opens provider sessions. Each worker in the pool holds exactly one
// open session for its lifetime.
type Connector interface {
	Open(ctx context.Context) (Session, error)
}
