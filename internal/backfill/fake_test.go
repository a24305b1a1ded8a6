package backfill

import (
	"context"
	"sync"
	"time"

	"cn-data/internal/marketclock"
	"cn-data/internal/model"
	"cn-data/internal/source"
)

// fakeSession scripts the source capabilities for tests and records the
// calls it receives.
type fakeSession struct {
	mu    sync.Mutex
	calls []string

	tradingDays  func(start, end string) ([]string, error)
	constituents func(index, date string) ([]model.Constituent, error)
	dailyBars    func(symbol, start, end string) ([]model.DailyBar, error)
	minuteBars   func(symbol, start, end string) ([]model.MinuteBar, error)
	fundamentals func(symbol string, st model.StatementType, year, quarter int) ([]model.FundamentalRecord, error)
}

func (f *fakeSession) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeSession) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSession) TradingDays(_ context.Context, start, end string) ([]string, error) {
	f.record("trading_days " + start + ".." + end)
	if f.tradingDays == nil {
		return nil, nil
	}
	return f.tradingDays(start, end)
}

func (f *fakeSession) Constituents(_ context.Context, index, date string) ([]model.Constituent, error) {
	f.record("constituents " + index + " " + date)
	if f.constituents == nil {
		return nil, nil
	}
	return f.constituents(index, date)
}

func (f *fakeSession) DailyBars(_ context.Context, symbol, start, end string) ([]model.DailyBar, error) {
	f.record("daily " + symbol + " " + start + ".." + end)
	if f.dailyBars == nil {
		return nil, nil
	}
	return f.dailyBars(symbol, start, end)
}

func (f *fakeSession) MinuteBars(_ context.Context, symbol, start, end string) ([]model.MinuteBar, error) {
	f.record("minute " + symbol + " " + start + ".." + end)
	if f.minuteBars == nil {
		return nil, nil
	}
	return f.minuteBars(symbol, start, end)
}

func (f *fakeSession) Fundamentals(_ context.Context, symbol string, st model.StatementType, year, quarter int) ([]model.FundamentalRecord, error) {
	f.record("fundamentals " + symbol + " " + string(st))
	if f.fundamentals == nil {
		return nil, nil
	}
	return f.fundamentals(symbol, st, year, quarter)
}

func (f *fakeSession) Close() error { return nil }

// fakeConnector hands every worker the same scripted session.
type fakeConnector struct {
	sess    *fakeSession
	openErr error

	mu    sync.Mutex
	opens int
}

func (f *fakeConnector) Open(context.Context) (source.Session, error) {
	f.mu.Lock()
	f.opens++
	f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.sess, nil
}

var _ source.Connector = (*fakeConnector)(nil)

// fixedClock returns a Clock pinned to the given market-local time with a
// 16:30 cutoff.
func fixedClock(year int, month time.Month, day, hour, min int) *marketclock.Clock {
	loc := time.FixedZone("CST", 8*60*60)
	at := time.Date(year, month, day, hour, min, 0, 0, loc)
	return marketclock.NewAt(16, 30, func() time.Time { return at })
}
