// Package backfill is the phased collection engine: a priority-ordered
// scheduler that, each tick, recomputes which class of work is outstanding
// and runs one pass of the highest-priority phase through a bounded worker
// pool. All state needed to resume lives in the store and the progress
// markers; the scheduler itself only caches "daily update already ran today"
// and the per-day attempted sets.
package backfill

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cn-data/internal/marketclock"
	"cn-data/internal/progress"
	"cn-data/internal/source"
	"cn-data/internal/store"
)

const (
	defaultIdleWait = 60 * time.Second
	idleStep        = time.Second
)

// Config carries the collection parameters.
type Config struct {
	Indices       []string
	HistoryFloor  string // first index/daily-bar date, e.g. "2005-01-01"
	IntradayFloor string // first 5-minute bar date
	FundFloorYear int    // first fundamentals fiscal year
	Workers       int
	IdleWait      time.Duration // zero means the 60s default
}

// Scheduler drives the five phases in priority order.
type Scheduler struct {
	conn    source.Connector
	store   *store.Store
	tracker *progress.Tracker
	clock   *marketclock.Clock
	enum    *Enumerator

	indices  []string
	workers  int
	idleWait time.Duration

	// Per-process caches, reset on date change. attempted* record symbols
	// already fetched today so empty results are not refetched in a loop.
	dailyRan        string
	attemptedDay    string
	attemptedDaily  map[string]string
	attemptedMinute map[string]string
	attemptedFund   map[string]bool
	attemptMu       sync.Mutex
}

// NewScheduler wires a Scheduler over its collaborators.
func NewScheduler(conn source.Connector, st *store.Store, tr *progress.Tracker, clock *marketclock.Clock, cfg Config) *Scheduler {
	idle := cfg.IdleWait
	if idle <= 0 {
		idle = defaultIdleWait
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		conn:            conn,
		store:           st,
		tracker:         tr,
		clock:           clock,
		enum:            NewEnumerator(st, tr, clock, cfg.Indices, cfg.HistoryFloor, cfg.IntradayFloor, cfg.FundFloorYear),
		indices:         cfg.Indices,
		workers:         workers,
		idleWait:        idle,
		attemptedDaily:  make(map[string]string),
		attemptedMinute: make(map[string]string),
		attemptedFund:   make(map[string]bool),
	}
}

// Run loops until ctx is cancelled. Each iteration re-evaluates the phases
// in priority order and runs one pass of the first with outstanding work, so
// a phase that becomes newly eligible preempts lower phases at iteration
// granularity.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler started", "workers", s.workers, "indices", s.indices)
	for ctx.Err() == nil {
		if !s.tick(ctx) {
			slog.Info("no work outstanding, idling", "wait", s.idleWait)
			s.idle(ctx)
		}
	}
	slog.Info("scheduler stopped")
	return nil
}

// tick evaluates the phases in priority order and runs one pass of the first
// with outstanding work. Returns false when every phase is idle.
func (s *Scheduler) tick(ctx context.Context) bool {
	s.rollAttempted()

	switch {
	case s.enum.IndexHistoryPending():
		s.runIndexHistory(ctx)
	case s.dailyUpdateDue():
		s.runDailyUpdate(ctx)
	case s.runDailyBackfill(ctx):
	case s.runMinuteBackfill(ctx):
	case s.runFundamentals(ctx):
	default:
		return false
	}
	return true
}

// dailyUpdateDue reports whether today's update should run: after the cutoff,
// at most once per day, and not already marked complete by a previous run.
func (s *Scheduler) dailyUpdateDue() bool {
	today := s.clock.Today()
	if s.dailyRan == today {
		return false
	}
	if s.tracker.IsCompleted(today) {
		s.dailyRan = today
		return false
	}
	return s.clock.AfterCutoff()
}

// idle sleeps for the idle wait, interruptible at one-second granularity.
func (s *Scheduler) idle(ctx context.Context) {
	deadline := time.Now().Add(s.idleWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(idleStep):
		}
	}
}

// batchSize bounds one bar/fundamentals pass so higher-priority phases are
// re-checked between batches.
func (s *Scheduler) batchSize() int {
	return s.workers * 16
}

// rollAttempted clears the per-day attempted sets when the market date rolls
// over, so every symbol becomes eligible again.
func (s *Scheduler) rollAttempted() {
	today := s.clock.Today()
	s.attemptMu.Lock()
	defer s.attemptMu.Unlock()
	if s.attemptedDay != today {
		s.attemptedDay = today
		s.attemptedDaily = make(map[string]string)
		s.attemptedMinute = make(map[string]string)
		s.attemptedFund = make(map[string]bool)
	}
}

func (s *Scheduler) markAttempted(m map[string]string, symbol, end string) {
	s.attemptMu.Lock()
	defer s.attemptMu.Unlock()
	if m[symbol] < end {
		m[symbol] = end
	}
}

func (s *Scheduler) markAttemptedFund(symbol string) {
	s.attemptMu.Lock()
	defer s.attemptMu.Unlock()
	s.attemptedFund[symbol] = true
}
