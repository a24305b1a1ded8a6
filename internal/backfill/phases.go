package backfill

import (
	"context"
	"fmt"
	"log/slog"

	"cn-data/internal/model"
	"cn-data/internal/source"
)

// runIndexHistory executes one index-history scan pass: enumerate missing
// (index, date) snapshots up to yesterday and fetch them through the pool.
// The scan cursor advances only when the pass finishes uncancelled with no
// failed items, so failed days are re-enumerated next pass.
func (s *Scheduler) runIndexHistory(ctx context.Context) {
	sess, err := s.conn.Open(ctx)
	if err != nil {
		slog.Error("index history: opening session", "error", err)
		return
	}
	items, scanEnd, err := s.enum.SnapshotItems(ctx, sess)
	sess.Close()
	if err != nil {
		// Calendar failure aborts this pass only; cursor stays put.
		slog.Error("index history: enumeration failed", "error", err)
		return
	}

	if len(items) == 0 {
		if ctx.Err() == nil && scanEnd != "" {
			if err := s.tracker.SetScanCursor(scanEnd); err != nil {
				slog.Error("index history: advancing cursor", "error", err)
			}
		}
		return
	}
	slog.Info("index history: scanning", "items", len(items), "through", scanEnd)

	sum, err := runPool(ctx, s.conn, s.workers, "index-history", items,
		func(it SnapshotItem) string { return it.Index + "/" + it.Date },
		s.fetchSnapshot)
	if err != nil {
		slog.Error("index history: pass aborted", "error", err)
		return
	}
	if ctx.Err() == nil && sum.Failed == 0 {
		if err := s.tracker.SetScanCursor(scanEnd); err != nil {
			slog.Error("index history: advancing cursor", "error", err)
		}
	}
}

// fetchSnapshot is the pool item function for one (index, date). An empty
// result is a valid outcome (holiday slipped through the calendar); no file
// is written for it.
func (s *Scheduler) fetchSnapshot(ctx context.Context, sess source.Session, item SnapshotItem) (int, error) {
	members, err := sess.Constituents(ctx, item.Index, item.Date)
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}
	snap := model.ConstituentSnapshot{Index: item.Index, Date: item.Date, Members: members}
	if err := s.store.WriteSnapshot(snap); err != nil {
		return 0, err
	}
	return len(members), nil
}

// runDailyUpdate refreshes today's constituents, full-backfills any symbols
// new to the universe, and updates today's bars for current members. The
// completion marker is written only when the whole unit ran uncancelled.
func (s *Scheduler) runDailyUpdate(ctx context.Context) {
	today := s.clock.Today()

	if !s.clock.IsTradingDay(today) {
		slog.Info("daily update: not a trading day, skipping", "date", today)
		s.dailyRan = today
		return
	}

	known, err := s.store.Universe(s.indices)
	if err != nil {
		slog.Error("daily update: computing universe", "error", err)
		return
	}
	knownSet := make(map[string]bool, len(known))
	for _, sym := range known {
		knownSet[sym] = true
	}

	sess, err := s.conn.Open(ctx)
	if err != nil {
		slog.Error("daily update: opening session", "error", err)
		return
	}

	// Refresh today's snapshots and collect newly added symbols. A
	// constituent query failure aborts the day's update; the next tick
	// retries from scratch since the marker is untouched.
	newSet := make(map[string]bool)
	current := make(map[string]bool)
	for _, index := range s.indices {
		if ctx.Err() != nil {
			sess.Close()
			return
		}
		members, err := sess.Constituents(ctx, index, today)
		if err != nil {
			slog.Error("daily update: constituents failed", "index", index, "error", err)
			sess.Close()
			return
		}
		if len(members) == 0 {
			slog.Info("daily update: no constituents", "index", index, "date", today)
			continue
		}
		snap := model.ConstituentSnapshot{Index: index, Date: today, Members: members}
		if err := s.store.WriteSnapshot(snap); err != nil {
			slog.Error("daily update: writing snapshot", "index", index, "error", err)
			sess.Close()
			return
		}
		slog.Info("daily update: snapshot written", "index", index, "members", len(members))
		for _, sym := range snap.Symbols() {
			current[sym] = true
			if !knownSet[sym] {
				newSet[sym] = true
			}
		}
	}
	sess.Close()

	// One bar item per symbol: full history for new symbols, just today for
	// everyone else currently in an index.
	var items []BarItem
	for sym := range current {
		if newSet[sym] {
			items = append(items, BarItem{Symbol: sym, Start: s.enum.historyFloor, End: today})
		} else {
			items = append(items, BarItem{Symbol: sym, Start: today, End: today})
		}
	}
	if len(newSet) > 0 {
		slog.Info("daily update: new symbols detected", "count", len(newSet))
	}

	if len(items) > 0 {
		_, err := runPool(ctx, s.conn, s.workers, "daily-update", items,
			func(it BarItem) string { return it.Symbol },
			s.fetchDailyBars)
		if err != nil {
			slog.Error("daily update: pass aborted", "error", err)
			return
		}
	}

	if ctx.Err() != nil {
		return
	}
	if err := s.tracker.MarkCompleted(today); err != nil {
		slog.Error("daily update: writing marker", "error", err)
		return
	}
	s.dailyRan = today
	slog.Info("daily update: complete", "date", today)
}

// runDailyBackfill runs one bounded daily-bar backfill batch. Returns whether
// it had work.
func (s *Scheduler) runDailyBackfill(ctx context.Context) bool {
	items, err := s.enum.DailyBarItems(s.attemptedDaily)
	if err != nil {
		slog.Error("daily backfill: enumeration failed", "error", err)
		return false
	}
	return s.runBarBatch(ctx, "daily-backfill", items, s.fetchDailyBars, s.attemptedDaily)
}

// runMinuteBackfill runs one bounded intraday backfill batch.
func (s *Scheduler) runMinuteBackfill(ctx context.Context) bool {
	items, err := s.enum.MinuteBarItems(s.attemptedMinute)
	if err != nil {
		slog.Error("minute backfill: enumeration failed", "error", err)
		return false
	}
	return s.runBarBatch(ctx, "minute-backfill", items, s.fetchMinuteBars, s.attemptedMinute)
}

// runBarBatch executes at most one batch of bar items so higher-priority
// phases are re-evaluated between batches rather than after the whole
// universe.
func (s *Scheduler) runBarBatch(ctx context.Context, phase string, items []BarItem, fn ItemFunc[BarItem], attempted map[string]string) bool {
	if len(items) == 0 {
		return false
	}
	if max := s.batchSize(); len(items) > max {
		items = items[:max]
	}

	if _, err := runPool(ctx, s.conn, s.workers, phase, items,
		func(it BarItem) string { return it.Symbol + " " + it.Start + ".." + it.End },
		func(ctx context.Context, sess source.Session, it BarItem) (int, error) {
			rows, err := fn(ctx, sess, it)
			if err == nil {
				// Queried-and-empty still counts as attempted: the range is
				// confirmed data-less for today, not retried this day.
				s.markAttempted(attempted, it.Symbol, it.End)
			}
			return rows, err
		}); err != nil {
		slog.Error("pass aborted", "phase", phase, "error", err)
	}
	return true
}

// fetchDailyBars is the pool item function for one symbol's daily range.
func (s *Scheduler) fetchDailyBars(ctx context.Context, sess source.Session, item BarItem) (int, error) {
	bars, err := sess.DailyBars(ctx, item.Symbol, item.Start, item.End)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, nil
	}
	if err := s.store.UpsertDailyBars(item.Symbol, bars); err != nil {
		return 0, err
	}
	return len(bars), nil
}

// fetchMinuteBars is the pool item function for one symbol's intraday range.
func (s *Scheduler) fetchMinuteBars(ctx context.Context, sess source.Session, item BarItem) (int, error) {
	bars, err := sess.MinuteBars(ctx, item.Symbol, item.Start, item.End)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, nil
	}
	if err := s.store.UpsertMinuteBars(item.Symbol, bars); err != nil {
		return 0, err
	}
	return len(bars), nil
}

// runFundamentals runs one bounded fundamentals backfill batch.
func (s *Scheduler) runFundamentals(ctx context.Context) bool {
	items, err := s.enum.FundamentalItems(s.attemptedFund)
	if err != nil {
		slog.Error("fundamentals: enumeration failed", "error", err)
		return false
	}
	if len(items) == 0 {
		return false
	}
	if max := s.batchSize(); len(items) > max {
		items = items[:max]
	}

	if _, err := runPool(ctx, s.conn, s.workers, "fundamentals", items,
		func(it FundamentalsItem) string { return it.Symbol },
		s.fetchFundamentals); err != nil {
		slog.Error("fundamentals: pass aborted", "error", err)
	}
	return true
}

// fetchFundamentals queries every missing quarter of every statement family
// for one symbol. A symbol whose full scan yields zero rows everywhere is
// memoed as no-data and excluded from later passes until the memo is cleared.
func (s *Scheduler) fetchFundamentals(ctx context.Context, sess source.Session, item FundamentalsItem) (int, error) {
	total := 0
	for _, st := range model.StatementTypes {
		for _, pair := range item.Missing[st] {
			if err := ctx.Err(); err != nil {
				return total, nil
			}
			recs, err := sess.Fundamentals(ctx, item.Symbol, st, int(pair[0]), int(pair[1]))
			if err != nil {
				return total, fmt.Errorf("%s %d Q%d: %w", st, pair[0], pair[1], err)
			}
			if len(recs) == 0 {
				continue
			}
			if err := s.store.UpsertFundamentals(item.Symbol, st, recs); err != nil {
				return total, err
			}
			total += len(recs)
		}
	}

	if total == 0 && item.FullScan {
		if err := s.tracker.MarkNoData(item.Symbol); err != nil {
			return 0, err
		}
		slog.Info("fundamentals: symbol memoed as no-data", "symbol", item.Symbol)
	}
	s.markAttemptedFund(item.Symbol)
	return total, nil
}
