package backfill

import (
	"context"
	"fmt"
	"time"

	"cn-data/internal/marketclock"
	"cn-data/internal/model"
	"cn-data/internal/progress"
	"cn-data/internal/source"
	"cn-data/internal/store"
)

const dateLayout = "2006-01-02"

// SnapshotItem is one outstanding (index, date) constituent fetch.
type SnapshotItem struct {
	Index string
	Date  string
}

// BarItem is one outstanding per-symbol bar fetch range. One item covers all
// of a symbol's missing coverage, so no two items share a partition file.
type BarItem struct {
	Symbol string
	Start  string
	End    string
}

// FundamentalsItem is one symbol's outstanding statement quarters, grouped by
// family. FullScan marks a symbol with no stored statements at all: if every
// query of a full scan comes back empty the symbol is memoed as no-data.
type FundamentalsItem struct {
	Symbol   string
	Missing  map[model.StatementType][][2]int32
	FullScan bool
}

// Enumerator computes outstanding work per phase by diffing desired coverage
// against the store and the progress markers. It never emits a range beyond
// "today" and never re-includes coverage the markers or store confirm.
type Enumerator struct {
	store   *store.Store
	tracker *progress.Tracker
	clock   *marketclock.Clock

	indices       []string
	historyFloor  string // first index-history / daily-bar date
	intradayFloor string // first 5-minute bar date
	fundFloorYear int    // first fundamentals fiscal year
}

// NewEnumerator creates an Enumerator over the given store and markers.
func NewEnumerator(st *store.Store, tr *progress.Tracker, clock *marketclock.Clock, indices []string, historyFloor, intradayFloor string, fundFloorYear int) *Enumerator {
	return &Enumerator{
		store:         st,
		tracker:       tr,
		clock:         clock,
		indices:       indices,
		historyFloor:  historyFloor,
		intradayFloor: intradayFloor,
		fundFloorYear: fundFloorYear,
	}
}

// IndexHistoryPending reports whether the index-history scan is behind
// yesterday. Cheap marker comparison, evaluated every tick.
func (e *Enumerator) IndexHistoryPending() bool {
	return e.tracker.ScanCursor() < e.clock.Yesterday()
}

// SnapshotItems enumerates the outstanding (index, date) fetches in
// [cursor+1, yesterday]. The trading-day list comes from the source calendar
// capability; a calendar failure aborts the pass (markers untouched). Returns
// the items plus the scan end date the cursor may advance to once the pass
// completes cleanly.
func (e *Enumerator) SnapshotItems(ctx context.Context, sess source.Session) ([]SnapshotItem, string, error) {
	start := e.historyFloor
	if cursor := e.tracker.ScanCursor(); cursor != "" {
		next, err := nextDay(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("bad scan cursor %q: %w", cursor, err)
		}
		start = next
	}
	end := e.clock.Yesterday()
	if start > end {
		return nil, end, nil
	}

	days, err := sess.TradingDays(ctx, start, end)
	if err != nil {
		return nil, "", fmt.Errorf("trading days [%s, %s]: %w", start, end, err)
	}

	var items []SnapshotItem
	for _, day := range days {
		for _, index := range e.indices {
			if !e.store.SnapshotExists(index, day) {
				items = append(items, SnapshotItem{Index: index, Date: day})
			}
		}
	}
	return items, end, nil
}

// DailyBarItems enumerates per-symbol daily-bar gaps up to today. attempted
// maps symbols to the end date of a fetch already tried this day; a symbol
// whose attempt covered today is skipped even if it yielded no rows, so
// genuinely data-less symbols are not refetched forever.
func (e *Enumerator) DailyBarItems(attempted map[string]string) ([]BarItem, error) {
	return e.barItems(attempted, e.historyFloor, e.store.LatestDailyDate)
}

// MinuteBarItems enumerates per-symbol intraday gaps from the intraday
// availability floor up to today.
func (e *Enumerator) MinuteBarItems(attempted map[string]string) ([]BarItem, error) {
	return e.barItems(attempted, e.intradayFloor, e.store.LatestMinuteDate)
}

func (e *Enumerator) barItems(attempted map[string]string, floor string, latest func(string) string) ([]BarItem, error) {
	universe, err := e.store.Universe(e.indices)
	if err != nil {
		return nil, fmt.Errorf("computing universe: %w", err)
	}
	today := e.clock.Today()

	var items []BarItem
	for _, sym := range universe {
		if attempted[sym] >= today {
			continue
		}

		start := floor
		if last := latest(sym); last != "" {
			if last >= today {
				continue // up to date
			}
			next, err := nextDay(last)
			if err != nil {
				return nil, fmt.Errorf("bad stored date %q for %s: %w", last, sym, err)
			}
			start = next
		}
		if start > today {
			continue
		}
		items = append(items, BarItem{Symbol: sym, Start: start, End: today})
	}
	return items, nil
}

// FundamentalItems enumerates symbols with missing statement quarters in
// [floor year Q1, current quarter]. Symbols memoed as no-data and symbols
// attempted today are excluded; a symbol with zero missing pairs across all
// six families is skipped entirely.
func (e *Enumerator) FundamentalItems(attempted map[string]bool) ([]FundamentalsItem, error) {
	universe, err := e.store.Universe(e.indices)
	if err != nil {
		return nil, fmt.Errorf("computing universe: %w", err)
	}
	curYear, curQuarter := e.clock.CurrentQuarter()

	var items []FundamentalsItem
	for _, sym := range universe {
		if attempted[sym] || e.tracker.IsNoData(sym) {
			continue
		}

		item := FundamentalsItem{
			Symbol:   sym,
			Missing:  make(map[model.StatementType][][2]int32),
			FullScan: true,
		}
		for _, st := range model.StatementTypes {
			present := e.store.QuartersPresent(sym, st)
			if len(present) > 0 {
				item.FullScan = false
			}
			for year := e.fundFloorYear; year <= curYear; year++ {
				for q := 1; q <= 4; q++ {
					if year == curYear && q > curQuarter {
						break
					}
					pair := [2]int32{int32(year), int32(q)}
					if !present[pair] {
						item.Missing[st] = append(item.Missing[st], pair)
					}
				}
			}
		}
		if len(item.Missing) > 0 {
			items = append(items, item)
		}
	}
	return items, nil
}

// nextDay returns the date one calendar day after date.
func nextDay(date string) (string, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, 1).Format(dateLayout), nil
}
