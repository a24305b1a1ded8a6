package store

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"cn-data/internal/model"
)

// dailyBarKey is the uniqueness key within one daily partition.
func dailyBarKey(b model.DailyBar) string { return b.Date }

// minuteBarKey is the uniqueness key within one intraday partition.
func minuteBarKey(b model.MinuteBar) string { return b.Date + "T" + b.Time }

// UpsertDailyBars merges daily bars into their per-symbol, per-year
// partitions. Bars without a parseable year are dropped.
func (s *Store) UpsertDailyBars(symbol string, bars []model.DailyBar) error {
	byYear := make(map[string][]model.DailyBar)
	for _, b := range bars {
		if y := b.Year(); y != "" {
			byYear[y] = append(byYear[y], b)
		}
	}

	for year, rows := range byYear {
		path := filepath.Join(s.dailyDir(), symbol, year+".parquet")
		if err := upsertPartition(path, rows, dailyBarKey); err != nil {
			return fmt.Errorf("daily bars %s/%s: %w", symbol, year, err)
		}
	}
	return nil
}

// UpsertMinuteBars merges 5-minute bars into their per-symbol, per-year
// partitions.
func (s *Store) UpsertMinuteBars(symbol string, bars []model.MinuteBar) error {
	byYear := make(map[string][]model.MinuteBar)
	for _, b := range bars {
		if y := b.Year(); y != "" {
			byYear[y] = append(byYear[y], b)
		}
	}

	for year, rows := range byYear {
		path := filepath.Join(s.minuteDir(), symbol, year+".parquet")
		if err := upsertPartition(path, rows, minuteBarKey); err != nil {
			return fmt.Errorf("minute bars %s/%s: %w", symbol, year, err)
		}
	}
	return nil
}

// LatestDailyDate returns the latest stored daily bar date for symbol, or ""
// when no data exists. Year partitions are scanned newest-first and the scan
// stops at the first non-empty file.
func (s *Store) LatestDailyDate(symbol string) string {
	for _, path := range listYearFilesDesc(filepath.Join(s.dailyDir(), symbol)) {
		rows := readPartition[model.DailyBar](path)
		if len(rows) == 0 {
			continue
		}
		// Partitions are sorted ascending by date.
		return rows[len(rows)-1].Date
	}
	return ""
}

// LatestMinuteDate returns the latest stored intraday bar date for symbol,
// or "" when no data exists.
func (s *Store) LatestMinuteDate(symbol string) string {
	for _, path := range listYearFilesDesc(filepath.Join(s.minuteDir(), symbol)) {
		rows := readPartition[model.MinuteBar](path)
		if len(rows) == 0 {
			continue
		}
		return rows[len(rows)-1].Date
	}
	return ""
}

// ReadDailyBars returns the stored daily bars for symbol in [start, end].
func (s *Store) ReadDailyBars(symbol, start, end string) ([]model.DailyBar, error) {
	if len(start) < 4 || len(end) < 4 {
		return nil, fmt.Errorf("bad date range [%s, %s]", start, end)
	}

	var out []model.DailyBar
	for _, path := range listYearFilesDesc(filepath.Join(s.dailyDir(), symbol)) {
		year := strings.TrimSuffix(filepath.Base(path), ".parquet")
		if year > end[:4] || year < start[:4] {
			continue
		}
		for _, b := range readPartition[model.DailyBar](path) {
			if b.Date >= start && b.Date <= end {
				out = append(out, b)
			}
		}
	}
	// Year files were visited newest-first; restore ascending order.
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
