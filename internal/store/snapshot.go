package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cn-data/internal/model"
)

// Constituent snapshots are small text partitions, one per (index, date):
// <DataDir>/cn/index/<index>/<YYYY-MM-DD>.txt with "symbol,name" lines sorted
// by symbol. Written once on trading days, immutable afterwards.

// snapshotPath returns the partition path for one (index, date).
func (s *Store) snapshotPath(index, date string) string {
	return filepath.Join(s.indexDir(index), date+".txt")
}

// SnapshotExists reports whether the snapshot for (index, date) was written.
func (s *Store) SnapshotExists(index, date string) bool {
	_, err := os.Stat(s.snapshotPath(index, date))
	return err == nil
}

// WriteSnapshot writes one snapshot atomically, sorted and deduplicated by
// symbol. Empty snapshots (non-trading days) are never written.
func (s *Store) WriteSnapshot(snap model.ConstituentSnapshot) error {
	if len(snap.Members) == 0 {
		return nil
	}

	bySymbol := make(map[string]model.Constituent, len(snap.Members))
	for _, m := range snap.Members {
		if m.Symbol != "" {
			bySymbol[m.Symbol] = m
		}
	}
	symbols := make([]string, 0, len(bySymbol))
	for sym := range bySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var b strings.Builder
	for _, sym := range symbols {
		b.WriteString(sym)
		b.WriteString(",")
		b.WriteString(bySymbol[sym].Name)
		b.WriteString("\n")
	}

	path := s.snapshotPath(snap.Index, snap.Date)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating index dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing snapshot %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot loads one snapshot. A missing file returns an empty snapshot.
func (s *Store) ReadSnapshot(index, date string) (model.ConstituentSnapshot, error) {
	snap := model.ConstituentSnapshot{Index: index, Date: date}

	f, err := os.Open(s.snapshotPath(index, date))
	if err != nil {
		if os.IsNotExist(err) {
			return snap, nil
		}
		return snap, fmt.Errorf("reading snapshot %s/%s: %w", index, date, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sym, name, _ := strings.Cut(line, ",")
		snap.Members = append(snap.Members, model.Constituent{Symbol: sym, Name: name})
	}
	return snap, scanner.Err()
}

// SnapshotDates returns all dates with a snapshot for index, ascending.
func (s *Store) SnapshotDates(index string) []string {
	matches, err := filepath.Glob(filepath.Join(s.indexDir(index), "*.txt"))
	if err != nil {
		return nil
	}

	var dates []string
	for _, m := range matches {
		date := strings.TrimSuffix(filepath.Base(m), ".txt")
		if len(date) == 10 && date[4] == '-' && date[7] == '-' {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}

// LatestSnapshotDate returns the newest snapshot date for index, or "".
func (s *Store) LatestSnapshotDate(index string) string {
	dates := s.SnapshotDates(index)
	if len(dates) == 0 {
		return ""
	}
	return dates[len(dates)-1]
}

// Universe returns the union of all symbols that ever appeared in any
// snapshot of the given indices, sorted. Membership only grows over time:
// a symbol dropped from an index stays in the universe through its old
// snapshots.
func (s *Store) Universe(indices []string) ([]string, error) {
	set := make(map[string]struct{})
	for _, index := range indices {
		for _, date := range s.SnapshotDates(index) {
			snap, err := s.ReadSnapshot(index, date)
			if err != nil {
				return nil, err
			}
			for _, m := range snap.Members {
				set[m.Symbol] = struct{}{}
			}
		}
	}

	symbols := make([]string, 0, len(set))
	for sym := range set {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols, nil
}
