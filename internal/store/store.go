// Package store persists collected data as per-symbol, per-year Parquet
// partition files with merge-on-write semantics: every upsert reads the
// partition, merges by uniqueness key with incoming rows winning, sorts, and
// atomically rewrites the whole file. Partitions are bounded (one year of
// bars, one symbol's statements), which keeps the full rewrite cheap.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"
)

// Store is the merge-on-write columnar store rooted at DataDir. It performs
// no locking: callers must never address the same partition file from two
// goroutines at once (the pool partitions work by symbol to guarantee this).
type Store struct {
	DataDir string
}

// New creates a Store rooted at dataDir.
func New(dataDir string) *Store {
	return &Store{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Path layout
// ---------------------------------------------------------------------------

// dailyDir is <DataDir>/cn/daily.
func (s *Store) dailyDir() string { return filepath.Join(s.DataDir, "cn", "daily") }

// minuteDir is <DataDir>/cn/minute5.
func (s *Store) minuteDir() string { return filepath.Join(s.DataDir, "cn", "minute5") }

// fundamentalsDir is <DataDir>/cn/fundamentals.
func (s *Store) fundamentalsDir() string { return filepath.Join(s.DataDir, "cn", "fundamentals") }

// indexDir is <DataDir>/cn/index/<index>.
func (s *Store) indexDir(index string) string {
	return filepath.Join(s.DataDir, "cn", "index", index)
}

// DailyMarkerDir returns the directory holding the daily-update marker.
func (s *Store) DailyMarkerDir() string { return s.dailyDir() }

// IndexMarkerDir returns the directory holding the index-scan cursor.
func (s *Store) IndexMarkerDir() string { return filepath.Join(s.DataDir, "cn", "index") }

// FundamentalsMarkerDir returns the directory holding the no-data memo.
func (s *Store) FundamentalsMarkerDir() string { return s.fundamentalsDir() }

// ---------------------------------------------------------------------------
// Parquet partition helpers
// ---------------------------------------------------------------------------

// readPartition loads all rows of a partition. A missing or unreadable file
// reads as empty; the next upsert rewrites it from scratch.
func readPartition[T any](path string) []T {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil
	}
	return rows
}

// writePartition atomically rewrites a partition: the new contents land in a
// temp file first and replace the old file by rename.
func writePartition[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating partition dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing partition %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing partition %s: %w", path, err)
	}
	return nil
}

// mergeRows deduplicates existing and incoming rows by key, with incoming
// winning on collision, and returns the result sorted ascending by key.
func mergeRows[T any](existing, incoming []T, key func(T) string) []T {
	seen := make(map[string]T, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key(r)] = r
	}
	for _, r := range incoming {
		seen[key(r)] = r
	}

	merged := make([]T, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return key(merged[i]) < key(merged[j])
	})
	return merged
}

// upsertPartition runs the full merge-on-write cycle for one partition file.
func upsertPartition[T any](path string, incoming []T, key func(T) string) error {
	existing := readPartition[T](path)
	return writePartition(path, mergeRows(existing, incoming, key))
}

// listYearFilesDesc returns the year-partition files of a directory in
// descending filename order, so the first non-empty file holds the latest key.
func listYearFilesDesc(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	if err != nil {
		return nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches
}
