// Package progress owns the durable phase markers: the index-scan cursor,
// the daily-update completion date, and the memo of symbols confirmed to
// have no fundamentals data. Markers are the source of truth for "what has
// been scanned", independent of what the store physically contains: a scan
// that produced zero rows (holidays) still advances its marker.
package progress

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	scanCursorFile    = ".scan-cursor"
	lastCompletedFile = ".last-completed"
	noDataFile        = ".no-data"
)

// Tracker reads and writes the marker files. Each marker is mutated only by
// its owning phase; the no-data memo set is safe for concurrent workers.
type Tracker struct {
	indexDir        string // holds .scan-cursor
	dailyDir        string // holds .last-completed
	fundamentalsDir string // holds .no-data

	mu     sync.Mutex
	noData map[string]struct{}
	file   *os.File
	writer *bufio.Writer
}

// NewTracker creates a Tracker over the given marker directories and loads
// any existing no-data entries.
func NewTracker(indexDir, dailyDir, fundamentalsDir string) (*Tracker, error) {
	for _, dir := range []string{indexDir, dailyDir, fundamentalsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating marker dir %s: %w", dir, err)
		}
	}

	t := &Tracker{
		indexDir:        indexDir,
		dailyDir:        dailyDir,
		fundamentalsDir: fundamentalsDir,
		noData:          make(map[string]struct{}),
	}

	path := filepath.Join(fundamentalsDir, noDataFile)
	if data, err := os.ReadFile(path); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if sym := strings.TrimSpace(line); sym != "" {
				t.noData[sym] = struct{}{}
			}
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", noDataFile, err)
	}
	t.file = f
	t.writer = bufio.NewWriter(f)

	return t, nil
}

// ---------------------------------------------------------------------------
// Index-history scan cursor
// ---------------------------------------------------------------------------

// ScanCursor returns the latest fully-scanned index-history date, or "".
func (t *Tracker) ScanCursor() string {
	return readMarker(filepath.Join(t.indexDir, scanCursorFile))
}

// SetScanCursor advances the index-history cursor. Callers must only advance
// after every snapshot up to date has been written.
func (t *Tracker) SetScanCursor(date string) error {
	return writeMarker(filepath.Join(t.indexDir, scanCursorFile), date)
}

// ---------------------------------------------------------------------------
// Daily-update completion
// ---------------------------------------------------------------------------

// LastCompleted returns the date of the last completed daily update, or "".
func (t *Tracker) LastCompleted() string {
	return readMarker(filepath.Join(t.dailyDir, lastCompletedFile))
}

// MarkCompleted records that the daily update for date finished.
func (t *Tracker) MarkCompleted(date string) error {
	return writeMarker(filepath.Join(t.dailyDir, lastCompletedFile), date)
}

// IsCompleted reports whether the daily update already ran for date or later.
func (t *Tracker) IsCompleted(date string) bool {
	return t.LastCompleted() >= date && date != ""
}

// ---------------------------------------------------------------------------
// Fundamentals no-data memo
// ---------------------------------------------------------------------------

// IsNoData reports whether symbol was confirmed to have no fundamentals data.
func (t *Tracker) IsNoData(symbol string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.noData[symbol]
	return ok
}

// MarkNoData records symbols as confirmed empty. Appended durably so the
// memo survives restarts.
func (t *Tracker) MarkNoData(symbols ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, sym := range symbols {
		if _, ok := t.noData[sym]; ok {
			continue
		}
		t.noData[sym] = struct{}{}
		if _, err := t.writer.WriteString(sym + "\n"); err != nil {
			return fmt.Errorf("writing %s: %w", noDataFile, err)
		}
	}
	return t.writer.Flush()
}

// ResetNoData clears the memo, forcing re-enumeration of every symbol.
func (t *Tracker) ResetNoData() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file != nil {
		t.file.Close()
	}
	t.noData = make(map[string]struct{})

	path := filepath.Join(t.fundamentalsDir, noDataFile)
	os.Remove(path)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("reopening %s: %w", noDataFile, err)
	}
	t.file = f
	t.writer = bufio.NewWriter(f)
	return nil
}

// Close flushes and closes the memo file.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writer != nil {
		t.writer.Flush()
	}
	if t.file != nil {
		return t.file.Close()
	}
	return nil
}

// ---------------------------------------------------------------------------
// Marker file primitives
// ---------------------------------------------------------------------------

func readMarker(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func writeMarker(path, value string) error {
	return os.WriteFile(path, []byte(value+"\n"), 0o644)
}
