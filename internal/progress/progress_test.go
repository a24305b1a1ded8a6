package progress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) (*Tracker, string) {
	t.Helper()
	dir := t.TempDir()
	tr, err := NewTracker(
		filepath.Join(dir, "index"),
		filepath.Join(dir, "daily"),
		filepath.Join(dir, "fundamentals"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr, dir
}

func TestScanCursor(t *testing.T) {
	tr, _ := newTestTracker(t)

	assert.Equal(t, "", tr.ScanCursor())
	require.NoError(t, tr.SetScanCursor("2024-02-15"))
	assert.Equal(t, "2024-02-15", tr.ScanCursor())
}

func TestDailyCompletion(t *testing.T) {
	tr, _ := newTestTracker(t)

	assert.False(t, tr.IsCompleted("2024-02-15"))
	require.NoError(t, tr.MarkCompleted("2024-02-15"))
	assert.True(t, tr.IsCompleted("2024-02-15"))
	assert.True(t, tr.IsCompleted("2024-02-14"), "earlier dates count as completed")
	assert.False(t, tr.IsCompleted("2024-02-16"))
}

func TestNoDataMemoSurvivesReload(t *testing.T) {
	tr, dir := newTestTracker(t)

	require.NoError(t, tr.MarkNoData("sh.600000", "sz.000001"))
	assert.True(t, tr.IsNoData("sh.600000"))
	assert.False(t, tr.IsNoData("sh.601318"))
	require.NoError(t, tr.Close())

	tr2, err := NewTracker(
		filepath.Join(dir, "index"),
		filepath.Join(dir, "daily"),
		filepath.Join(dir, "fundamentals"),
	)
	require.NoError(t, err)
	defer tr2.Close()

	assert.True(t, tr2.IsNoData("sh.600000"))
	assert.True(t, tr2.IsNoData("sz.000001"))
}

func TestNoDataMemoLoadsPartialFile(t *testing.T) {
	dir := t.TempDir()
	fund := filepath.Join(dir, "fundamentals")
	require.NoError(t, os.MkdirAll(fund, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(fund, ".no-data"), []byte("sh.600000\n\nsz.000001\n"), 0o644))

	tr, err := NewTracker(filepath.Join(dir, "index"), filepath.Join(dir, "daily"), fund)
	require.NoError(t, err)
	defer tr.Close()

	assert.True(t, tr.IsNoData("sh.600000"))
	assert.True(t, tr.IsNoData("sz.000001"))
}

func TestResetNoData(t *testing.T) {
	tr, _ := newTestTracker(t)

	require.NoError(t, tr.MarkNoData("sh.600000"))
	require.NoError(t, tr.ResetNoData())
	assert.False(t, tr.IsNoData("sh.600000"))

	// The memo is writable again after reset.
	require.NoError(t, tr.MarkNoData("sz.000001"))
	assert.True(t, tr.IsNoData("sz.000001"))
}
