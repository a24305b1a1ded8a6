package baostock

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDailyBars(t *testing.T) {
	rows := [][]string{
		{"2024-01-02", "sh.600000", "7.10", "7.25", "7.05", "7.20", "7.08",
			"123456789", "888999111.50", "3", "0.4500", "1", "1.694915",
			"4.123", "0.987", "6.543", "0.512", "0"},
		{"short", "row"},
	}
	require.Len(t, rows[0], 18)

	bars := parseDailyBars(rows)
	require.Len(t, bars, 1, "malformed rows are skipped")

	b := bars[0]
	assert.Equal(t, "2024-01-02", b.Date)
	assert.Equal(t, "sh.600000", b.Symbol)
	assert.Equal(t, 7.10, b.Open)
	assert.Equal(t, 7.20, b.Close)
	assert.Equal(t, int64(123456789), b.Volume)
	assert.Equal(t, "3", b.AdjustFlag)
	assert.Equal(t, "1", b.TradeStatus)
	assert.Equal(t, "0", b.IsST)
}

func TestParseDailyBarsEmptyNumerics(t *testing.T) {
	// Suspended symbols come back with empty valuation columns.
	row := []string{"2024-01-02", "sh.600000", "7.10", "7.25", "7.05", "7.20",
		"7.08", "", "", "3", "", "0", "", "", "", "", "", "1"}
	require.Len(t, row, 18)

	bars := parseDailyBars([][]string{row})
	require.Len(t, bars, 1)
	assert.Zero(t, bars[0].Volume)
	assert.Zero(t, bars[0].Turn)
	assert.Zero(t, bars[0].PeTTM)
	assert.Equal(t, "1", bars[0].IsST)
}

func TestParseMinuteBars(t *testing.T) {
	rows := [][]string{
		{"2024-01-02", "093500000", "sh.600000", "7.10", "7.12", "7.09", "7.11",
			"500000", "3555000.00", "3"},
		{"2024-01-02", "too", "short"},
	}
	bars := parseMinuteBars(rows)
	require.Len(t, bars, 1)
	assert.Equal(t, "2024-01-02", bars[0].Date)
	assert.Equal(t, "093500000", bars[0].Time)
	assert.Equal(t, "sh.600000", bars[0].Symbol)
	assert.Equal(t, int64(500000), bars[0].Volume)
}

func TestParseFundamentals(t *testing.T) {
	fields := []string{"code", "pubDate", "statDate", "roeAvg", "npMargin"}
	rows := [][]string{
		{"sh.600000", "2023-04-29", "2023-03-31", "0.0261", "0.3514"},
		{"", "2023-04-29", "2023-03-31", "0.1", "0.2"}, // no code, dropped
	}

	recs := parseFundamentals(fields, rows, 2023, 1)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "sh.600000", rec.Symbol)
	assert.Equal(t, "2023-04-29", rec.PubDate)
	assert.Equal(t, "2023-03-31", rec.StatDate)
	assert.Equal(t, int32(2023), rec.Year)
	assert.Equal(t, int32(1), rec.Quarter)

	var metrics map[string]string
	require.NoError(t, json.Unmarshal([]byte(rec.Metrics), &metrics))
	assert.Equal(t, map[string]string{"roeAvg": "0.0261", "npMargin": "0.3514"}, metrics)
}

func TestParseFundamentalsFallsBackToRequestedQuarter(t *testing.T) {
	fields := []string{"code", "pubDate", "statDate", "roeAvg"}
	rows := [][]string{{"sh.600000", "2023-10-28", "", "0.05"}}

	recs := parseFundamentals(fields, rows, 2023, 3)
	require.Len(t, recs, 1)
	assert.Equal(t, int32(2023), recs[0].Year)
	assert.Equal(t, int32(3), recs[0].Quarter)
}

func TestFieldIndex(t *testing.T) {
	fields := []string{"code", "pubDate", "statDate"}
	assert.Equal(t, 1, fieldIndex(fields, "pubDate"))
	assert.Equal(t, -1, fieldIndex(fields, "missing"))
}
