package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cn-data/internal/model"
)

func TestWriteSnapshotSortedDeduped(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	snap := model.ConstituentSnapshot{
		Index: "csi300",
		Date:  "2024-03-01",
		Members: []model.Constituent{
			{Symbol: "sz.000001", Name: "平安银行"},
			{Symbol: "sh.600000", Name: "浦发银行"},
			{Symbol: "sz.000001", Name: "平安银行"},
		},
	}
	require.NoError(t, s.WriteSnapshot(snap))

	data, err := os.ReadFile(filepath.Join(dir, "cn", "index", "csi300", "2024-03-01.txt"))
	require.NoError(t, err)
	assert.Equal(t, "sh.600000,浦发银行\nsz.000001,平安银行\n", string(data))

	got, err := s.ReadSnapshot("csi300", "2024-03-01")
	require.NoError(t, err)
	require.Len(t, got.Members, 2)
	assert.Equal(t, "sh.600000", got.Members[0].Symbol)
	assert.Equal(t, "浦发银行", got.Members[0].Name)
}

func TestWriteSnapshotSkipsEmpty(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.WriteSnapshot(model.ConstituentSnapshot{Index: "csi300", Date: "2024-03-02"}))
	assert.False(t, s.SnapshotExists("csi300", "2024-03-02"))
}

func TestSnapshotDates(t *testing.T) {
	s := New(t.TempDir())
	for _, date := range []string{"2024-03-05", "2024-03-01", "2024-03-04"} {
		require.NoError(t, s.WriteSnapshot(model.ConstituentSnapshot{
			Index:   "csi500",
			Date:    date,
			Members: []model.Constituent{{Symbol: "sh.600000"}},
		}))
	}

	assert.Equal(t, []string{"2024-03-01", "2024-03-04", "2024-03-05"}, s.SnapshotDates("csi500"))
	assert.Equal(t, "2024-03-05", s.LatestSnapshotDate("csi500"))
	assert.Equal(t, "", s.LatestSnapshotDate("csi300"))
}

func TestUniverseNeverShrinks(t *testing.T) {
	s := New(t.TempDir())

	require.NoError(t, s.WriteSnapshot(model.ConstituentSnapshot{
		Index:   "csi300",
		Date:    "2024-01-02",
		Members: []model.Constituent{{Symbol: "sh.600000"}, {Symbol: "sz.000001"}},
	}))
	// sz.000001 drops out of the index the next day.
	require.NoError(t, s.WriteSnapshot(model.ConstituentSnapshot{
		Index:   "csi300",
		Date:    "2024-01-03",
		Members: []model.Constituent{{Symbol: "sh.600000"}, {Symbol: "sh.601318"}},
	}))

	universe, err := s.Universe([]string{"csi300", "csi500"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sh.600000", "sh.601318", "sz.000001"}, universe)
}
