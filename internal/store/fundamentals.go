package store

import (
	"fmt"
	"path/filepath"

	"cn-data/internal/model"
)

// fundamentalKey is the uniqueness key within one statement partition.
func fundamentalKey(r model.FundamentalRecord) string { return r.StatDate }

// fundamentalsPath is <DataDir>/cn/fundamentals/<SYMBOL>/<type>.parquet.
// One partition holds a symbol's full history for one statement family.
func (s *Store) fundamentalsPath(symbol string, st model.StatementType) string {
	return filepath.Join(s.fundamentalsDir(), symbol, string(st)+".parquet")
}

// UpsertFundamentals merges statement rows into the symbol's partition for
// the given family.
func (s *Store) UpsertFundamentals(symbol string, st model.StatementType, recs []model.FundamentalRecord) error {
	if len(recs) == 0 {
		return nil
	}
	path := s.fundamentalsPath(symbol, st)
	if err := upsertPartition(path, recs, fundamentalKey); err != nil {
		return fmt.Errorf("fundamentals %s/%s: %w", symbol, st, err)
	}
	return nil
}

// QuartersPresent returns the set of (year, quarter) pairs already stored for
// symbol in the given statement family.
func (s *Store) QuartersPresent(symbol string, st model.StatementType) map[[2]int32]bool {
	present := make(map[[2]int32]bool)
	for _, r := range readPartition[model.FundamentalRecord](s.fundamentalsPath(symbol, st)) {
		if r.Year > 0 && r.Quarter > 0 {
			present[[2]int32{r.Year, r.Quarter}] = true
		}
	}
	return present
}
