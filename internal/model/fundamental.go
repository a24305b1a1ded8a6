package model

import "fmt"

// StatementType identifies one of the six quarterly statement families the
// source exposes.
type StatementType string

const (
	StatementProfit    StatementType = "profit"
	StatementOperation StatementType = "operation"
	StatementGrowth    StatementType = "growth"
	StatementBalance   StatementType = "balance"
	StatementCashFlow  StatementType = "cashflow"
	StatementDupont    StatementType = "dupont"
)

// StatementTypes lists all statement families in a stable order.
var StatementTypes = []StatementType{
	StatementProfit,
	StatementOperation,
	StatementGrowth,
	StatementBalance,
	StatementCashFlow,
	StatementDupont,
}

// ParseStatementType validates a statement type string.
func ParseStatementType(s string) (StatementType, error) {
	for _, st := range StatementTypes {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown statement type %q", s)
}

// FundamentalRecord is one quarterly statement row. The metric columns differ
// per statement family, so the store keeps the typed key columns and carries
// the remaining fields as a JSON object in Metrics.
type FundamentalRecord struct {
	Symbol   string `json:"symbol" parquet:"symbol"`
	PubDate  string `json:"pubDate" parquet:"pubDate"`   // publication date
	StatDate string `json:"statDate" parquet:"statDate"` // statement date, quarter end
	Year     int32  `json:"year" parquet:"year"`
	Quarter  int32  `json:"quarter" parquet:"quarter"`
	Metrics  string `json:"metrics" parquet:"metrics"`
}

// QuarterOf derives (year, quarter) from a statement date like "2023-09-30".
func QuarterOf(statDate string) (int32, int32, error) {
	var y, m, d int
	if _, err := fmt.Sscanf(statDate, "%d-%d-%d", &y, &m, &d); err != nil {
		return 0, 0, fmt.Errorf("parse statement date %q: %w", statDate, err)
	}
	if m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("parse statement date %q: month out of range", statDate)
	}
	return int32(y), int32((m-1)/3 + 1), nil
}
