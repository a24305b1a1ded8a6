package baostock

import (
	"encoding/json"
	"strconv"

	"cn-data/internal/model"
)

// fieldIndex returns the position of name in fields, or -1.
func fieldIndex(fields []string, name string) int {
	for i, f := range fields {
		if f == name {
			return i
		}
	}
	return -1
}

// parseFloat converts a gateway string value; empty parses to zero.
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseInt converts a gateway string value; empty parses to zero.
func parseInt(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseDailyBars maps rows in dailyBarFields order into DailyBar values.
// Rows with the wrong column count are skipped.
func parseDailyBars(rows [][]string) []model.DailyBar {
	bars := make([]model.DailyBar, 0, len(rows))
	for _, r := range rows {
		if len(r) != 18 {
			continue
		}
		bars = append(bars, model.DailyBar{
			Date:        r[0],
			Symbol:      r[1],
			Open:        parseFloat(r[2]),
			High:        parseFloat(r[3]),
			Low:         parseFloat(r[4]),
			Close:       parseFloat(r[5]),
			Preclose:    parseFloat(r[6]),
			Volume:      parseInt(r[7]),
			Amount:      parseFloat(r[8]),
			AdjustFlag:  r[9],
			Turn:        parseFloat(r[10]),
			TradeStatus: r[11],
			PctChg:      parseFloat(r[12]),
			PeTTM:       parseFloat(r[13]),
			PsTTM:       parseFloat(r[14]),
			PcfNcfTTM:   parseFloat(r[15]),
			PbMRQ:       parseFloat(r[16]),
			IsST:        r[17],
		})
	}
	return bars
}

// parseMinuteBars maps rows in minuteBarFields order into MinuteBar values.
func parseMinuteBars(rows [][]string) []model.MinuteBar {
	bars := make([]model.MinuteBar, 0, len(rows))
	for _, r := range rows {
		if len(r) != 10 {
			continue
		}
		bars = append(bars, model.MinuteBar{
			Date:       r[0],
			Time:       r[1],
			Symbol:     r[2],
			Open:       parseFloat(r[3]),
			High:       parseFloat(r[4]),
			Low:        parseFloat(r[5]),
			Close:      parseFloat(r[6]),
			Volume:     parseInt(r[7]),
			Amount:     parseFloat(r[8]),
			AdjustFlag: r[9],
		})
	}
	return bars
}

// parseFundamentals maps tabular statement rows into FundamentalRecord values.
// The key columns (code, pubDate, statDate) are lifted out; every other column
// goes into the Metrics JSON object verbatim. Year and quarter come from the
// statement date when it parses, else from the requested quarter.
func parseFundamentals(fields []string, rows [][]string, reqYear, reqQuarter int) []model.FundamentalRecord {
	codeIdx := fieldIndex(fields, "code")
	pubIdx := fieldIndex(fields, "pubDate")
	statIdx := fieldIndex(fields, "statDate")

	recs := make([]model.FundamentalRecord, 0, len(rows))
	for _, r := range rows {
		if len(r) != len(fields) || codeIdx < 0 || r[codeIdx] == "" {
			continue
		}

		rec := model.FundamentalRecord{
			Symbol:  r[codeIdx],
			Year:    int32(reqYear),
			Quarter: int32(reqQuarter),
		}
		if pubIdx >= 0 {
			rec.PubDate = r[pubIdx]
		}
		if statIdx >= 0 {
			rec.StatDate = r[statIdx]
		}
		if y, q, err := model.QuarterOf(rec.StatDate); err == nil {
			rec.Year, rec.Quarter = y, q
		}

		metrics := make(map[string]string, len(fields))
		for i, f := range fields {
			if i == codeIdx || i == pubIdx || i == statIdx {
				continue
			}
			metrics[f] = r[i]
		}
		if buf, err := json.Marshal(metrics); err == nil {
			rec.Metrics = string(buf)
		}

		recs = append(recs, rec)
	}
	return recs
}
