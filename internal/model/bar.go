package model

// DailyBar is one daily OHLCV bar with the full set of BaoStock daily fields.
// Shared by source, store and serialization (parquet).
type DailyBar struct {
	Symbol      string  `json:"symbol" parquet:"symbol"`
	Date        string  `json:"date" parquet:"date"` // "2024-01-15"
	Open        float64 `json:"open" parquet:"open"`
	High        float64 `json:"high" parquet:"high"`
	Low         float64 `json:"low" parquet:"low"`
	Close       float64 `json:"close" parquet:"close"`
	Preclose    float64 `json:"preclose" parquet:"preclose"`
	Volume      int64   `json:"volume" parquet:"volume"`
	Amount      float64 `json:"amount" parquet:"amount"`
	AdjustFlag  string  `json:"adjustflag" parquet:"adjustflag"`
	Turn        float64 `json:"turn" parquet:"turn"`
	TradeStatus string  `json:"tradestatus" parquet:"tradestatus"` // "1" trading, "0" suspended
	PctChg      float64 `json:"pctChg" parquet:"pctChg"`
	PeTTM       float64 `json:"peTTM" parquet:"peTTM"`
	PsTTM       float64 `json:"psTTM" parquet:"psTTM"`
	PcfNcfTTM   float64 `json:"pcfNcfTTM" parquet:"pcfNcfTTM"`
	PbMRQ       float64 `json:"pbMRQ" parquet:"pbMRQ"`
	IsST        string  `json:"isST" parquet:"isST"` // "1" or "0"
}

// Year returns the partition year ("YYYY") derived from the bar date.
func (b DailyBar) Year() string {
	if len(b.Date) < 4 {
		return ""
	}
	return b.Date[:4]
}

// MinuteBar is one 5-minute intraday bar.
// Time is the bar-end label in "HHMMSS" form as reported by the source.
type MinuteBar struct {
	Symbol     string  `json:"symbol" parquet:"symbol"`
	Date       string  `json:"date" parquet:"date"`
	Time       string  `json:"time" parquet:"time"`
	Open       float64 `json:"open" parquet:"open"`
	High       float64 `json:"high" parquet:"high"`
	Low        float64 `json:"low" parquet:"low"`
	Close      float64 `json:"close" parquet:"close"`
	Volume     int64   `json:"volume" parquet:"volume"`
	Amount     float64 `json:"amount" parquet:"amount"`
	AdjustFlag string  `json:"adjustflag" parquet:"adjustflag"`
}

// Year returns the partition year ("YYYY") derived from the bar date.
func (b MinuteBar) Year() string {
	if len(b.Date) < 4 {
		return ""
	}
	return b.Date[:4]
}
