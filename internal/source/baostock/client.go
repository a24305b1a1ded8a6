// Package baostock implements the source capability interface against a
// BaoStock-style HTTP gateway: token login, tabular JSON query responses.
package baostock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"cn-data/internal/model"
	"cn-data/internal/source"
)

const (
	defaultTimeout = 2 * time.Minute
	maxRetries     = 3
	retryWait      = 5 * time.Second

	// The gateway throttles aggressively; one session stays under
	// queriesPerMinute and the pool size bounds the total rate.
	queriesPerMinute = 120
)

// dailyBarFields is the full 18-column daily bar request, in response order.
const dailyBarFields = "date,code,open,high,low,close,preclose,volume,amount," +
	"adjustflag,turn,tradestatus,pctChg,peTTM,psTTM,pcfNcfTTM,pbMRQ,isST"

// minuteBarFields is the 5-minute bar request, in response order.
const minuteBarFields = "date,time,code,open,high,low,close,volume,amount,adjustflag"

// indexMethods maps tracked index names to gateway query methods. Resolved
// here once rather than by dynamic name lookup per call.
var indexMethods = map[string]string{
	"csi300": "query_hs300_stocks",
	"csi500": "query_zz500_stocks",
}

// statementMethods maps statement families to gateway query methods.
var statementMethods = map[model.StatementType]string{
	model.StatementProfit:    "query_profit_data",
	model.StatementOperation: "query_operation_data",
	model.StatementGrowth:    "query_growth_data",
	model.StatementBalance:   "query_balance_data",
	model.StatementCashFlow:  "query_cash_flow_data",
	model.StatementDupont:    "query_dupont_data",
}

// Connector opens authenticated gateway sessions.
type Connector struct {
	baseURL  string
	user     string
	password string
}

var _ source.Connector = (*Connector)(nil)

// NewConnector creates a Connector for the gateway at baseURL.
func NewConnector(baseURL, user, password string) *Connector {
	return &Connector{baseURL: baseURL, user: user, password: password}
}

// Open logs in and returns a Session holding the issued token.
func (c *Connector) Open(ctx context.Context) (source.Session, error) {
	client := resty.New().
		SetBaseURL(c.baseURL).
		SetTimeout(defaultTimeout).
		SetRetryCount(maxRetries).
		SetRetryWaitTime(retryWait)

	var lr loginResponse
	resp, err := client.R().
		SetContext(ctx).
		SetBody(map[string]string{"user": c.user, "password": c.password}).
		SetResult(&lr).
		Post("/api/v1/login")
	if err != nil {
		return nil, fmt.Errorf("gateway login: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gateway login: status %s", resp.Status())
	}
	if lr.ErrorCode != "0" {
		return nil, fmt.Errorf("gateway login refused: %s", lr.ErrorMsg)
	}

	client.SetAuthToken(lr.Token)
	slog.Debug("gateway session opened", "url", c.baseURL)
	return &gatewaySession{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(float64(queriesPerMinute)/60.0), 1),
	}, nil
}

// gatewaySession is one authenticated session with its own rate limiter.
type gatewaySession struct {
	client  *resty.Client
	limiter *rate.Limiter
}

var _ source.Session = (*gatewaySession)(nil)

// query runs one tabular query against the gateway.
func (s *gatewaySession) query(ctx context.Context, method string, params map[string]string) (*queryResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var qr queryResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(queryRequest{Method: method, Params: params}).
		SetResult(&qr).
		Post("/api/v1/query")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s: status %s", method, resp.Status())
	}
	if !qr.ok() {
		return nil, fmt.Errorf("%s: gateway error %s: %s", method, qr.ErrorCode, qr.ErrorMsg)
	}
	return &qr, nil
}

// TradingDays returns the trading dates in [start, end], in ascending order.
func (s *gatewaySession) TradingDays(ctx context.Context, start, end string) ([]string, error) {
	qr, err := s.query(ctx, "query_trade_dates", map[string]string{
		"start_date": start,
		"end_date":   end,
	})
	if err != nil {
		return nil, err
	}

	dateIdx := fieldIndex(qr.Fields, "calendar_date")
	flagIdx := fieldIndex(qr.Fields, "is_trading_day")
	if dateIdx < 0 || flagIdx < 0 {
		return nil, fmt.Errorf("query_trade_dates: unexpected fields %v", qr.Fields)
	}

	var days []string
	for _, row := range qr.Data {
		if len(row) <= dateIdx || len(row) <= flagIdx {
			continue
		}
		if row[flagIdx] == "1" {
			days = append(days, row[dateIdx])
		}
	}
	return days, nil
}

// Constituents returns the members of index on date. Empty on non-trading days.
func (s *gatewaySession) Constituents(ctx context.Context, index, date string) ([]model.Constituent, error) {
	method, ok := indexMethods[index]
	if !ok {
		return nil, fmt.Errorf("untracked index %q", index)
	}

	qr, err := s.query(ctx, method, map[string]string{"date": date})
	if err != nil {
		return nil, err
	}

	codeIdx := fieldIndex(qr.Fields, "code")
	nameIdx := fieldIndex(qr.Fields, "code_name")
	if codeIdx < 0 {
		return nil, fmt.Errorf("%s: unexpected fields %v", method, qr.Fields)
	}

	var members []model.Constituent
	for _, row := range qr.Data {
		if len(row) <= codeIdx || row[codeIdx] == "" {
			continue
		}
		m := model.Constituent{Symbol: row[codeIdx]}
		if nameIdx >= 0 && len(row) > nameIdx {
			m.Name = row[nameIdx]
		}
		members = append(members, m)
	}
	return members, nil
}

// DailyBars returns daily bars for symbol in [start, end].
func (s *gatewaySession) DailyBars(ctx context.Context, symbol, start, end string) ([]model.DailyBar, error) {
	qr, err := s.query(ctx, "query_history_k_data_plus", map[string]string{
		"code":       symbol,
		"fields":     dailyBarFields,
		"start_date": start,
		"end_date":   end,
		"frequency":  "d",
		"adjustflag": "3",
	})
	if err != nil {
		return nil, err
	}
	return parseDailyBars(qr.Data), nil
}

// MinuteBars returns 5-minute bars for symbol in [start, end].
func (s *gatewaySession) MinuteBars(ctx context.Context, symbol, start, end string) ([]model.MinuteBar, error) {
	qr, err := s.query(ctx, "query_history_k_data_plus", map[string]string{
		"code":       symbol,
		"fields":     minuteBarFields,
		"start_date": start,
		"end_date":   end,
		"frequency":  "5",
		"adjustflag": "3",
	})
	if err != nil {
		return nil, err
	}
	return parseMinuteBars(qr.Data), nil
}

// Fundamentals returns one statement family for symbol in (year, quarter).
func (s *gatewaySession) Fundamentals(ctx context.Context, symbol string, st model.StatementType, year, quarter int) ([]model.FundamentalRecord, error) {
	method, ok := statementMethods[st]
	if !ok {
		return nil, fmt.Errorf("unknown statement type %q", st)
	}

	qr, err := s.query(ctx, method, map[string]string{
		"code":    symbol,
		"year":    fmt.Sprintf("%d", year),
		"quarter": fmt.Sprintf("%d", quarter),
	})
	if err != nil {
		return nil, err
	}
	return parseFundamentals(qr.Fields, qr.Data, year, quarter), nil
}

// Close logs out. Best effort; the token simply expires server-side otherwise.
func (s *gatewaySession) Close() error {
	resp, err := s.client.R().Post("/api/v1/logout")
	if err != nil {
		return fmt.Errorf("gateway logout: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("gateway logout: status %s", resp.Status())
	}
	slog.Debug("gateway session closed")
	return nil
}
