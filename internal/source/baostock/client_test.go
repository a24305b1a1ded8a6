package baostock

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cn-data/internal/model"
)

// newTestGateway serves the login endpoint plus a scripted query handler.
func newTestGateway(t *testing.T, handle func(req queryRequest) queryResponse) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(loginResponse{ErrorCode: "0", Token: "test-token"})
	})
	mux.HandleFunc("/api/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"error_code": "0"})
	})
	mux.HandleFunc("/api/v1/query", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		var req queryRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(handle(req))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func openTestSession(t *testing.T, srv *httptest.Server) *gatewaySession {
	t.Helper()
	conn := NewConnector(srv.URL, "anonymous", "123456")
	sess, err := conn.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	return sess.(*gatewaySession)
}

func TestOpenRejectedLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(loginResponse{ErrorCode: "10001", ErrorMsg: "bad credentials"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := NewConnector(srv.URL, "user", "wrong").Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad credentials")
}

func TestTradingDaysFiltersNonTrading(t *testing.T) {
	srv := newTestGateway(t, func(req queryRequest) queryResponse {
		assert.Equal(t, "query_trade_dates", req.Method)
		assert.Equal(t, "2024-03-04", req.Params["start_date"])
		assert.Equal(t, "2024-03-10", req.Params["end_date"])
		return queryResponse{
			ErrorCode: "0",
			Fields:    []string{"calendar_date", "is_trading_day"},
			Data: [][]string{
				{"2024-03-08", "1"},
				{"2024-03-09", "0"},
				{"2024-03-10", "0"},
			},
		}
	})
	sess := openTestSession(t, srv)

	days, err := sess.TradingDays(context.Background(), "2024-03-04", "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-08"}, days)
}

func TestConstituentsResolvesIndexMethod(t *testing.T) {
	srv := newTestGateway(t, func(req queryRequest) queryResponse {
		assert.Equal(t, "query_zz500_stocks", req.Method)
		assert.Equal(t, "2024-03-08", req.Params["date"])
		return queryResponse{
			ErrorCode: "0",
			Fields:    []string{"updateDate", "code", "code_name"},
			Data: [][]string{
				{"2024-03-08", "sh.600004", "白云机场"},
				{"2024-03-08", "", ""},
			},
		}
	})
	sess := openTestSession(t, srv)

	members, err := sess.Constituents(context.Background(), "csi500", "2024-03-08")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, model.Constituent{Symbol: "sh.600004", Name: "白云机场"}, members[0])
}

func TestConstituentsUntrackedIndex(t *testing.T) {
	srv := newTestGateway(t, func(queryRequest) queryResponse {
		t.Error("untracked index must not reach the gateway")
		return queryResponse{}
	})
	sess := openTestSession(t, srv)

	_, err := sess.Constituents(context.Background(), "sp500", "2024-03-08")
	require.Error(t, err)
}

func TestDailyBarsRequestShape(t *testing.T) {
	srv := newTestGateway(t, func(req queryRequest) queryResponse {
		assert.Equal(t, "query_history_k_data_plus", req.Method)
		assert.Equal(t, "d", req.Params["frequency"])
		assert.Equal(t, "3", req.Params["adjustflag"])
		assert.Equal(t, dailyBarFields, req.Params["fields"])
		return queryResponse{ErrorCode: "0", Data: [][]string{
			{"2024-03-08", "sh.600000", "7.1", "7.2", "7.0", "7.15", "7.05",
				"1000", "7150.0", "3", "0.1", "1", "1.4", "4", "1", "6", "0.5", "0"},
		}}
	})
	sess := openTestSession(t, srv)

	bars, err := sess.DailyBars(context.Background(), "sh.600000", "2024-03-08", "2024-03-08")
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, "sh.600000", bars[0].Symbol)
	assert.Equal(t, 7.15, bars[0].Close)
}

func TestMinuteBarsRequestShape(t *testing.T) {
	srv := newTestGateway(t, func(req queryRequest) queryResponse {
		assert.Equal(t, "5", req.Params["frequency"])
		assert.Equal(t, minuteBarFields, req.Params["fields"])
		return queryResponse{ErrorCode: "0"}
	})
	sess := openTestSession(t, srv)

	bars, err := sess.MinuteBars(context.Background(), "sh.600000", "2024-03-08", "2024-03-08")
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestFundamentalsRequestShape(t *testing.T) {
	srv := newTestGateway(t, func(req queryRequest) queryResponse {
		assert.Equal(t, "query_dupont_data", req.Method)
		assert.Equal(t, "2023", req.Params["year"])
		assert.Equal(t, "2", req.Params["quarter"])
		return queryResponse{
			ErrorCode: "0",
			Fields:    []string{"code", "pubDate", "statDate", "dupontROE"},
			Data:      [][]string{{"sh.600000", "2023-08-30", "2023-06-30", "0.05"}},
		}
	})
	sess := openTestSession(t, srv)

	recs, err := sess.Fundamentals(context.Background(), "sh.600000", model.StatementDupont, 2023, 2)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int32(2023), recs[0].Year)
	assert.Equal(t, int32(2), recs[0].Quarter)
}

func TestQueryGatewayError(t *testing.T) {
	srv := newTestGateway(t, func(queryRequest) queryResponse {
		return queryResponse{ErrorCode: "10002", ErrorMsg: "token expired"}
	})
	sess := openTestSession(t, srv)

	_, err := sess.TradingDays(context.Background(), "2024-03-01", "2024-03-08")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}
