package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"forex-signal/config"
	"forex-signal/internal/dto"
	"forex-signal/pkg/common"
	"forex-signal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) *config.Config {
	api := config.MarketAPI{BaseURL: baseURL, Timeout: 2 * time.Second, MaxRequestPerMinute: 6000}
	return &config.Config{
		TwelveData: config.TwelveData{
			APIKey: "td-key", BaseURL: baseURL, Timeout: 2 * time.Second, MaxRequestPerMinute: 100,
		},
		Binance:      api,
		YahooFinance: api,
		Scheduler:    config.Scheduler{HistoryLimit: 10},
	}
}

func TestTwelveDataRepository_GetTimeSeries(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time_series", r.URL.Path)
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"meta": {"symbol": "EUR/USD", "interval": "4h", "type": "Physical Currency"},
			"values": [
				{"datetime": "2025-03-04 08:00:00", "open": "1.0500", "high": "1.0600", "low": "1.0450", "close": "1.0550"},
				{"datetime": "2025-03-04 04:00:00", "open": "bad", "high": "1.0500", "low": "1.0400", "close": "1.0500"},
				{"datetime": "2025-03-04 00:00:00", "open": "1.0400", "high": "1.0520", "low": "1.0390", "close": "1.0500"}
			],
			"status": "ok"
		}`)
	}))
	defer srv.Close()

	repo := NewTwelveDataRepository(testConfig(srv.URL), logger.NewNop())
	data, err := repo.GetTimeSeries(context.Background(), "EUR/USD", "4h", 200)
	require.NoError(t, err)

	assert.Equal(t, "EUR/USD", query["symbol"])
	assert.Equal(t, "4h", query["interval"])
	assert.Equal(t, "200", query["outputsize"])
	assert.Equal(t, "td-key", query["apikey"])

	require.Len(t, data.OHLCV, 2, "unparsable row dropped")
	assert.Equal(t, 1.04, data.OHLCV[0].Open, "oldest first")
	assert.Equal(t, 1.055, data.OHLCV[1].Close)
	assert.Equal(t, time.Date(2025, time.March, 4, 8, 0, 0, 0, time.UTC).Unix(), data.OHLCV[1].Timestamp)
	assert.Equal(t, 1.055, data.MarketPrice)
	assert.Equal(t, common.SOURCE_TWELVEDATA, data.Source)
}

func TestParseTwelveDataValue_RejectsNonFinite(t *testing.T) {
	valid := dto.TwelveDataValue{Datetime: "2025-03-04 08:00:00", Open: "1.05", High: "1.06", Low: "1.04", Close: "1.055"}
	_, ok := parseTwelveDataValue(valid)
	require.True(t, ok)

	tests := []struct {
		name  string
		apply func(v *dto.TwelveDataValue)
	}{
		{"nan open", func(v *dto.TwelveDataValue) { v.Open = "NaN" }},
		{"inf high", func(v *dto.TwelveDataValue) { v.High = "Inf" }},
		{"negative inf low", func(v *dto.TwelveDataValue) { v.Low = "-Inf" }},
		{"nan close", func(v *dto.TwelveDataValue) { v.Close = "nan" }},
		{"infinity close", func(v *dto.TwelveDataValue) { v.Close = "+Infinity" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := valid
			tt.apply(&v)
			_, ok := parseTwelveDataValue(v)
			assert.False(t, ok)
		})
	}

	v := valid
	v.Volume = "NaN"
	bar, ok := parseTwelveDataValue(v)
	require.True(t, ok)
	assert.Zero(t, bar.Volume)
}

func TestTwelveDataRepository_AllNonFiniteIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"values": [
			{"datetime": "2025-03-04 08:00:00", "open": "NaN", "high": "1.06", "low": "1.04", "close": "1.05"},
			{"datetime": "2025-03-04 04:00:00", "open": "1.04", "high": "Inf", "low": "1.03", "close": "1.04"}
		], "status": "ok"}`)
	}))
	defer srv.Close()

	_, err := NewTwelveDataRepository(testConfig(srv.URL), logger.NewNop()).GetTimeSeries(context.Background(), "EUR/USD", "4h", 200)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestTwelveDataRepository_ErrorBodyIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"code": 429, "message": "You have run out of API credits", "status": "error"}`)
	}))
	defer srv.Close()

	repo := NewTwelveDataRepository(testConfig(srv.URL), logger.NewNop())
	_, err := repo.GetTimeSeries(context.Background(), "EUR/USD", "1h", 200)

	require.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "run out of API credits")
}

func TestTwelveDataRepository_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"values": [{"datetime": "2025-03-04", "open": "1", "high": "2", "low": "0.5", "close": "1.5"}], "status": "ok"}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.TwelveData.RetryCount = 2
	repo := NewTwelveDataRepository(cfg, logger.NewNop())

	data, err := repo.GetTimeSeries(context.Background(), "EUR/USD", "1day", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC).Unix(), data.OHLCV[0].Timestamp)
}

func TestBinanceRepository_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "4h", r.URL.Query().Get("interval"))
		assert.Equal(t, "500", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			[1741046400000, "90000.0", "91000.0", "89000.0", "90500.0", "12.5", 1741060799999, "1131250.0", 420, "6.0", "540000.0", "0"],
			[1741060800000, "90500.0", "92000.0", "90100.0", "91800.0", "10.0", 1741075199999, "918000.0", 380, "5.0", "459000.0", "0"]
		]`)
	}))
	defer srv.Close()

	repo := NewBinanceRepository(testConfig(srv.URL), logger.NewNop())
	data, err := repo.Get(context.Background(), dto.GetCandlesParam{Symbol: "BTCUSDT", Interval: "4h", Limit: 500})
	require.NoError(t, err)

	require.Len(t, data.OHLCV, 2)
	assert.Equal(t, int64(1741046400), data.OHLCV[0].Timestamp)
	assert.Equal(t, 12.5, data.OHLCV[0].Volume)
	assert.Equal(t, 91800.0, data.MarketPrice)
	assert.Equal(t, common.SOURCE_BINANCE, data.Source)
}

func TestBinanceRepository_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code": -1121, "msg": "Invalid symbol."}`)
	}))
	defer srv.Close()

	repo := NewBinanceRepository(testConfig(srv.URL), logger.NewNop())
	_, err := repo.Get(context.Background(), dto.GetCandlesParam{Symbol: "NOPE", Interval: "4h"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestBinanceRepository_GetLastPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"symbol": "ETHUSDT", "price": "2100.55"}`)
	}))
	defer srv.Close()

	repo := NewBinanceRepository(testConfig(srv.URL), logger.NewNop())
	price, err := repo.GetLastPrice(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, 2100.55, price.Price)
}

func TestYahooFinanceRepository_ResamplesFourHour(t *testing.T) {
	base := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC).Unix()
	var interval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/GC=F", r.URL.Path)
		interval = r.URL.Query().Get("interval")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"chart": {"result": [{
			"meta": {"symbol": "GC=F", "regularMarketPrice": 2950.5},
			"timestamp": [%d, %d, %d, %d, %d],
			"indicators": {"quote": [{
				"open":   [2900, 2905, null, 2910, 2920],
				"high":   [2910, 2915, null, 2925, 2930],
				"low":    [2895, 2900, null, 2905, 2915],
				"close":  [2905, 2912, null, 2920, 2925],
				"volume": [100, 200, null, 300, 400]
			}]}
		}], "error": null}}`, base, base+3600, base+7200, base+10800, base+14400)
	}))
	defer srv.Close()

	repo := NewYahooFinanceRepository(testConfig(srv.URL), logger.NewNop())
	data, err := repo.Get(context.Background(), dto.GetCandlesParam{Symbol: "GC=F", Interval: "4h"})
	require.NoError(t, err)

	assert.Equal(t, "1h", interval)
	require.Len(t, data.OHLCV, 2)
	assert.Equal(t, dto.OHLCV{Timestamp: base, Open: 2900, High: 2925, Low: 2895, Close: 2920, Volume: 600}, data.OHLCV[0])
	assert.Equal(t, base+14400, data.OHLCV[1].Timestamp)
	assert.Equal(t, 2950.5, data.MarketPrice)
	assert.Equal(t, "4m", data.Range)
}

func TestYahooFinanceRepository_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"chart": {"result": [], "error": null}}`)
	}))
	defer srv.Close()

	repo := NewYahooFinanceRepository(testConfig(srv.URL), logger.NewNop())
	_, err := repo.Get(context.Background(), dto.GetCandlesParam{Symbol: "MSFT", Interval: "1h"})
	assert.ErrorIs(t, err, ErrNoData)

	_, err = repo.Get(context.Background(), dto.GetCandlesParam{Symbol: "MSFT", Interval: "1h", Range: "7y"})
	assert.Error(t, err)
}

type stubTwelveData struct{ calls int }

func (s *stubTwelveData) GetTimeSeries(_ context.Context, symbol, interval string, size int) (*dto.CandleData, error) {
	s.calls++
	return &dto.CandleData{Symbol: symbol, Interval: interval, Source: common.SOURCE_TWELVEDATA}, nil
}

type stubYahoo struct{ calls int }

func (s *stubYahoo) Get(_ context.Context, p dto.GetCandlesParam) (*dto.CandleData, error) {
	s.calls++
	return &dto.CandleData{Symbol: p.Symbol, Source: common.SOURCE_YAHOO}, nil
}

func TestCandleRepository_RoutesBySource(t *testing.T) {
	td := &stubTwelveData{}
	yahoo := &stubYahoo{}
	repo := NewCandleRepository(td, nil, yahoo)

	data, err := repo.Get(context.Background(), dto.GetCandlesParam{Source: common.SOURCE_TWELVEDATA, Symbol: "EUR/USD", Interval: "4h", Limit: 200})
	require.NoError(t, err)
	assert.Equal(t, common.SOURCE_TWELVEDATA, data.Source)

	_, err = repo.Get(context.Background(), dto.GetCandlesParam{Source: common.SOURCE_YAHOO, Symbol: "MSFT"})
	require.NoError(t, err)

	_, err = repo.Get(context.Background(), dto.GetCandlesParam{Source: "BLOOMBERG"})
	assert.Error(t, err)

	assert.Equal(t, 1, td.calls)
	assert.Equal(t, 1, yahoo.calls)
}

func TestNewRepository_MemoryExecutionsWithoutDB(t *testing.T) {
	repo := NewRepository(testConfig("http://localhost"), nil, logger.NewNop())
	_, ok := repo.ExecutionRepo.(*memoryExecutionRepository)
	assert.True(t, ok)
}
