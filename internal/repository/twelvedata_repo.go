package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"forex-signal/config"
	"forex-signal/internal/dto"
	"forex-signal/pkg/common"
	"forex-signal/pkg/httpclient"
	"forex-signal/pkg/logger"
	"forex-signal/pkg/ratelimit"
)

// ErrNoData is returned when a source answers without any usable candle.
var ErrNoData = errors.New("no data")

type TwelveDataRepository interface {
	GetTimeSeries(ctx context.Context, symbol string, interval string, outputSize int) (*dto.CandleData, error)
}

type twelveDataRepository struct {
	httpClient httpclient.HTTPClient
	cfg        *config.Config
	logger     *logger.Logger
	limiter    *ratelimit.TokenLimiter
}

func NewTwelveDataRepository(cfg *config.Config, log *logger.Logger) TwelveDataRepository {
	return &twelveDataRepository{
		httpClient: httpclient.New(cfg.TwelveData.BaseURL, cfg.TwelveData.Timeout, "",
			httpclient.WithRetry(cfg.TwelveData.RetryCount, time.Second, 5*time.Second)),
		cfg:     cfg,
		logger:  log,
		limiter: ratelimit.NewTokenLimiter(cfg.TwelveData.MaxRequestPerMinute),
	}
}

func (r *twelveDataRepository) GetTimeSeries(ctx context.Context, symbol string, interval string, outputSize int) (*dto.CandleData, error) {
	if remaining := r.limiter.Remaining(); remaining == 0 {
		r.logger.DebugContext(ctx, "TwelveData credits exhausted, waiting for next window",
			logger.IntField("max_request_per_minute", r.cfg.TwelveData.MaxRequestPerMinute),
		)
	}
	if err := r.limiter.Wait(ctx, 1); err != nil {
		return nil, err
	}

	queryParams := map[string]string{
		"symbol":     symbol,
		"interval":   interval,
		"outputsize": strconv.Itoa(outputSize),
		"timezone":   "UTC",
		"apikey":     r.cfg.TwelveData.APIKey,
	}

	var body dto.TwelveDataTimeSeriesResponse
	resp, err := r.httpClient.Get(ctx, "/time_series", queryParams, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch time series from twelvedata: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.ErrorContext(ctx, "TwelveData API returned Non-OK status",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("symbol", symbol),
			logger.StringField("interval", interval),
			logger.IntField("attempts", resp.Attempts),
		)
		return nil, fmt.Errorf("twelvedata api returned status: %d", resp.StatusCode)
	}

	if len(body.Values) == 0 {
		return nil, fmt.Errorf("%w for %s (%s): %s", ErrNoData, symbol, interval, body.Message)
	}

	ohlcv := make([]dto.OHLCV, 0, len(body.Values))
	for i := len(body.Values) - 1; i >= 0; i-- {
		bar, ok := parseTwelveDataValue(body.Values[i])
		if !ok {
			continue
		}
		ohlcv = append(ohlcv, bar)
	}

	if len(ohlcv) == 0 {
		return nil, fmt.Errorf("%w for %s (%s): no parsable rows", ErrNoData, symbol, interval)
	}

	return &dto.CandleData{
		Symbol:      symbol,
		Source:      common.SOURCE_TWELVEDATA,
		Interval:    interval,
		MarketPrice: ohlcv[len(ohlcv)-1].Close,
		OHLCV:       ohlcv,
	}, nil
}

func parseTwelveDataValue(v dto.TwelveDataValue) (dto.OHLCV, bool) {
	var bar dto.OHLCV
	prices := []struct {
		raw string
		dst *float64
	}{
		{v.Open, &bar.Open},
		{v.High, &bar.High},
		{v.Low, &bar.Low},
		{v.Close, &bar.Close},
	}
	for _, p := range prices {
		f, ok := parseFinite(p.raw)
		if !ok {
			return dto.OHLCV{}, false
		}
		*p.dst = f
	}

	if v.Volume != "" {
		bar.Volume, _ = parseFinite(v.Volume)
	}

	for _, layout := range []string{dto.TwelveDataDatetimeLayout, dto.TwelveDataDateLayout} {
		if ts, err := time.ParseInLocation(layout, v.Datetime, time.UTC); err == nil {
			bar.Timestamp = ts.Unix()
			break
		}
	}
	return bar, true
}

// parseFinite rejects the "NaN" and "Inf" spellings strconv accepts.
func parseFinite(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
