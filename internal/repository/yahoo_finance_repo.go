package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"forex-signal/config"
	"forex-signal/internal/dto"
	"forex-signal/pkg/common"
	"forex-signal/pkg/httpclient"
	"forex-signal/pkg/logger"
	"forex-signal/pkg/utils"

	"golang.org/x/time/rate"
)

type YahooFinanceRepository interface {
	Get(ctx context.Context, param dto.GetCandlesParam) (*dto.CandleData, error)
}

type yahooFinanceRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	mu             sync.Mutex
	now            func() time.Time
}

func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) YahooFinanceRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	headers := map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         "https://finance.yahoo.com/",
	}

	return &yahooFinanceRepository{
		httpClient: httpclient.New(cfg.YahooFinance.BaseURL, cfg.YahooFinance.Timeout, "",
			httpclient.WithRetry(cfg.YahooFinance.RetryCount, time.Second, 8*time.Second),
			httpclient.WithHeaders(headers)),
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		now:            utils.TimeNowUTC,
	}
}

// defaultYahooRange is the lookback used when the caller gives none.
func defaultYahooRange(interval string) string {
	switch interval {
	case dto.Interval1Hour:
		return "2m"
	case dto.Interval4Hour:
		return "4m"
	default:
		return "1y"
	}
}

// Get fetches chart bars. Yahoo has no 4h interval, so 4h is built from 1h
// bars resampled into UTC-aligned buckets.
func (r *yahooFinanceRepository) Get(ctx context.Context, param dto.GetCandlesParam) (*dto.CandleData, error) {
	r.mu.Lock()
	if !r.requestLimiter.Allow() {
		r.logger.DebugContext(ctx, "Yahoo Finance API request limit reached, waiting",
			logger.IntField("max_request_per_minute", r.cfg.YahooFinance.MaxRequestPerMinute),
		)
		if err := r.requestLimiter.Wait(ctx); err != nil {
			r.mu.Unlock()
			return nil, err
		}
	}
	r.mu.Unlock()

	rangeStr := param.Range
	if rangeStr == "" {
		rangeStr = defaultYahooRange(param.Interval)
	}
	period1, period2 := utils.MapPeriodeStringToUnix(rangeStr, r.now())
	if period1 == 0 || period2 == 0 {
		return nil, fmt.Errorf("invalid period: %s", rangeStr)
	}

	fetchInterval := param.Interval
	if param.Interval == dto.Interval4Hour {
		fetchInterval = dto.Interval1Hour
	}

	queryParams := map[string]string{
		"period1":        fmt.Sprintf("%d", period1),
		"period2":        fmt.Sprintf("%d", period2),
		"interval":       fetchInterval,
		"includePrePost": "false",
		"events":         "div,split",
	}

	var yahooResp dto.YahooFinanceResponse
	resp, err := r.httpClient.Get(ctx, "/"+url.PathEscape(param.Symbol), queryParams, &yahooResp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data from yahoo finance: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.ErrorContext(ctx, "Yahoo Finance API returned Non-OK status",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("symbol", param.Symbol),
			logger.StringField("body", resp.BodySnippet(512)))
		return nil, fmt.Errorf("yahoo finance api returned status: %d", resp.StatusCode)
	}

	if yahooResp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo finance api error: %v", yahooResp.Chart.Error)
	}

	if len(yahooResp.Chart.Result) == 0 || len(yahooResp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, param.Symbol)
	}

	result := yahooResp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	var ohlcv []dto.OHLCV
	for i, timestamp := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}

		// Yahoo reports missing bars as nulls, decoded to 0.
		if quote.Open[i] == 0 || quote.High[i] == 0 || quote.Low[i] == 0 || quote.Close[i] == 0 {
			continue
		}

		bar := dto.OHLCV{
			Timestamp: timestamp,
			Open:      quote.Open[i],
			High:      quote.High[i],
			Low:       quote.Low[i],
			Close:     quote.Close[i],
		}
		if i < len(quote.Volume) {
			bar.Volume = quote.Volume[i]
		}
		ohlcv = append(ohlcv, bar)
	}

	if param.Interval == dto.Interval4Hour {
		ohlcv = dto.ResampleOHLCV(ohlcv, 4*time.Hour)
	}
	ohlcv = dto.TrimLast(ohlcv, param.Limit)

	if len(ohlcv) == 0 {
		return nil, fmt.Errorf("%w for %s: no valid OHLCV rows", ErrNoData, param.Symbol)
	}

	marketPrice := result.Meta.RegularMarketPrice
	if marketPrice <= 0 {
		marketPrice = ohlcv[len(ohlcv)-1].Close
	}

	return &dto.CandleData{
		Symbol:      param.Symbol,
		Source:      common.SOURCE_YAHOO,
		Interval:    param.Interval,
		Range:       rangeStr,
		MarketPrice: marketPrice,
		OHLCV:       ohlcv,
	}, nil
}
