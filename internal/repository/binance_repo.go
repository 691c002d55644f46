package repository

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"forex-signal/config"
	"forex-signal/internal/dto"
	"forex-signal/pkg/common"
	"forex-signal/pkg/httpclient"
	"forex-signal/pkg/logger"

	"golang.org/x/time/rate"
)

const binanceMaxKlines = 1000

type BinanceRepository interface {
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]dto.BinanceKlines, error)
	GetLastPrice(ctx context.Context, symbol string) (*dto.BinancePrice, error)
	Get(ctx context.Context, param dto.GetCandlesParam) (*dto.CandleData, error)
}

type binanceRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
}

func NewBinanceRepository(cfg *config.Config, log *logger.Logger) BinanceRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Binance.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &binanceRepository{
		httpClient: httpclient.New(cfg.Binance.BaseURL, cfg.Binance.Timeout, "",
			httpclient.WithRetry(cfg.Binance.RetryCount, time.Second, 8*time.Second)),
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
	}
}

func (r *binanceRepository) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]dto.BinanceKlines, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > binanceMaxKlines {
		limit = binanceMaxKlines
	}

	queryParams := map[string]string{
		"symbol":   symbol,
		"interval": interval,
		"limit":    strconv.Itoa(limit),
	}

	var klines [][]interface{}
	resp, err := r.httpClient.Get(ctx, "/api/v3/klines", queryParams, &klines)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch klines from binance: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.ErrorContext(ctx, "Binance API returned Non-OK status for klines",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("symbol", symbol),
			logger.StringField("body", resp.BodySnippet(512)))
		return nil, fmt.Errorf("binance api returned status: %d", resp.StatusCode)
	}

	result := make([]dto.BinanceKlines, 0, len(klines))
	for _, k := range klines {
		kline, ok := parseKline(k)
		if !ok {
			continue
		}
		result = append(result, kline)
	}

	return result, nil
}

func parseKline(k []interface{}) (dto.BinanceKlines, bool) {
	if len(k) < 9 {
		return dto.BinanceKlines{}, false
	}
	openTime, ok1 := k[0].(float64)
	closeTime, _ := k[6].(float64)
	trades, _ := k[8].(float64)

	values := make([]float64, 0, 6)
	for _, idx := range []int{1, 2, 3, 4, 5, 7} {
		s, ok := k[idx].(string)
		if !ok {
			return dto.BinanceKlines{}, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return dto.BinanceKlines{}, false
		}
		values = append(values, f)
	}
	if !ok1 {
		return dto.BinanceKlines{}, false
	}

	return dto.BinanceKlines{
		OpenTime:         int64(openTime),
		Open:             values[0],
		High:             values[1],
		Low:              values[2],
		Close:            values[3],
		Volume:           values[4],
		CloseTime:        int64(closeTime),
		QuoteAssetVolume: values[5],
		NumberOfTrades:   int64(trades),
	}, true
}

func (r *binanceRepository) Get(ctx context.Context, param dto.GetCandlesParam) (*dto.CandleData, error) {
	klines, err := r.GetKlines(ctx, param.Symbol, param.Interval, param.Limit)
	if err != nil {
		return nil, err
	}
	if len(klines) == 0 {
		return nil, fmt.Errorf("%w for %s (%s)", ErrNoData, param.Symbol, param.Interval)
	}

	ohlcv := make([]dto.OHLCV, 0, len(klines))
	for _, k := range klines {
		ohlcv = append(ohlcv, dto.OHLCV{
			Timestamp: k.OpenTime / 1000,
			Open:      k.Open,
			High:      k.High,
			Low:       k.Low,
			Close:     k.Close,
			Volume:    k.Volume,
		})
	}

	return &dto.CandleData{
		Symbol:      param.Symbol,
		Source:      common.SOURCE_BINANCE,
		Interval:    param.Interval,
		MarketPrice: ohlcv[len(ohlcv)-1].Close,
		OHLCV:       ohlcv,
	}, nil
}

func (r *binanceRepository) GetLastPrice(ctx context.Context, symbol string) (*dto.BinancePrice, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var respData map[string]string
	resp, err := r.httpClient.Get(ctx, "/api/v3/ticker/price", map[string]string{"symbol": symbol}, &respData)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch last price from binance: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.ErrorContext(ctx, "Binance API returned Non-OK status for price",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", resp.BodySnippet(512)))
		return nil, fmt.Errorf("binance api returned status: %d", resp.StatusCode)
	}

	price, err := strconv.ParseFloat(respData["price"], 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price from binance: %w", err)
	}

	return &dto.BinancePrice{
		Symbol: symbol,
		Price:  price,
	}, nil
}
