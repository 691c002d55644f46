package repository

import (
	"context"
	"fmt"

	"forex-signal/internal/dto"
	"forex-signal/pkg/common"
)

// CandleRepository routes candle requests to the source named in the param.
type CandleRepository interface {
	Get(ctx context.Context, param dto.GetCandlesParam) (*dto.CandleData, error)
}

type candleRepository struct {
	twelveDataRepo TwelveDataRepository
	binanceRepo    BinanceRepository
	yahooRepo      YahooFinanceRepository
}

func NewCandleRepository(twelveDataRepo TwelveDataRepository, binanceRepo BinanceRepository, yahooRepo YahooFinanceRepository) CandleRepository {
	return &candleRepository{
		twelveDataRepo: twelveDataRepo,
		binanceRepo:    binanceRepo,
		yahooRepo:      yahooRepo,
	}
}

func (r *candleRepository) Get(ctx context.Context, param dto.GetCandlesParam) (*dto.CandleData, error) {
	switch param.Source {
	case common.SOURCE_TWELVEDATA:
		return r.twelveDataRepo.GetTimeSeries(ctx, param.Symbol, param.Interval, param.Limit)
	case common.SOURCE_BINANCE:
		return r.binanceRepo.Get(ctx, param)
	case common.SOURCE_YAHOO:
		return r.yahooRepo.Get(ctx, param)
	default:
		return nil, fmt.Errorf("unknown candle source %q", param.Source)
	}
}
