package strategy

import (
	"context"
	"strings"

	"forex-signal/config"
	"forex-signal/internal/contract"
	"forex-signal/internal/dto"
	"forex-signal/internal/indicator"
	"forex-signal/internal/repository"
	"forex-signal/pkg/common"
	"forex-signal/pkg/logger"
	"forex-signal/pkg/telegram"
	"forex-signal/pkg/utils"

	"golang.org/x/sync/errgroup"
	"gopkg.in/telebot.v3"
)

type watchedSymbol struct {
	Symbol string
	Name   string
}

var stockWatchList = []watchedSymbol{
	{"SB=F", "Sugar Futures"},
	{"SI=F", "Silver Futures"},
	{"HG=F", "Copper Futures"},
	{"NG=F", "Natural Gas Futures"},
	{"ZC=F", "Corn Futures"},
	{"LMT", "Lockheed Martin"},
	{"META", "Meta Platforms"},
	{"TSLA", "Tesla"},
	{"AMZN", "Amazon"},
	{"NVDA", "NVIDIA"},
	{"IWM", "Russell 2000 ETF"},
	{"^RUT", "Russell 2000 Index"},
	{"DIA", "DIA (SPDR Dow Jones ETF)"},
	{"QQQ", "QQQ (Invesco QQQ Trust or NASDAQ 100 Index)"},
	{"ADAUSDT", "Cardano"},
	{"BNBUSDT", "Binance Coin"},
}

// stockSnapshot is the last bar on which every indicator is defined.
type stockSnapshot struct {
	Close float64
	ATR   float64
	ADX   float64
	MACD  float64
	TEMA  float64
	CMO   float64
}

func stockIndicators(data *dto.CandleData) (stockSnapshot, bool) {
	if data.Len() < minIndicatorCandles {
		return stockSnapshot{}, false
	}

	closes := data.Closes()
	highs := data.Highs()
	lows := data.Lows()

	atr := indicator.ATR(highs, lows, closes, 14)
	atrMA := indicator.SMA(atr, 20)
	volMA := indicator.SMA(data.Volumes(), 50)
	adx := indicator.ADX(highs, lows, closes, 14)
	macd := indicator.MACDDiff(closes, 26, 12, 9)
	tema := indicator.TEMA(closes, 20)
	cmo := indicator.CMO(closes, 14)

	i := indicator.LastValidIndex(atr, atrMA, volMA, adx, macd, tema, cmo)
	if i < 0 {
		return stockSnapshot{}, false
	}
	return stockSnapshot{
		Close: closes[i],
		ATR:   atr[i],
		ADX:   adx[i],
		MACD:  macd[i],
		TEMA:  tema[i],
		CMO:   cmo[i],
	}, true
}

// voteStockDirection needs three of four indicators to agree.
func voteStockDirection(snap stockSnapshot) (dto.Direction, int, bool) {
	supertrend := snap.Close > snap.TEMA
	votes := []bool{
		snap.MACD > 0,
		supertrend,
		snap.Close > snap.TEMA,
		snap.CMO > 0,
	}

	longVotes := 0
	for _, v := range votes {
		if v {
			longVotes++
		}
	}
	shortVotes := len(votes) - longVotes

	switch {
	case longVotes >= 3:
		return dto.DirectionLong, longVotes * 100 / len(votes), true
	case shortVotes >= 3:
		return dto.DirectionShort, shortVotes * 100 / len(votes), true
	default:
		return "", 0, false
	}
}

// StockSignalStrategy votes across MACD, TEMA and CMO on a named watch list.
type StockSignalStrategy struct {
	cfg              *config.Config
	logger           *logger.Logger
	candleRepository repository.CandleRepository
	sender           contract.SignalSender
	watchList        []watchedSymbol
}

func NewStockSignalStrategy(
	cfg *config.Config,
	logger *logger.Logger,
	candleRepository repository.CandleRepository,
	sender contract.SignalSender) JobExecutionStrategy {
	return &StockSignalStrategy{
		cfg:              cfg,
		logger:           logger,
		candleRepository: candleRepository,
		sender:           sender,
		watchList:        stockWatchList,
	}
}

func (s *StockSignalStrategy) GetType() JobType {
	return JobTypeStockSignal
}

func (s *StockSignalStrategy) Description() string {
	return "Futures, equity and ETF consensus signals on 4h bars"
}

func (s *StockSignalStrategy) Execute(ctx context.Context) (JobResult, error) {
	summary := ScanSummary{Job: s.GetType()}
	signals := make([]*dto.Signal, len(s.watchList))
	errs := make([]error, len(s.watchList))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Stock.MaxConcurrency)
	for i, item := range s.watchList {
		i, item := i, item
		g.Go(func() error {
			if !utils.ShouldContinue(gctx, s.logger) {
				return gctx.Err()
			}
			signals[i], errs[i] = s.scanSymbol(gctx, item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary.Result(nil), err
	}
	if err := ctx.Err(); err != nil {
		return summary.Result(nil), err
	}

	var detected []dto.Signal
	for i, item := range s.watchList {
		summary.Scanned++
		if errs[i] != nil {
			summary.Failed++
			s.logger.WarnContext(ctx, "Skipping symbol", logger.StringField("symbol", item.Symbol), logger.ErrorField(errs[i]))
			continue
		}
		if signals[i] != nil {
			detected = append(detected, *signals[i])
		}
	}

	summary.Detected = len(detected)
	if len(detected) == 0 {
		s.logger.InfoContext(ctx, "No signals found", logger.IntField("scanned", summary.Scanned), logger.IntField("failed", summary.Failed))
		return summary.Result(nil), nil
	}

	top := dto.TopSignals(detected, s.cfg.Stock.TopSignals)
	err := dispatchSignals(ctx, s.logger, s.sender, s.GetType(), top, string(telebot.ModeMarkdown), renderStockSignal, &summary)
	return summary.Result(top), err
}

func (s *StockSignalStrategy) scanSymbol(ctx context.Context, item watchedSymbol) (*dto.Signal, error) {
	param := dto.GetCandlesParam{
		Source:   common.SOURCE_YAHOO,
		Symbol:   item.Symbol,
		Interval: s.cfg.Stock.Timeframe,
		Range:    s.cfg.Stock.Range,
	}
	if strings.HasSuffix(item.Symbol, "USDT") {
		param = dto.GetCandlesParam{
			Source:   common.SOURCE_BINANCE,
			Symbol:   item.Symbol,
			Interval: s.cfg.Stock.Timeframe,
			Limit:    s.cfg.Stock.Lookback,
		}
	}

	data, err := s.candleRepository.Get(ctx, param)
	if err != nil {
		return nil, err
	}
	snap, ok := stockIndicators(data)
	if !ok {
		s.logger.DebugContext(ctx, "Insufficient data", logger.StringField("symbol", item.Symbol), logger.IntField("candles", data.Len()))
		return nil, nil
	}
	if snap.ADX < s.cfg.Stock.MinADX {
		return nil, nil
	}

	direction, confidence, ok := voteStockDirection(snap)
	if !ok {
		return nil, nil
	}

	stopOffset := snap.ATR * s.cfg.Stock.ATRMultiplier
	signal := &dto.Signal{
		Symbol:          item.Symbol,
		Name:            item.Name,
		Source:          param.Source,
		Type:            dto.SignalConsensus,
		Direction:       direction,
		Entry:           snap.Close,
		Confidence:      confidence,
		VolatilityRatio: snap.ATR / snap.Close,
		Reason:          "MACD, TEMA and CMO consensus",
		GeneratedAt:     utils.TimeNowUTC(),
	}
	if direction.IsLong() {
		signal.StopLoss = snap.Close - stopOffset
		signal.TakeProfit = scaleTargets(snap.Close, 1.02, 1.035, 1.05)
	} else {
		signal.StopLoss = snap.Close + stopOffset
		signal.TakeProfit = scaleTargets(snap.Close, 0.98, 0.965, 0.95)
	}
	return signal, nil
}

func renderStockSignal(signal dto.Signal) string {
	return telegram.FormatMarketAlert(telegram.MarketAlert{
		Symbol:     signal.Symbol,
		Name:       signal.Name,
		IsLong:     signal.Direction.IsLong(),
		Entry:      signal.Entry,
		StopLoss:   signal.StopLoss,
		TakeProfit: signal.TakeProfit,
		Confidence: signal.Confidence,
		At:         signal.GeneratedAt,
	})
}
