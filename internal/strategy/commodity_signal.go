package strategy

import (
	"context"
	"errors"
	"math"

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

// commodityAsset carries the per-asset indicator windows.
type commodityAsset struct {
	Name         string
	Symbol       string
	Source       string
	EMAWindow    int
	ATRPeriod    int
	ADXWindow    int
	RSIWindow    int
	VolumeFilter float64
}

var commodityAssets = []commodityAsset{
	{Name: "ETHUSDT", Symbol: "ETHUSDT", Source: common.SOURCE_BINANCE, EMAWindow: 18, ATRPeriod: 12, ADXWindow: 16, RSIWindow: 12, VolumeFilter: 1.8},
	{Name: "BTCUSDT", Symbol: "BTCUSDT", Source: common.SOURCE_BINANCE, EMAWindow: 22, ATRPeriod: 14, ADXWindow: 18, RSIWindow: 14, VolumeFilter: 1.5},
	{Name: "ADAUSDT", Symbol: "ADAUSDT", Source: common.SOURCE_BINANCE, EMAWindow: 16, ATRPeriod: 10, ADXWindow: 14, RSIWindow: 10, VolumeFilter: 2.0},
	{Name: "BNBUSDT", Symbol: "BNBUSDT", Source: common.SOURCE_BINANCE, EMAWindow: 20, ATRPeriod: 12, ADXWindow: 16, RSIWindow: 12, VolumeFilter: 1.7},
	{Name: "Gold", Symbol: "GC=F", Source: common.SOURCE_YAHOO, EMAWindow: 24, ATRPeriod: 18, ADXWindow: 20, RSIWindow: 16, VolumeFilter: 1.3},
	{Name: "Silver", Symbol: "SI=F", Source: common.SOURCE_YAHOO, EMAWindow: 20, ATRPeriod: 14, ADXWindow: 18, RSIWindow: 14, VolumeFilter: 1.4},
	{Name: "Microsoft", Symbol: "MSFT", Source: common.SOURCE_YAHOO, EMAWindow: 26, ATRPeriod: 16, ADXWindow: 22, RSIWindow: 18, VolumeFilter: 1.2},
}

type commodityRow struct {
	Close    float64
	EMA      float64
	ATR      float64
	ADX      float64
	RSI      float64
	ATRMA    float64
	MACD     float64
	Momentum float64
	VolRatio float64
}

// commodityFrame keeps only rows where every indicator is defined.
func commodityFrame(data *dto.CandleData, asset commodityAsset) []commodityRow {
	if data.Len() < minIndicatorCandles {
		return nil
	}

	closes := data.Closes()
	highs := data.Highs()
	lows := data.Lows()
	volumes := data.Volumes()

	ema := indicator.EMA(closes, asset.EMAWindow)
	atr := indicator.ATR(highs, lows, closes, asset.ATRPeriod)
	adx := indicator.ADX(highs, lows, closes, asset.ADXWindow)
	rsi := indicator.RSI(closes, asset.RSIWindow)
	atrMA := indicator.SMA(atr, int(float64(asset.ATRPeriod)*1.5))
	macd := indicator.Sub(ema, indicator.SMA(ema, 9))
	momentum := indicator.Momentum(closes)
	volRatio := indicator.Div(volumes, indicator.SMA(volumes, 50))

	valid := indicator.ValidRows(ema, atr, adx, rsi, atrMA, macd, momentum, volRatio)
	rows := make([]commodityRow, 0, len(valid))
	for _, i := range valid {
		rows = append(rows, commodityRow{
			Close:    closes[i],
			EMA:      ema[i],
			ATR:      atr[i],
			ADX:      adx[i],
			RSI:      rsi[i],
			ATRMA:    atrMA[i],
			MACD:     macd[i],
			Momentum: momentum[i],
			VolRatio: volRatio[i],
		})
	}
	return rows
}

// detectCommoditySignal grades the last row. ok is false when neither
// direction lines up.
func detectCommoditySignal(rows []commodityRow, asset commodityAsset) (direction dto.Direction, confidence int, row commodityRow, ok bool) {
	if len(rows) < 2 {
		return "", 0, commodityRow{}, false
	}
	row = rows[len(rows)-1]

	confidence = 30
	if row.VolRatio > asset.VolumeFilter {
		confidence += 20
	}
	if row.ADX > 25 {
		confidence += 20
	}
	if row.Momentum > 0 {
		confidence += 15
	} else {
		confidence -= 15
	}

	switch {
	case row.MACD > 0 && row.Close > row.EMA && row.RSI > 50 && row.Momentum > 0:
		return dto.DirectionLong, confidence, row, true
	case row.MACD < 0 && row.Close < row.EMA && row.RSI < 50 && row.Momentum < 0:
		return dto.DirectionShort, confidence, row, true
	default:
		return "", 0, row, false
	}
}

func commodityVolatilityRatio(row commodityRow) float64 {
	if math.IsNaN(row.ATRMA) || row.ATRMA == 0 {
		return 1.0
	}
	return utils.Round(row.ATR/row.ATRMA, 2)
}

// CommoditySignalStrategy scans crypto on Binance and metals and equities on
// Yahoo Finance.
type CommoditySignalStrategy struct {
	cfg              *config.Config
	logger           *logger.Logger
	candleRepository repository.CandleRepository
	sender           contract.SignalSender
	assets           []commodityAsset
}

func NewCommoditySignalStrategy(
	cfg *config.Config,
	logger *logger.Logger,
	candleRepository repository.CandleRepository,
	sender contract.SignalSender) JobExecutionStrategy {
	return &CommoditySignalStrategy{
		cfg:              cfg,
		logger:           logger,
		candleRepository: candleRepository,
		sender:           sender,
		assets:           commodityAssets,
	}
}

func (s *CommoditySignalStrategy) GetType() JobType {
	return JobTypeCommoditySignal
}

func (s *CommoditySignalStrategy) Description() string {
	return "Crypto, metals and equity momentum signals from Binance and Yahoo Finance"
}

type commodityOutcome struct {
	signal *dto.Signal
	err    error
}

func (s *CommoditySignalStrategy) Execute(ctx context.Context) (JobResult, error) {
	summary := ScanSummary{Job: s.GetType()}
	outcomes := make([]commodityOutcome, len(s.assets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Commodity.MaxConcurrency)
	for i, asset := range s.assets {
		i, asset := i, asset
		g.Go(func() error {
			if !utils.ShouldContinue(gctx, s.logger) {
				return gctx.Err()
			}
			signal, err := s.scanAsset(gctx, asset)
			outcomes[i] = commodityOutcome{signal: signal, err: err}
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
	for i, outcome := range outcomes {
		summary.Scanned++
		if outcome.err != nil {
			summary.Failed++
			s.logger.WarnContext(ctx, "Skipping asset",
				logger.StringField("asset", s.assets[i].Name), logger.ErrorField(outcome.err))
			continue
		}
		if outcome.signal != nil {
			detected = append(detected, *outcome.signal)
		}
	}

	summary.Detected = len(detected)
	top := dto.TopSignals(detected, s.cfg.Commodity.TopSignals)
	s.logger.InfoContext(ctx, "Commodity scan finished",
		logger.IntField("scanned", summary.Scanned),
		logger.IntField("failed", summary.Failed),
		logger.IntField("detected", summary.Detected),
	)

	if len(top) == 0 {
		notice := utils.EscapeMarkdownV2(telegram.NoQualifiedSignalsMessage)
		if err := s.sender.SendNotice(ctx, notice, string(telebot.ModeMarkdownV2)); err != nil {
			summary.SendFailed++
			s.logger.ErrorContext(ctx, "Failed to send no-signal notice", logger.ErrorField(err))
		}
		return summary.Result(nil), ctx.Err()
	}

	err := dispatchSignals(ctx, s.logger, s.sender, s.GetType(), top, string(telebot.ModeMarkdownV2), s.render, &summary)
	return summary.Result(top), err
}

func (s *CommoditySignalStrategy) scanAsset(ctx context.Context, asset commodityAsset) (*dto.Signal, error) {
	data, err := s.candleRepository.Get(ctx, s.candleParam(asset, s.cfg.Commodity.PrimaryTimeframe, s.cfg.Commodity.Lookback))
	if err != nil {
		return nil, err
	}
	if data.Len() == 0 {
		return nil, repository.ErrNoData
	}

	direction, confidence, row, ok := detectCommoditySignal(commodityFrame(data, asset), asset)
	if !ok {
		return nil, nil
	}
	s.logger.DebugContext(ctx, "Found commodity signal",
		logger.StringField("asset", asset.Name),
		logger.StringField("direction", string(direction)),
		logger.IntField("confidence", confidence))

	confidence += s.confirm(ctx, asset, direction)
	if confidence < s.cfg.Commodity.MinConfidence {
		return nil, nil
	}

	takeProfit := make([]float64, 3)
	for i := range takeProfit {
		offset := row.ATR * (0.5 + float64(i)*0.3)
		if direction.IsLong() {
			takeProfit[i] = row.Close + offset
		} else {
			takeProfit[i] = row.Close - offset
		}
	}

	return &dto.Signal{
		Symbol:          asset.Symbol,
		Name:            asset.Name,
		Source:          asset.Source,
		Type:            dto.SignalMomentum,
		Direction:       direction,
		Entry:           row.Close,
		TakeProfit:      takeProfit,
		Confidence:      confidence,
		VolatilityRatio: commodityVolatilityRatio(row),
		PositionSize:    s.cfg.Commodity.Capital * s.cfg.Commodity.RiskPerTrade,
		Reason:          "EMA trend with MACD, RSI and momentum agreement",
		GeneratedAt:     utils.TimeNowUTC(),
	}, nil
}

// confirm returns the boost when the confirmation frame points the same way.
// Any failure here only costs the boost.
func (s *CommoditySignalStrategy) confirm(ctx context.Context, asset commodityAsset, direction dto.Direction) int {
	data, err := s.candleRepository.Get(ctx, s.candleParam(asset, s.cfg.Commodity.ConfirmationTimeframe, s.cfg.Commodity.ConfirmationLookback))
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.DebugContext(ctx, "Confirmation failed", logger.StringField("asset", asset.Name), logger.ErrorField(err))
		}
		return 0
	}
	confDirection, _, _, ok := detectCommoditySignal(commodityFrame(data, asset), asset)
	if ok && confDirection == direction {
		return s.cfg.Commodity.ConfidenceBoost
	}
	return 0
}

// candleParam limits Binance by bar count; Yahoo is bounded by its range.
func (s *CommoditySignalStrategy) candleParam(asset commodityAsset, interval string, limit int) dto.GetCandlesParam {
	param := dto.GetCandlesParam{
		Source:   asset.Source,
		Symbol:   asset.Symbol,
		Interval: interval,
	}
	if asset.Source == common.SOURCE_BINANCE {
		param.Limit = limit
	}
	return param
}

func (s *CommoditySignalStrategy) render(signal dto.Signal) string {
	return telegram.FormatCommodityAlert(telegram.CommodityAlert{
		Asset:           signal.Name,
		IsLong:          signal.Direction.IsLong(),
		Entry:           signal.Entry,
		PositionPerTier: signal.PositionSize,
		VolatilityRatio: signal.VolatilityRatio,
		TakeProfit:      signal.TakeProfit,
		Confidence:      signal.Confidence,
		At:              signal.GeneratedAt,
	})
}
