package strategy

import (
	"context"
	"errors"

	"forex-signal/config"
	"forex-signal/internal/contract"
	"forex-signal/internal/dto"
	"forex-signal/internal/repository"
	"forex-signal/pkg/common"
	"forex-signal/pkg/logger"
	"forex-signal/pkg/telegram"
	"forex-signal/pkg/utils"

	"gopkg.in/telebot.v3"
)

// ForexSignalStrategy scans the configured currency pairs on TwelveData.
type ForexSignalStrategy struct {
	cfg              *config.Config
	logger           *logger.Logger
	candleRepository repository.CandleRepository
	sender           contract.SignalSender
}

func NewForexSignalStrategy(
	cfg *config.Config,
	logger *logger.Logger,
	candleRepository repository.CandleRepository,
	sender contract.SignalSender) JobExecutionStrategy {
	return &ForexSignalStrategy{
		cfg:              cfg,
		logger:           logger,
		candleRepository: candleRepository,
		sender:           sender,
	}
}

func (s *ForexSignalStrategy) GetType() JobType {
	return JobTypeForexSignal
}

func (s *ForexSignalStrategy) Description() string {
	return "Forex trend and reversal signals from TwelveData"
}

func (s *ForexSignalStrategy) Execute(ctx context.Context) (JobResult, error) {
	summary := ScanSummary{Job: s.GetType()}
	var detected []dto.Signal

	for _, pair := range s.cfg.Forex.Pairs {
		if !utils.ShouldContinue(ctx, s.logger) {
			return summary.Result(nil), ctx.Err()
		}

		summary.Scanned++
		signals, err := s.scanPair(ctx, pair)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary.Result(nil), err
			}
			summary.Failed++
			s.logger.WarnContext(ctx, "Skipping pair", logger.StringField("pair", pair), logger.ErrorField(err))
			continue
		}
		detected = append(detected, signals...)
	}

	summary.Detected = len(detected)
	top := dto.TopSignals(detected, s.cfg.Forex.TopSignals)
	s.logger.InfoContext(ctx, "Forex scan finished",
		logger.IntField("scanned", summary.Scanned),
		logger.IntField("failed", summary.Failed),
		logger.IntField("detected", summary.Detected),
	)

	err := dispatchSignals(ctx, s.logger, s.sender, s.GetType(), top, string(telebot.ModeMarkdown), renderForexSignal, &summary)
	return summary.Result(top), err
}

func (s *ForexSignalStrategy) scanPair(ctx context.Context, pair string) ([]dto.Signal, error) {
	primaryData, err := s.candleRepository.Get(ctx, dto.GetCandlesParam{
		Source:   common.SOURCE_TWELVEDATA,
		Symbol:   pair,
		Interval: s.cfg.Forex.PrimaryTimeframe,
		Limit:    s.cfg.Forex.OutputSize,
	})
	if err != nil {
		return nil, err
	}
	if primaryData.Len() == 0 {
		return nil, repository.ErrNoData
	}

	primary := computeForexFrame(primaryData, s.cfg.Forex)
	if primary == nil {
		s.logger.DebugContext(ctx, "Not enough candles for indicators",
			logger.StringField("pair", pair), logger.IntField("candles", primaryData.Len()))
		return nil, nil
	}

	// Confirmation data is optional; detectors that need it stay silent.
	var confirmation *forexFrame
	confData, err := s.candleRepository.Get(ctx, dto.GetCandlesParam{
		Source:   common.SOURCE_TWELVEDATA,
		Symbol:   pair,
		Interval: s.cfg.Forex.ConfirmationTimeframe,
		Limit:    s.cfg.Forex.OutputSize,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		s.logger.DebugContext(ctx, "Confirmation data unavailable", logger.StringField("pair", pair), logger.ErrorField(err))
	} else {
		confirmation = computeForexFrame(confData, s.cfg.Forex)
	}

	last := primary.Last()
	s.logger.InfoContext(ctx, "Pair trend status",
		logger.StringField("pair", pair),
		logger.StringField("trend", last.TrendStatus()),
		logger.FloatField("adx", last.ADX),
		logger.FloatField("rsi", last.RSI),
	)

	var signals []dto.Signal
	for _, signal := range []*dto.Signal{
		detectTrendSignal(primary, confirmation),
		detectReversalSignal(primary, confirmation, s.cfg.Forex),
	} {
		if signal == nil {
			continue
		}
		signal.Symbol = pair
		signal.Name = pair
		signal.Source = common.SOURCE_TWELVEDATA
		signal.VolatilityRatio = last.ATR / last.Close
		signal.GeneratedAt = utils.TimeNowUTC()
		signals = append(signals, *signal)
	}
	return signals, nil
}

func renderForexSignal(signal dto.Signal) string {
	return telegram.FormatForexAlert(telegram.ForexAlert{
		Pair:            signal.Symbol,
		IsBuy:           signal.Direction.IsLong(),
		Entry:           signal.Entry,
		StopLoss:        signal.StopLoss,
		VolatilityRatio: signal.VolatilityRatio,
		TakeProfit:      signal.TakeProfit,
		Confidence:      signal.Confidence,
		At:              signal.GeneratedAt,
	})
}
