package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"forex-signal/internal/dto"
	"forex-signal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// breakoutBars is a steady uptrend whose last bar jumps clear of the upper band.
func breakoutBars() []dto.OHLCV {
	bars := rampBars(200, 1.0, 0.001, 0.0005, 0)
	last := &bars[len(bars)-1]
	last.Close += 0.03
	last.High += 0.03
	last.Low += 0.03
	return bars
}

func TestForexSignalStrategy_Execute(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Forex.Pairs = []string{"EUR/USD", "USD/JPY", "GBP/USD"}

	repo := newFakeCandleRepository()
	repo.set("EUR/USD", breakoutBars(), "4h", "1h")
	repo.errs["USD/JPY"] = errors.New("api limit")
	repo.set("GBP/USD", rampBars(10, 1.2, 0.001, 0.0005, 0), "4h", "1h")
	sender := &fakeSignalSender{}

	s := NewForexSignalStrategy(cfg, logger.NewNop(), repo, sender)
	result, err := s.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(JOB_EXIT_CODE_PARTIAL_SUCCESS), result.ExitCode)
	require.Len(t, result.Signals, 1)
	signal := result.Signals[0]
	assert.Equal(t, "EUR/USD", signal.Symbol)
	assert.Equal(t, dto.SignalBreakout, signal.Type)
	assert.Equal(t, dto.DirectionLong, signal.Direction)
	// last bar: ramp close 1.199 plus the 0.03 jump
	entry := 1.0 + 199*0.001 + 0.03
	// Wilder ATR14 after thirteen 0.0015 ranges and one 0.0315 range
	atr := (13*0.0015 + 0.0315) / 14
	assert.InDelta(t, entry, signal.Entry, 1e-9)
	assert.InDelta(t, entry*1.025, signal.TakeProfit[0], 1e-9)
	assert.InDelta(t, entry*1.07, signal.TakeProfit[2], 1e-9)
	assert.Less(t, signal.StopLoss, signal.Entry)
	assert.Equal(t, 60, signal.Confidence)
	assert.InDelta(t, atr/entry, signal.VolatilityRatio, 1e-6)

	require.Len(t, sender.signals, 1)
	assert.Equal(t, "forex_signal", sender.signals[0].JobType)
	assert.Equal(t, "Markdown", sender.signals[0].ParseMode)
	assert.Contains(t, sender.signals[0].Text, "📈 EUR/USD Signal - LONG ⬆️ ⚡")

	for _, p := range repo.params {
		assert.Equal(t, "TWELVEDATA", p.Source)
		assert.Equal(t, 200, p.Limit)
	}
}

func TestForexSignalStrategy_AllPairsFail(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Forex.Pairs = []string{"EUR/USD", "USD/JPY"}

	repo := newFakeCandleRepository()
	repo.errs["EUR/USD"] = errors.New("boom")
	repo.errs["USD/JPY"] = errors.New("boom")

	result, err := NewForexSignalStrategy(cfg, logger.NewNop(), repo, &fakeSignalSender{}).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(JOB_EXIT_CODE_FAILED), result.ExitCode)
	assert.Empty(t, result.Signals)
}

func TestForexSignalStrategy_CancelledContext(t *testing.T) {
	cfg := defaultConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewForexSignalStrategy(cfg, logger.NewNop(), newFakeCandleRepository(), &fakeSignalSender{}).Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForexSignalStrategy_ContextEndsDuringDispatch(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Forex.Pairs = []string{"EUR/USD", "GBP/USD"}

	repo := newFakeCandleRepository()
	repo.set("EUR/USD", breakoutBars(), "4h", "1h")
	repo.set("GBP/USD", breakoutBars(), "4h", "1h")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sender := &cancelAfterFirstSender{fakeSignalSender: &fakeSignalSender{}, cancel: cancel}

	result, err := NewForexSignalStrategy(cfg, logger.NewNop(), repo, sender).Execute(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, sender.signals, 1)
	assert.Len(t, result.Signals, 2)

	var summary ScanSummary
	require.NoError(t, json.Unmarshal([]byte(result.Output), &summary))
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.SendFailed)
}

func frameOf(rows ...forexRow) *forexFrame {
	return &forexFrame{rows: rows}
}

func TestDetectTrendSignal_BearishPullback(t *testing.T) {
	prev := forexRow{Close: 1.01, EMAFast: 1.0, EMASlow: 1.05, ADX: 35, RSI: 55, ATR: 0.005}
	last := forexRow{Close: 0.99, EMAFast: 1.0, EMASlow: 1.05, ADX: 35, RSI: 55, ATR: 0.005}

	signal := detectTrendSignal(frameOf(prev, prev, last), nil)
	require.NotNil(t, signal)
	assert.Equal(t, dto.SignalTrendFollowing, signal.Type)
	assert.Equal(t, dto.DirectionShort, signal.Direction)
	assert.InDelta(t, 1.006, signal.StopLoss, 1e-9)
	assert.InDelta(t, 0.99*0.95, signal.TakeProfit[2], 1e-9)
	// ADX 22.5 + EMA stack 20 + volatility 0.5, no RSI credit, no confirmation.
	assert.Equal(t, 43, signal.Confidence)
}

func TestDetectTrendSignal_NeedsThreeRows(t *testing.T) {
	row := forexRow{Close: 0.99, EMAFast: 1.0, EMASlow: 1.05, ADX: 35}
	assert.Nil(t, detectTrendSignal(frameOf(row, row), nil))
}

func TestDetectTrendSignal_WeakTrend(t *testing.T) {
	prev := forexRow{Close: 1.01, EMAFast: 1.0, EMASlow: 1.05, ADX: 25}
	last := forexRow{Close: 0.99, EMAFast: 1.0, EMASlow: 1.05, ADX: 25}
	assert.Nil(t, detectTrendSignal(frameOf(prev, prev, last), nil))
}

func TestDetectReversalSignal(t *testing.T) {
	cfg := defaultConfig(t).Forex
	last := forexRow{Close: 1.0, BBLower: 1.001, BBUpper: 1.05, RSI: 30, ADX: 25, EMAFast: 1.01, EMASlow: 1.02, ATR: 0.002}
	primary := frameOf(last, last)

	t.Run("requires confirmation", func(t *testing.T) {
		assert.Nil(t, detectReversalSignal(primary, nil, cfg))
	})

	t.Run("long from lower band", func(t *testing.T) {
		conf := frameOf(forexRow{Close: 1.0, BBLower: 1.0, RSI: 35})
		signal := detectReversalSignal(primary, conf, cfg)
		require.NotNil(t, signal)
		assert.Equal(t, dto.SignalReversal, signal.Type)
		assert.Equal(t, dto.DirectionLong, signal.Direction)
		assert.InDelta(t, 1.001*0.998, signal.StopLoss, 1e-9)
		// ADX 7.5 + RSI 12.5 + EMA stack 20 + inverse volatility 14.8 + timeframe 10.
		assert.Equal(t, 64, signal.Confidence)
	})

	t.Run("confirmation oversold blocks", func(t *testing.T) {
		conf := frameOf(forexRow{Close: 1.0, BBLower: 1.0, RSI: 25})
		assert.Nil(t, detectReversalSignal(primary, conf, cfg))
	})
}

func TestForexConfidence_Caps(t *testing.T) {
	last := forexRow{Close: 1.2, EMAFast: 1.1, EMASlow: 1.0, ADX: 90, RSI: 20, ATR: 1}
	conf := forexRow{Close: 1.2, EMAFast: 1.1, RSI: 50}
	// 30 + 25 + 20 + 15 + 10 = 100
	assert.Equal(t, 100, forexConfidence(dto.SignalTrendFollowing, dto.DirectionLong, last, &conf))
	// Reversals lose the volatility credit on a wild market.
	assert.Equal(t, 75, forexConfidence(dto.SignalReversal, dto.DirectionLong, last, nil))
}

func TestForexConfidence_DirectionAndKind(t *testing.T) {
	// bearish stack, overbought RSI, ATR above the volatility cap
	last := forexRow{Close: 1.0, EMAFast: 1.1, EMASlow: 1.2, ADX: 40, RSI: 80, ATR: 0.5}
	conf := forexRow{Close: 0.9, EMAFast: 1.0, BBUpper: 0.8, RSI: 50}

	// RSI part floors at 0 instead of dragging the total down; 1h disagrees.
	assert.Equal(t, 65, forexConfidence(dto.SignalTrendFollowing, dto.DirectionLong, last, &conf))
	// BREAKDOWN scores like a trend signal on the short side.
	assert.Equal(t, 100, forexConfidence(dto.SignalBreakdown, dto.DirectionShort, last, &conf))
	// Short reversal: no volatility credit, 1h above its upper band agrees.
	assert.Equal(t, 85, forexConfidence(dto.SignalReversal, dto.DirectionShort, last, &conf))
	assert.Equal(t, 75, forexConfidence(dto.SignalReversal, dto.DirectionShort, last, nil))
}

func TestComputeForexFrame_MinimumCandles(t *testing.T) {
	cfg := defaultConfig(t).Forex
	assert.Nil(t, computeForexFrame(&dto.CandleData{OHLCV: rampBars(49, 1, 0.001, 0.0005, 0)}, cfg))

	frame := computeForexFrame(&dto.CandleData{OHLCV: rampBars(60, 1, 0.001, 0.0005, 0)}, cfg)
	require.NotNil(t, frame)
	assert.Equal(t, 60, frame.Len())
	// RSI is back filled from its first value; EMA200 has none on 60 bars.
	assert.False(t, math.IsNaN(frame.rows[0].RSI))
	assert.True(t, math.IsNaN(frame.Last().EMASlow))
	assert.Equal(t, dto.TrendBearish, frame.Last().TrendStatus())
}
