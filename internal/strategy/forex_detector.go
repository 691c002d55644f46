package strategy

import (
	"forex-signal/config"
	"forex-signal/internal/dto"
)

func confirmationRow(conf *forexFrame) *forexRow {
	if conf.Len() == 0 {
		return nil
	}
	last := conf.Last()
	return &last
}

func scaleTargets(entry float64, multipliers ...float64) []float64 {
	out := make([]float64, len(multipliers))
	for i, m := range multipliers {
		out[i] = entry * m
	}
	return out
}

// detectTrendSignal looks for pullbacks to the fast EMA and band breaks inside
// a strong trend. It needs at least three primary rows.
func detectTrendSignal(primary, conf *forexFrame) *dto.Signal {
	if primary.Len() < 3 {
		return nil
	}

	last := primary.Last()
	prev := primary.Prev()
	confLast := confirmationRow(conf)

	bullish := last.Close > last.EMASlow && last.EMAFast > last.EMASlow && last.ADX > 30
	bearish := last.Close < last.EMASlow && last.EMAFast < last.EMASlow && last.ADX > 30

	var signal *dto.Signal
	switch {
	case bullish:
		if last.Close > last.EMAFast && prev.Close < prev.EMAFast {
			signal = &dto.Signal{
				Type:       dto.SignalTrendFollowing,
				Direction:  dto.DirectionLong,
				StopLoss:   last.EMAFast - last.ATR*1.2,
				TakeProfit: scaleTargets(last.Close, 1.02, 1.035, 1.05),
				Reason:     "Strong uptrend pullback to EMA50",
			}
		} else if last.Close > last.BBUpper && confLast != nil && confLast.Close > confLast.BBUpper {
			signal = &dto.Signal{
				Type:       dto.SignalBreakout,
				Direction:  dto.DirectionLong,
				StopLoss:   last.BBUpper - last.ATR*1.5,
				TakeProfit: scaleTargets(last.Close, 1.025, 1.045, 1.07),
				Reason:     "Upper Bollinger breakout in strong trend",
			}
		}
	case bearish:
		if last.Close < last.EMAFast && prev.Close > prev.EMAFast {
			signal = &dto.Signal{
				Type:       dto.SignalTrendFollowing,
				Direction:  dto.DirectionShort,
				StopLoss:   last.EMAFast + last.ATR*1.2,
				TakeProfit: scaleTargets(last.Close, 0.98, 0.965, 0.95),
				Reason:     "Strong downtrend pullback to EMA50",
			}
		} else if last.Close < last.BBLower && confLast != nil && confLast.Close < confLast.BBLower {
			signal = &dto.Signal{
				Type:       dto.SignalBreakdown,
				Direction:  dto.DirectionShort,
				StopLoss:   last.BBLower + last.ATR*1.5,
				TakeProfit: scaleTargets(last.Close, 0.975, 0.955, 0.93),
				Reason:     "Lower Bollinger breakdown in strong trend",
			}
		}
	}

	if signal == nil {
		return nil
	}
	signal.Entry = last.Close
	signal.Confidence = forexConfidence(signal.Type, signal.Direction, last, confLast)
	return signal
}

// detectReversalSignal fades band extremes when RSI is stretched. It requires
// confirmation data.
func detectReversalSignal(primary, conf *forexFrame, cfg config.ForexScanner) *dto.Signal {
	if primary.Len() < 2 {
		return nil
	}

	last := primary.Last()
	confLast := confirmationRow(conf)
	if confLast == nil {
		return nil
	}

	var signal *dto.Signal
	switch {
	case last.Close <= last.BBLower && last.RSI < 35 && last.ADX > cfg.ADXThreshold && confLast.RSI > 30:
		signal = &dto.Signal{
			Direction:  dto.DirectionLong,
			StopLoss:   last.BBLower * 0.998,
			TakeProfit: scaleTargets(last.Close, 1.015, 1.025, 1.04),
		}
	case last.Close >= last.BBUpper && last.RSI > 65 && last.ADX > cfg.ADXThreshold && confLast.RSI < 70:
		signal = &dto.Signal{
			Direction:  dto.DirectionShort,
			StopLoss:   last.BBUpper * 1.002,
			TakeProfit: scaleTargets(last.Close, 0.985, 0.975, 0.96),
		}
	default:
		return nil
	}

	signal.Type = dto.SignalReversal
	signal.Reason = "Bollinger reversal with RSI confirmation"
	signal.Entry = last.Close
	signal.Confidence = forexConfidence(signal.Type, signal.Direction, last, confLast)
	return signal
}
