package strategy

import (
	"math"

	"forex-signal/config"
	"forex-signal/internal/dto"
	"forex-signal/internal/indicator"
)

const minIndicatorCandles = 50

// forexRow is one bar with its indicator values.
type forexRow struct {
	Close   float64
	EMAFast float64
	EMASlow float64
	BBUpper float64
	BBMid   float64
	BBLower float64
	RSI     float64
	ADX     float64
	ATR     float64
}

type forexFrame struct {
	rows []forexRow
}

func (f *forexFrame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.rows)
}

func (f *forexFrame) Last() forexRow {
	return f.rows[len(f.rows)-1]
}

func (f *forexFrame) Prev() forexRow {
	return f.rows[len(f.rows)-2]
}

// computeForexFrame returns nil below the minimum candle count. Indicator gaps
// are forward then back filled so every row is usable.
func computeForexFrame(data *dto.CandleData, cfg config.ForexScanner) *forexFrame {
	if data.Len() < minIndicatorCandles {
		return nil
	}

	closes := data.Closes()
	highs := data.Highs()
	lows := data.Lows()

	upper, middle, lower := indicator.BollingerBands(closes, cfg.BBPeriod, cfg.BBStdDev, cfg.BBStdDev)
	columns := [][]float64{
		indicator.EMA(closes, cfg.EMAFast),
		indicator.EMA(closes, cfg.EMASlow),
		upper, middle, lower,
		indicator.RSI(closes, cfg.RSIPeriod),
		indicator.ADX(highs, lows, closes, cfg.ADXPeriod),
		indicator.ATR(highs, lows, closes, cfg.ATRPeriod),
	}
	for i := range columns {
		columns[i] = indicator.Fill(columns[i])
	}

	frame := &forexFrame{rows: make([]forexRow, len(closes))}
	for i, c := range closes {
		frame.rows[i] = forexRow{
			Close:   c,
			EMAFast: columns[0][i],
			EMASlow: columns[1][i],
			BBUpper: columns[2][i],
			BBMid:   columns[3][i],
			BBLower: columns[4][i],
			RSI:     columns[5][i],
			ADX:     columns[6][i],
			ATR:     columns[7][i],
		}
	}
	return frame
}

func (r forexRow) TrendStatus() string {
	if r.Close > r.EMASlow {
		return dto.TrendBullish
	}
	return dto.TrendBearish
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// forexConfidence scores a signal out of 100: ADX strength 30, RSI position 25,
// EMA alignment 20, volatility 15 and higher timeframe agreement 10.
func forexConfidence(kind dto.SignalType, direction dto.Direction, last forexRow, conf *forexRow) int {
	trendLike := kind.IsTrendLike()
	long := direction.IsLong()

	score := clamp((last.ADX-20)*1.5, 0, 30)

	var rsiScore float64
	switch {
	case trendLike && long:
		rsiScore = (40 - math.Max(last.RSI, 30)) * 2.5
	case trendLike:
		rsiScore = (math.Min(last.RSI, 70) - 60) * 2.5
	case long:
		rsiScore = (35 - last.RSI) * 2.5
	default:
		rsiScore = (last.RSI - 65) * 2.5
	}
	score += clamp(rsiScore, 0, 25)

	bullishStack := last.Close > last.EMAFast && last.EMAFast > last.EMASlow
	bearishStack := last.Close < last.EMAFast && last.EMAFast < last.EMASlow
	if bullishStack || bearishStack {
		score += 20
	} else {
		score += 10
	}

	volatility := math.Min(15, last.ATR*100)
	if trendLike {
		score += volatility
	} else {
		score += 15 - volatility
	}

	if conf != nil && higherTimeframeAgrees(trendLike, long, *conf) {
		score += 10
	}

	return int(math.Min(100, math.Floor(score)))
}

func higherTimeframeAgrees(trendLike, long bool, conf forexRow) bool {
	switch {
	case trendLike && long:
		return conf.Close > conf.EMAFast && conf.RSI > 40
	case trendLike:
		return conf.Close < conf.EMAFast && conf.RSI < 60
	case long:
		return conf.RSI > 30 && conf.Close < conf.BBLower*1.005
	default:
		return conf.RSI < 70 && conf.Close > conf.BBUpper*0.995
	}
}
