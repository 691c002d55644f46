// Package indicator implements the technical indicators used by the scanners.
//
// Every function takes and returns series aligned index by index with the
// input. Positions inside the lookback window are NaN. SMA, EMA, Bollinger
// Bands, RSI, ATR and ADX delegate to go-talib; EWM, TEMA, MACDDiff and CMO
// follow the pandas definitions and are computed here.
package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
)

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func firstValid(x []float64) int {
	for i, v := range x {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}

// masked sets the lookback prefix that go-talib zero-fills to NaN.
func masked(out []float64, lookback int) []float64 {
	for i := 0; i < lookback && i < len(out); i++ {
		out[i] = math.NaN()
	}
	return out
}

// SMA is the simple moving average over n values. A window touching a NaN is
// NaN; each NaN-free run is averaged on its own.
func SMA(x []float64, n int) []float64 {
	out := nanSeries(len(x))
	if n <= 0 {
		return out
	}
	for start := 0; start < len(x); {
		if math.IsNaN(x[start]) {
			start++
			continue
		}
		end := start
		for end < len(x) && !math.IsNaN(x[end]) {
			end++
		}
		if end-start >= n {
			copy(out[start:end], masked(talib.Sma(x[start:end], n), n-1))
		}
		start = end
	}
	return out
}

// EMA is TA-Lib's EMA: seeded with the SMA of the first n values, k=2/(n+1).
// Leading NaNs are skipped.
func EMA(x []float64, n int) []float64 {
	out := nanSeries(len(x))
	start := firstValid(x)
	if n <= 0 || start < 0 || len(x)-start < n {
		return out
	}
	copy(out[start:], masked(talib.Ema(x[start:], n), n-1))
	return out
}

// BollingerBands returns upper, middle and lower bands around the n-period SMA
// using the population standard deviation.
func BollingerBands(x []float64, n int, devUp, devDown float64) (upper, middle, lower []float64) {
	if n <= 0 || len(x) < n {
		return nanSeries(len(x)), nanSeries(len(x)), nanSeries(len(x))
	}
	upper, middle, lower = talib.BBands(x, n, devUp, devDown, talib.SMA)
	return masked(upper, n-1), masked(middle, n-1), masked(lower, n-1)
}

// RSI is Wilder's relative strength index. The first value sits at index n.
// A window without any movement yields 0.
func RSI(x []float64, n int) []float64 {
	if n < 2 || len(x) <= n {
		return nanSeries(len(x))
	}
	return masked(talib.Rsi(x, n), n)
}

func splitChange(d float64) (gain, loss float64) {
	if d > 0 {
		return d, 0
	}
	return 0, -d
}

// TrueRange is NaN at index 0, which has no previous close.
func TrueRange(high, low, close []float64) []float64 {
	if len(close) < 2 {
		return nanSeries(len(close))
	}
	return masked(talib.TRange(high, low, close), 1)
}

// ATR is the Wilder smoothed average true range. The first value sits at index n.
func ATR(high, low, close []float64, n int) []float64 {
	if n < 2 || len(close) <= n {
		return nanSeries(len(close))
	}
	return masked(talib.Atr(high, low, close, n), n)
}

// ADX is Wilder's average directional index. The first value sits at index 2n-1.
func ADX(high, low, close []float64, n int) []float64 {
	if n < 2 || len(close) < 2*n {
		return nanSeries(len(close))
	}
	return masked(talib.Adx(high, low, close, n), 2*n-1)
}

// EWM is the recursive exponential mean with alpha=2/(span+1), starting at the
// first valid value. Output stays NaN until minPeriods observations were seen.
func EWM(x []float64, span int, minPeriods int) []float64 {
	out := nanSeries(len(x))
	start := firstValid(x)
	if span <= 0 || start < 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	prev := x[start]
	seen := 0
	for i := start; i < len(x); i++ {
		if math.IsNaN(x[i]) {
			continue
		}
		seen++
		if i > start {
			prev = (1-alpha)*prev + alpha*x[i]
		}
		if seen >= minPeriods {
			out[i] = prev
		}
	}
	return out
}

// MACDDiff is the MACD histogram: macd line minus its signal line.
func MACDDiff(x []float64, slow, fast, signal int) []float64 {
	emaFast := EWM(x, fast, fast)
	emaSlow := EWM(x, slow, slow)
	macd := Sub(emaFast, emaSlow)
	return Sub(macd, EWM(macd, signal, signal))
}

// TEMA is the triple exponential moving average built from EWM.
func TEMA(x []float64, n int) []float64 {
	e1 := EWM(x, n, 0)
	e2 := EWM(e1, n, 0)
	e3 := EWM(e2, n, 0)
	out := nanSeries(len(x))
	for i := range x {
		out[i] = 3*(e1[i]-e2[i]) + e3[i]
	}
	return out
}

// CMO is the Chande momentum oscillator over rolling sums that start with a
// single observation. A flat window yields 0.
func CMO(x []float64, n int) []float64 {
	out := make([]float64, len(x))
	up := make([]float64, len(x))
	down := make([]float64, len(x))
	for i := 1; i < len(x); i++ {
		up[i], down[i] = splitChange(x[i] - x[i-1])
	}

	var sumUp, sumDown float64
	for i := range x {
		sumUp += up[i]
		sumDown += down[i]
		if i >= n {
			sumUp -= up[i-n]
			sumDown -= down[i-n]
		}
		if denom := sumUp + sumDown; denom != 0 {
			out[i] = 100 * (sumUp - sumDown) / denom
		}
	}
	return out
}

// Momentum is the one-bar rate of change, close/prev - 1.
func Momentum(x []float64) []float64 {
	out := nanSeries(len(x))
	for i := 1; i < len(x); i++ {
		out[i] = x[i]/x[i-1] - 1
	}
	return out
}

// Div divides element-wise; NaN propagates.
func Div(a, b []float64) []float64 {
	out := nanSeries(len(a))
	for i := range a {
		out[i] = a[i] / b[i]
	}
	return out
}

// Sub subtracts element-wise; NaN propagates.
func Sub(a, b []float64) []float64 {
	out := nanSeries(len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// Fill replaces NaN by the previous valid value, then fills the leading gap
// with the first valid value.
func Fill(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	last := math.NaN()
	for i, v := range out {
		if math.IsNaN(v) {
			out[i] = last
		} else {
			last = v
		}
	}
	if start := firstValid(out); start > 0 {
		for i := 0; i < start; i++ {
			out[i] = out[start]
		}
	}
	return out
}

// ValidRows returns the indices where every series holds a number.
func ValidRows(series ...[]float64) []int {
	if len(series) == 0 {
		return nil
	}
	var rows []int
	for i := range series[0] {
		valid := true
		for _, s := range series {
			if i >= len(s) || math.IsNaN(s[i]) || math.IsInf(s[i], 0) {
				valid = false
				break
			}
		}
		if valid {
			rows = append(rows, i)
		}
	}
	return rows
}

// LastValidIndex is the last index where every series holds a number, or -1.
func LastValidIndex(series ...[]float64) int {
	rows := ValidRows(series...)
	if len(rows) == 0 {
		return -1
	}
	return rows[len(rows)-1]
}
