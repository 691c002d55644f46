package dto

import (
	"sort"
	"time"
)

// OHLCV is one bar; Timestamp is the bar open time in unix seconds.
type OHLCV struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (o OHLCV) Time() time.Time {
	return time.Unix(o.Timestamp, 0).UTC()
}

type CandleData struct {
	Symbol      string  `json:"symbol"`
	Source      string  `json:"source"`
	Interval    string  `json:"interval"`
	Range       string  `json:"range,omitempty"`
	MarketPrice float64 `json:"market_price"`
	OHLCV       []OHLCV `json:"ohlcv"`
}

func (c *CandleData) Len() int {
	if c == nil {
		return 0
	}
	return len(c.OHLCV)
}

func (c *CandleData) Opens() []float64   { return c.column(func(o OHLCV) float64 { return o.Open }) }
func (c *CandleData) Highs() []float64   { return c.column(func(o OHLCV) float64 { return o.High }) }
func (c *CandleData) Lows() []float64    { return c.column(func(o OHLCV) float64 { return o.Low }) }
func (c *CandleData) Closes() []float64  { return c.column(func(o OHLCV) float64 { return o.Close }) }
func (c *CandleData) Volumes() []float64 { return c.column(func(o OHLCV) float64 { return o.Volume }) }

func (c *CandleData) column(pick func(OHLCV) float64) []float64 {
	out := make([]float64, len(c.OHLCV))
	for i, o := range c.OHLCV {
		out[i] = pick(o)
	}
	return out
}

// GetCandlesParam selects candles for one symbol. Limit caps the number of
// bars returned (most recent kept); Range is a lookback such as "2m" used by
// sources that query by time window.
type GetCandlesParam struct {
	Source   string `json:"source"`
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Limit    int    `json:"limit"`
	Range    string `json:"range"`
}

// ResampleOHLCV aggregates bars into UTC-aligned buckets of the given period.
// Open is the first, High the max, Low the min, Close the last bar and Volume
// the sum. Input order does not matter; output is chronological.
func ResampleOHLCV(bars []OHLCV, period time.Duration) []OHLCV {
	if len(bars) == 0 || period <= 0 {
		return nil
	}

	sorted := make([]OHLCV, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	step := int64(period / time.Second)
	var out []OHLCV
	for _, bar := range sorted {
		bucket := bar.Timestamp - mod(bar.Timestamp, step)
		if n := len(out); n > 0 && out[n-1].Timestamp == bucket {
			last := &out[n-1]
			if bar.High > last.High {
				last.High = bar.High
			}
			if bar.Low < last.Low {
				last.Low = bar.Low
			}
			last.Close = bar.Close
			last.Volume += bar.Volume
			continue
		}
		bar.Timestamp = bucket
		out = append(out, bar)
	}
	return out
}

func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// IntervalDuration maps the intervals the scanners use to their length.
func IntervalDuration(interval string) (time.Duration, bool) {
	switch interval {
	case Interval1Hour:
		return time.Hour, true
	case Interval4Hour:
		return 4 * time.Hour, true
	case Interval1Day:
		return 24 * time.Hour, true
	default:
		return 0, false
	}
}

// TrimLast keeps at most the n most recent bars.
func TrimLast(bars []OHLCV, n int) []OHLCV {
	if n <= 0 || len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}
