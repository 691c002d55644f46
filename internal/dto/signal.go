package dto

import (
	"math"
	"sort"
	"time"
)

// Signal is a trade idea produced by a scanner.
type Signal struct {
	Symbol          string     `json:"symbol"`
	Name            string     `json:"name,omitempty"`
	Source          string     `json:"source"`
	Type            SignalType `json:"type"`
	Direction       Direction  `json:"direction"`
	Entry           float64    `json:"entry"`
	StopLoss        float64    `json:"stop_loss,omitempty"`
	TakeProfit      []float64  `json:"take_profit"`
	Confidence      int        `json:"confidence"`
	VolatilityRatio float64    `json:"volatility_ratio"`
	PositionSize    float64    `json:"position_size,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	GeneratedAt     time.Time  `json:"generated_at"`
}

// RiskReward returns reward/risk for every take profit. It is nil when the
// signal carries no stop loss or the stop sits on the entry.
func (s Signal) RiskReward() []float64 {
	risk := math.Abs(s.Entry - s.StopLoss)
	if s.StopLoss == 0 || risk == 0 {
		return nil
	}
	out := make([]float64, len(s.TakeProfit))
	for i, tp := range s.TakeProfit {
		out[i] = math.Abs(tp-s.Entry) / risk
	}
	return out
}

// TopSignals orders by confidence descending, keeping detection order among
// ties, and returns at most n signals.
func TopSignals(signals []Signal, n int) []Signal {
	sorted := make([]Signal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
