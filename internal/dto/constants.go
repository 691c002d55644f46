package dto

const (
	Interval1Hour string = "1h"
	Interval4Hour string = "4h"
	Interval1Day  string = "1d"
)

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Action is the verb used by forex messages and logs.
func (d Direction) Action() string {
	if d == DirectionLong {
		return "BUY"
	}
	return "SELL"
}

func (d Direction) IsLong() bool {
	return d == DirectionLong
}

type SignalType string

const (
	SignalTrendFollowing SignalType = "TREND FOLLOWING"
	SignalBreakout       SignalType = "BREAKOUT"
	SignalBreakdown      SignalType = "BREAKDOWN"
	SignalReversal       SignalType = "REVERSAL"
	SignalMomentum       SignalType = "MOMENTUM"
	SignalConsensus      SignalType = "CONSENSUS"
)

// IsTrendLike reports whether the signal rides an existing trend.
func (t SignalType) IsTrendLike() bool {
	switch t {
	case SignalTrendFollowing, SignalBreakout, SignalBreakdown:
		return true
	default:
		return false
	}
}

const (
	TrendBullish string = "Bullish"
	TrendBearish string = "Bearish"
)
