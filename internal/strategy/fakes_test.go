package strategy

import (
	"context"
	"sync"
	"testing"

	"forex-signal/config"
	"forex-signal/internal/dto"

	"github.com/stretchr/testify/require"
)

type candleKey struct {
	Symbol   string
	Interval string
}

type fakeCandleRepository struct {
	mu     sync.Mutex
	data   map[candleKey]*dto.CandleData
	errs   map[string]error
	params []dto.GetCandlesParam
}

func newFakeCandleRepository() *fakeCandleRepository {
	return &fakeCandleRepository{
		data: map[candleKey]*dto.CandleData{},
		errs: map[string]error{},
	}
}

// set registers the same bars for every listed interval.
func (f *fakeCandleRepository) set(symbol string, bars []dto.OHLCV, intervals ...string) {
	for _, interval := range intervals {
		f.data[candleKey{symbol, interval}] = &dto.CandleData{Symbol: symbol, Interval: interval, OHLCV: bars}
	}
}

func (f *fakeCandleRepository) Get(_ context.Context, param dto.GetCandlesParam) (*dto.CandleData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = append(f.params, param)
	if err, ok := f.errs[param.Symbol]; ok {
		return nil, err
	}
	if data, ok := f.data[candleKey{param.Symbol, param.Interval}]; ok {
		return data, nil
	}
	return &dto.CandleData{Symbol: param.Symbol}, nil
}

type sentMessage struct {
	JobType   string
	Signal    dto.Signal
	Text      string
	ParseMode string
}

type fakeSignalSender struct {
	mu      sync.Mutex
	signals []sentMessage
	notices []sentMessage
	err     error
	seen    map[string]bool
}

func (f *fakeSignalSender) SendSignal(_ context.Context, jobType string, signal dto.Signal, text string, parseMode string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	key := jobType + signal.Symbol + string(signal.Direction)
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	f.signals = append(f.signals, sentMessage{JobType: jobType, Signal: signal, Text: text, ParseMode: parseMode})
	return true, nil
}

func (f *fakeSignalSender) SendNotice(_ context.Context, text string, parseMode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.notices = append(f.notices, sentMessage{Text: text, ParseMode: parseMode})
	return nil
}

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	return cfg
}

// rampBars builds n bars moving by step per bar with a fixed half spread.
func rampBars(n int, start, step, spread, volume float64) []dto.OHLCV {
	bars := make([]dto.OHLCV, n)
	for i := range bars {
		c := start + float64(i)*step
		bars[i] = dto.OHLCV{
			Timestamp: int64(1700000000 + i*4*3600),
			Open:      c - step,
			High:      c + spread,
			Low:       c - spread,
			Close:     c,
			Volume:    volume,
		}
	}
	return bars
}
