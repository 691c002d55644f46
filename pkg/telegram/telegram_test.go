package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"forex-signal/config"
	"forex-signal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type fakeBotAPI struct {
	mu       sync.Mutex
	requests []map[string]interface{}
	paths    []string
	fail     bool
}

func (f *fakeBotAPI) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	payload := map[string]interface{}{}
	_ = json.Unmarshal(body, &payload)

	f.mu.Lock()
	f.requests = append(f.requests, payload)
	f.paths = append(f.paths, r.URL.Path)
	fail := f.fail
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":1700000000,"chat":{"id":-100200,"type":"channel"},"text":"ok"}}`))
}

func newTestLimiter(t *testing.T, api *fakeBotAPI) *TelegramRateLimiter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	t.Cleanup(srv.Close)

	cfg := &config.TelegramConfig{
		BotToken:                  "123:abc",
		ChatID:                    "-100200",
		APIURL:                    srv.URL,
		TimeoutDuration:           time.Second,
		MaxGlobalRequestPerSecond: 100,
	}
	bot, err := NewBot(cfg)
	require.NoError(t, err)
	return NewTelegramRateLimiter(cfg, logger.NewNop(), bot)
}

func TestTelegramRateLimiter_SendMessage(t *testing.T) {
	api := &fakeBotAPI{}
	tg := newTestLimiter(t, api)

	err := tg.SendMessage(context.Background(), "*hello*", telebot.ModeMarkdown)
	require.NoError(t, err)

	require.Len(t, api.requests, 1)
	assert.True(t, strings.HasSuffix(api.paths[0], "/bot123:abc/sendMessage"))
	assert.Equal(t, "-100200", api.requests[0]["chat_id"])
	assert.Equal(t, "*hello*", api.requests[0]["text"])
	assert.Equal(t, "Markdown", api.requests[0]["parse_mode"])
}

func TestTelegramRateLimiter_SendMessageError(t *testing.T) {
	api := &fakeBotAPI{fail: true}
	tg := newTestLimiter(t, api)

	err := tg.SendMessage(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramRateLimiter_SendInterval(t *testing.T) {
	api := &fakeBotAPI{}
	tg := newTestLimiter(t, api)
	tg.cfg.SendInterval = 40 * time.Millisecond

	start := time.Now()
	require.NoError(t, tg.SendMessage(context.Background(), "one"))
	require.NoError(t, tg.SendMessage(context.Background(), "two"))

	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
	assert.Len(t, api.requests, 2)
}

func TestFormatForexAlert(t *testing.T) {
	at := time.Date(2025, time.January, 6, 9, 30, 0, 0, time.UTC)
	msg := FormatForexAlert(ForexAlert{
		Pair:            "EUR/USD",
		IsBuy:           true,
		Entry:           1.1,
		StopLoss:        1.09,
		VolatilityRatio: 0.0042,
		TakeProfit:      []float64{1.122, 1.1385, 1.155},
		Confidence:      72,
		At:              at,
	})

	want := "⏰ 2025-01-06 09:30 UK\n" +
		"*Forex signal *\n" +
		"📈 EUR/USD Signal - LONG ⬆️ ⚡\n" +
		"Price Info:\n" +
		"• Current price : 1.10000\n" +
		"• Stop Loss: 1.09000\n" +
		"• Volatility Ratio: 0.00\n\n" +
		"🔰 Take Profit Targets:\n" +
		"• TP:1 1.12200 🎯\n" +
		"• TP:2 1.13850 🎯\n" +
		"• TP:3 1.15500 🎯\n\n" +
		"📊 Confidence: 72%"
	assert.Equal(t, want, msg)
}

func TestFormatCommodityAlert_EscapesMarkdownV2(t *testing.T) {
	msg := FormatCommodityAlert(CommodityAlert{
		Asset:           "BTCUSDT",
		IsLong:          false,
		Entry:           65000.12346,
		PositionPerTier: 1,
		VolatilityRatio: 1.25,
		TakeProfit:      []float64{64900, 64800, 64700},
		Confidence:      65,
		At:              time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC),
	})

	assert.Contains(t, msg, "⏰ *2025\\-07\\-01 13:00 UK*\n")
	assert.Contains(t, msg, "📈 *BTCUSDT Signal \\- SHORT* ⚡")
	assert.Contains(t, msg, "• Current price: `65000.1235`")
	assert.Contains(t, msg, "• Position: `$3.00` \\($1\\.00/tier\\)")
	assert.Contains(t, msg, "• TP3: `64700.0000` 🎯")
	assert.True(t, strings.HasSuffix(msg, "📊 *Confidence:* `65%`"))
}

func TestFormatMarketAlert(t *testing.T) {
	msg := FormatMarketAlert(MarketAlert{
		Symbol:     "NVDA",
		Name:       "NVIDIA",
		IsLong:     true,
		Entry:      100,
		StopLoss:   97,
		TakeProfit: []float64{102, 103.5, 105},
		Confidence: 75,
		At:         time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC),
	})

	assert.True(t, strings.HasPrefix(msg, "⏰ 2025-03-03 08:00 UTC\n"))
	assert.Contains(t, msg, "🔹 *Asset:* NVIDIA (NVDA)\n")
	assert.Contains(t, msg, "TP2: 103.5000\n")
	assert.Contains(t, msg, "📊 *Confidence:* 75%")
}
