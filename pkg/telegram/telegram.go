package telegram

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"forex-signal/config"
	"forex-signal/pkg/logger"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// ChatRecipient addresses a chat by its raw id, numeric ("-100123") or "@channel".
type ChatRecipient string

func (c ChatRecipient) Recipient() string {
	return string(c)
}

// TelegramRateLimiter pushes outbound messages to one configured chat.
type TelegramRateLimiter struct {
	cfg           *config.TelegramConfig
	log           *logger.Logger
	bot           *telebot.Bot
	chat          telebot.Recipient
	globalLimiter *rate.Limiter
	mu            sync.Mutex
	lastSent      time.Time
}

// NewBot builds an outbound-only bot; Offline skips the getMe round trip.
func NewBot(cfg *config.TelegramConfig) (*telebot.Bot, error) {
	return telebot.NewBot(telebot.Settings{
		URL:     cfg.APIURL,
		Token:   cfg.BotToken,
		Offline: true,
		Client:  &http.Client{Timeout: cfg.TimeoutDuration},
	})
}

func NewTelegramRateLimiter(cfg *config.TelegramConfig, log *logger.Logger, bot *telebot.Bot) *TelegramRateLimiter {
	perSecond := cfg.MaxGlobalRequestPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	return &TelegramRateLimiter{
		cfg:           cfg,
		log:           log,
		bot:           bot,
		chat:          ChatRecipient(cfg.ChatID),
		globalLimiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

// SendMessage sends text to the configured chat, waiting for the rate limit and
// keeping at least SendInterval between consecutive messages.
func (t *TelegramRateLimiter) SendMessage(ctx context.Context, text string, opts ...interface{}) error {
	if err := t.globalLimiter.Wait(ctx); err != nil {
		t.log.ErrorContext(ctx, "Failed to wait for global rate limit", logger.ErrorField(err))
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if wait := t.cfg.SendInterval - time.Since(t.lastSent); !t.lastSent.IsZero() && wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	_, err := t.bot.Send(t.chat, text, opts...)
	t.lastSent = time.Now()
	if err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}

// SendAlert is a logger.AlertSender; it never logs through the alerting logger.
func (t *TelegramRateLimiter) SendAlert(message string) {
	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.TimeoutDuration+time.Second)
	defer cancel()
	_ = t.SendMessage(ctx, message)
}
