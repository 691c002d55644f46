package service

import (
	"context"
	"fmt"
	"time"

	"forex-signal/config"
	"forex-signal/internal/contract"
	"forex-signal/internal/dto"
	"forex-signal/pkg/cache"
	"forex-signal/pkg/common"
	"forex-signal/pkg/logger"
	"forex-signal/pkg/utils"

	"gopkg.in/telebot.v3"
)

type SendSignalService interface {
	contract.SignalSender
}

type sendSignalService struct {
	cfg           *config.Config
	log           *logger.Logger
	sender        contract.MessageSender
	inmemoryCache cache.Cache
}

func NewSendSignalService(
	cfg *config.Config,
	log *logger.Logger,
	sender contract.MessageSender,
	inmemoryCache cache.Cache,
) SendSignalService {
	return &sendSignalService{
		cfg:           cfg,
		log:           log,
		sender:        sender,
		inmemoryCache: inmemoryCache,
	}
}

// SendSignal delivers text unless the same signal went out within
// cache.signal_duration. The dedupe key is only stored after a successful send.
func (s *sendSignalService) SendSignal(ctx context.Context, jobType string, signal dto.Signal, text string, parseMode string) (bool, error) {
	key := fmt.Sprintf(common.KEY_LAST_SEND_SIGNAL, s.GenerateHashIdentifier(jobType, signal))
	ttl := s.cfg.Cache.SignalDuration

	if ttl > 0 {
		if sentAt, alreadySent := cache.Lookup[time.Time](s.inmemoryCache, key); alreadySent {
			expiresAt, _ := s.inmemoryCache.Expiry(key)
			s.log.DebugContext(ctx, "Signal already sent",
				logger.StringField("job", jobType),
				logger.StringField("symbol", signal.Symbol),
				logger.StringField("direction", string(signal.Direction)),
				logger.StringField("sent_at", sentAt.Format(time.RFC3339)),
				logger.StringField("expires_at", expiresAt.Format(time.RFC3339)),
			)
			return false, nil
		}
	}

	if err := s.sender.SendMessage(ctx, text, sendOptions(parseMode)...); err != nil {
		return false, err
	}

	if ttl > 0 {
		s.inmemoryCache.Set(key, utils.TimeNowUTC(), ttl)
	}
	return true, nil
}

func (s *sendSignalService) SendNotice(ctx context.Context, text string, parseMode string) error {
	return s.sender.SendMessage(ctx, text, sendOptions(parseMode)...)
}

func (s *sendSignalService) GenerateHashIdentifier(jobType string, signal dto.Signal) string {
	return utils.HashIdentifier(
		jobType,
		signal.Symbol,
		string(signal.Direction),
		string(signal.Type),
		utils.FormatPrice(signal.Entry, 5),
	)
}

func sendOptions(parseMode string) []interface{} {
	if parseMode == "" {
		return nil
	}
	return []interface{}{telebot.ParseMode(parseMode)}
}
