package cmd

import (
	"context"
	"fmt"

	"forex-signal/config"
	"forex-signal/pkg/cache"
	"forex-signal/pkg/logger"
	"forex-signal/pkg/postgres"
	"forex-signal/pkg/telegram"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

type AppDependency struct {
	db        *postgres.DB
	cfg       *config.Config
	log       *logger.Logger
	validator *goValidator.Validate
	echo      *echo.Echo
	cache     cache.Cache
	telegram  *telegram.TelegramRateLimiter
}

func NewAppDependency(ctx context.Context, configPath string) (*AppDependency, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	bot, err := telegram.NewBot(&cfg.Telegram)
	if err != nil {
		log.Error("Failed to create telegram bot", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	tg := telegram.NewTelegramRateLimiter(&cfg.Telegram, log, bot)
	if cfg.Telegram.AlertEnabled {
		log = log.WithAlertSender(zapcore.ErrorLevel, tg.SendAlert)
	}

	var db *postgres.DB
	if cfg.DB.Enabled {
		db, err = postgres.NewDB(cfg.DB, log)
		if err != nil {
			log.Error("Failed to connect to database", logger.ErrorField(err))
			return nil, err
		}
	}

	return &AppDependency{
		cfg:       cfg,
		log:       log,
		validator: goValidator.New(),
		db:        db,
		echo:      echo.New(),
		cache:     cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
		telegram:  tg,
	}, nil
}

// gormDB is nil when the database is disabled.
func (d *AppDependency) gormDB() *gorm.DB {
	if d.db == nil {
		return nil
	}
	return d.db.DB
}

func (d *AppDependency) Close() error {
	d.log.Debug("Closing app dependency")
	defer d.log.Sync()
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
