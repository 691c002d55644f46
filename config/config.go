package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"forex-signal/pkg/common"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log          Logger           `mapstructure:"logger"`
	DB           Database         `mapstructure:"database"`
	API          API              `mapstructure:"api"`
	Scheduler    Scheduler        `mapstructure:"scheduler"`
	TwelveData   TwelveData       `mapstructure:"twelvedata"`
	Binance      MarketAPI        `mapstructure:"binance"`
	YahooFinance MarketAPI        `mapstructure:"yahoofinance"`
	Cache        Cache            `mapstructure:"cache"`
	Telegram     TelegramConfig   `mapstructure:"telegram"`
	Forex        ForexScanner     `mapstructure:"forex"`
	Commodity    CommodityScanner `mapstructure:"commodity"`
	Stock        StockScanner     `mapstructure:"stock"`
}

type Logger struct {
	Level    string `mapstructure:"level" validate:"required"`
	Encoding string `mapstructure:"encoding" validate:"oneof=json console"`
}

type Database struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type Scheduler struct {
	MaxConcurrency  int           `mapstructure:"max_concurrency" validate:"min=1"`
	TimeoutDuration time.Duration `mapstructure:"timeout_duration" validate:"gt=0"`
	HistoryLimit    int           `mapstructure:"history_limit" validate:"min=1"`
	Retention       time.Duration `mapstructure:"retention"`
	CleanupSchedule string        `mapstructure:"cleanup_schedule"`
}

type API struct {
	Enabled   bool    `mapstructure:"enabled"`
	Port      int     `mapstructure:"port"`
	RateLimit float64 `mapstructure:"rate_limit" validate:"gt=0"`
	RateBurst int     `mapstructure:"rate_burst" validate:"min=1"`
}

type TwelveData struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url" validate:"required,url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute" validate:"min=1"`
	RetryCount          int           `mapstructure:"retry_count"`
}

type MarketAPI struct {
	BaseURL             string        `mapstructure:"base_url" validate:"required,url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute" validate:"min=1"`
	RetryCount          int           `mapstructure:"retry_count"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	SignalDuration    time.Duration `mapstructure:"signal_duration"`
}

type TelegramConfig struct {
	BotToken                  string        `mapstructure:"bot_token"`
	ChatID                    string        `mapstructure:"chat_id"`
	APIURL                    string        `mapstructure:"api_url" validate:"required,url"`
	TimeoutDuration           time.Duration `mapstructure:"timeout_duration"`
	MaxGlobalRequestPerSecond int           `mapstructure:"max_global_request_per_second" validate:"min=1"`
	SendInterval              time.Duration `mapstructure:"send_interval"`
	AlertEnabled              bool          `mapstructure:"alert_enabled"`
}

type ForexScanner struct {
	Enabled               bool     `mapstructure:"enabled"`
	Schedules             []string `mapstructure:"schedules" validate:"required_if=Enabled true,dive,required"`
	Pairs                 []string `mapstructure:"pairs" validate:"required_if=Enabled true"`
	PrimaryTimeframe      string   `mapstructure:"primary_timeframe" validate:"required"`
	ConfirmationTimeframe string   `mapstructure:"confirmation_timeframe" validate:"required"`
	OutputSize            int      `mapstructure:"output_size" validate:"min=50,max=5000"`
	TopSignals            int      `mapstructure:"top_signals" validate:"min=1"`
	RSIPeriod             int      `mapstructure:"rsi_period" validate:"min=1"`
	BBPeriod              int      `mapstructure:"bb_period" validate:"min=1"`
	BBStdDev              float64  `mapstructure:"bb_stddev" validate:"gt=0"`
	EMAFast               int      `mapstructure:"ema_fast" validate:"min=1"`
	EMASlow               int      `mapstructure:"ema_slow" validate:"gtfield=EMAFast"`
	ADXPeriod             int      `mapstructure:"adx_period" validate:"min=1"`
	ADXThreshold          float64  `mapstructure:"adx_threshold"`
	ATRPeriod             int      `mapstructure:"atr_period" validate:"min=1"`
}

type CommodityScanner struct {
	Enabled               bool     `mapstructure:"enabled"`
	Schedules             []string `mapstructure:"schedules" validate:"required_if=Enabled true,dive,required"`
	PrimaryTimeframe      string   `mapstructure:"primary_timeframe" validate:"required"`
	ConfirmationTimeframe string   `mapstructure:"confirmation_timeframe" validate:"required"`
	Lookback              int      `mapstructure:"lookback" validate:"min=50"`
	ConfirmationLookback  int      `mapstructure:"confirmation_lookback" validate:"min=50"`
	Capital               float64  `mapstructure:"capital" validate:"gt=0"`
	RiskPerTrade          float64  `mapstructure:"risk_per_trade" validate:"gt=0,lt=1"`
	ConfidenceBoost       int      `mapstructure:"confidence_boost"`
	MinConfidence         int      `mapstructure:"min_confidence"`
	TopSignals            int      `mapstructure:"top_signals" validate:"min=1"`
	MaxConcurrency        int      `mapstructure:"max_concurrency" validate:"min=1"`
}

type StockScanner struct {
	Enabled        bool     `mapstructure:"enabled"`
	Schedules      []string `mapstructure:"schedules" validate:"required_if=Enabled true,dive,required"`
	Timeframe      string   `mapstructure:"timeframe" validate:"required"`
	Lookback       int      `mapstructure:"lookback" validate:"min=50"`
	Range          string   `mapstructure:"range" validate:"required"`
	ATRMultiplier  float64  `mapstructure:"atr_multiplier" validate:"gt=0"`
	MinADX         float64  `mapstructure:"min_adx"`
	TopSignals     int      `mapstructure:"top_signals" validate:"min=1"`
	MaxConcurrency int      `mapstructure:"max_concurrency" validate:"min=1"`
}

// Load reads config.yaml from the given directories (default "."), a sibling
// .env file, and the process environment, in increasing precedence.
func Load(paths ...string) (*Config, error) {
	return LoadWithViper(viper.New(), paths...)
}

func LoadWithViper(v *viper.Viper, paths ...string) (*Config, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	for _, p := range paths {
		envFile := filepath.Join(p, ".env")
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
		v.AddConfigPath(p)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := goValidator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// MissingSecrets lists the environment variables whose values are empty.
func (c *Config) MissingSecrets() []string {
	var missing []string
	if strings.TrimSpace(c.TwelveData.APIKey) == "" {
		missing = append(missing, common.ENV_TWELVEDATA_API_KEY)
	}
	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		missing = append(missing, common.ENV_TELEGRAM_BOT_TOKEN)
	}
	if strings.TrimSpace(c.Telegram.ChatID) == "" {
		missing = append(missing, common.ENV_TELEGRAM_CHAT_ID)
	}
	return missing
}

func (c *Config) ValidateSecrets() error {
	if missing := c.MissingSecrets(); len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "forex_signal")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.time_zone", "UTC")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.log_level", "Warn")

	v.SetDefault("api.enabled", true)
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.rate_burst", 30)

	v.SetDefault("scheduler.max_concurrency", 1)
	v.SetDefault("scheduler.timeout_duration", "25m")
	v.SetDefault("scheduler.history_limit", 200)
	v.SetDefault("scheduler.retention", "720h")
	v.SetDefault("scheduler.cleanup_schedule", "0 3 * * *")

	v.SetDefault("twelvedata.api_key", "")
	v.SetDefault("twelvedata.base_url", "https://api.twelvedata.com")
	v.SetDefault("twelvedata.timeout", "30s")
	v.SetDefault("twelvedata.max_request_per_minute", 6)
	v.SetDefault("twelvedata.retry_count", 2)

	v.SetDefault("binance.base_url", "https://api.binance.com")
	v.SetDefault("binance.timeout", "15s")
	v.SetDefault("binance.max_request_per_minute", 600)
	v.SetDefault("binance.retry_count", 3)

	v.SetDefault("yahoofinance.base_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("yahoofinance.timeout", "15s")
	v.SetDefault("yahoofinance.max_request_per_minute", 60)
	v.SetDefault("yahoofinance.retry_count", 3)

	v.SetDefault("cache.default_expiration", "4h")
	v.SetDefault("cache.cleanup_interval", "10m")
	v.SetDefault("cache.signal_duration", "4h")

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_url", "https://api.telegram.org")
	v.SetDefault("telegram.timeout_duration", "10s")
	v.SetDefault("telegram.max_global_request_per_second", 1)
	v.SetDefault("telegram.send_interval", "1s")
	v.SetDefault("telegram.alert_enabled", true)

	v.SetDefault("forex.enabled", true)
	v.SetDefault("forex.schedules", []string{"*/30 * * * 1-4", "*/30 6-12 * * 5"})
	v.SetDefault("forex.pairs", []string{
		"EUR/USD", "USD/JPY", "GBP/USD", "AUD/USD", "USD/CAD",
		"USD/CHF", "NZD/USD", "EUR/JPY", "GBP/JPY", "EUR/GBP",
	})
	v.SetDefault("forex.primary_timeframe", "4h")
	v.SetDefault("forex.confirmation_timeframe", "1h")
	v.SetDefault("forex.output_size", 200)
	v.SetDefault("forex.top_signals", 3)
	v.SetDefault("forex.rsi_period", 14)
	v.SetDefault("forex.bb_period", 20)
	v.SetDefault("forex.bb_stddev", 2.0)
	v.SetDefault("forex.ema_fast", 50)
	v.SetDefault("forex.ema_slow", 200)
	v.SetDefault("forex.adx_period", 14)
	v.SetDefault("forex.adx_threshold", 20.0)
	v.SetDefault("forex.atr_period", 14)

	v.SetDefault("commodity.enabled", false)
	v.SetDefault("commodity.schedules", []string{"0 */4 * * 1-5"})
	v.SetDefault("commodity.primary_timeframe", "4h")
	v.SetDefault("commodity.confirmation_timeframe", "1h")
	v.SetDefault("commodity.lookback", 500)
	v.SetDefault("commodity.confirmation_lookback", 200)
	v.SetDefault("commodity.capital", 100.0)
	v.SetDefault("commodity.risk_per_trade", 0.01)
	v.SetDefault("commodity.confidence_boost", 10)
	v.SetDefault("commodity.min_confidence", 50)
	v.SetDefault("commodity.top_signals", 3)
	v.SetDefault("commodity.max_concurrency", 2)

	v.SetDefault("stock.enabled", false)
	v.SetDefault("stock.schedules", []string{"15 */4 * * 1-5"})
	v.SetDefault("stock.timeframe", "4h")
	v.SetDefault("stock.lookback", 50)
	v.SetDefault("stock.range", "2m")
	v.SetDefault("stock.atr_multiplier", 1.5)
	v.SetDefault("stock.min_adx", 20.0)
	v.SetDefault("stock.top_signals", 3)
	v.SetDefault("stock.max_concurrency", 2)
}
