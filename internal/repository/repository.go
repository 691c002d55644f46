package repository

import (
	"forex-signal/config"
	"forex-signal/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	TwelveDataRepo   TwelveDataRepository
	BinanceRepo      BinanceRepository
	YahooFinanceRepo YahooFinanceRepository
	CandleRepo       CandleRepository
	ExecutionRepo    ExecutionRepository
}

// NewRepository wires the market data sources. Executions go to the database
// when db is non-nil and to a bounded in-memory list otherwise.
func NewRepository(cfg *config.Config, db *gorm.DB, log *logger.Logger) *Repository {
	twelveDataRepo := NewTwelveDataRepository(cfg, log)
	binanceRepo := NewBinanceRepository(cfg, log)
	yahooRepo := NewYahooFinanceRepository(cfg, log)

	var executionRepo ExecutionRepository
	if db != nil {
		executionRepo = NewExecutionRepository(db)
	} else {
		executionRepo = NewMemoryExecutionRepository(cfg.Scheduler.HistoryLimit)
	}

	return &Repository{
		TwelveDataRepo:   twelveDataRepo,
		BinanceRepo:      binanceRepo,
		YahooFinanceRepo: yahooRepo,
		CandleRepo:       NewCandleRepository(twelveDataRepo, binanceRepo, yahooRepo),
		ExecutionRepo:    executionRepo,
	}
}
