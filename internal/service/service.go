package service

import (
	"forex-signal/config"
	"forex-signal/internal/contract"
	"forex-signal/internal/repository"
	"forex-signal/internal/strategy"
	"forex-signal/pkg/cache"
	"forex-signal/pkg/logger"
)

type Service struct {
	SchedulerService  SchedulerService
	TaskExecutor      TaskExecutor
	SendSignalService SendSignalService
	ExecutionRepo     repository.ExecutionRepository
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	sender contract.MessageSender,
) (*Service, error) {
	sendSignalService := NewSendSignalService(cfg, log, sender, inmemoryCache)

	strategies := []strategy.JobExecutionStrategy{
		strategy.NewForexSignalStrategy(cfg, log, repo.CandleRepo, sendSignalService),
		strategy.NewCommoditySignalStrategy(cfg, log, repo.CandleRepo, sendSignalService),
		strategy.NewStockSignalStrategy(cfg, log, repo.CandleRepo, sendSignalService),
	}
	executorStrategies := make(map[strategy.JobType]strategy.JobExecutionStrategy, len(strategies))
	for _, s := range strategies {
		executorStrategies[s.GetType()] = s
	}

	taskExecutor := NewTaskExecutor(cfg, log, repo.ExecutionRepo, executorStrategies)
	schedulerService, err := NewSchedulerService(cfg, log, taskExecutor, repo.ExecutionRepo, strategies)
	if err != nil {
		return nil, err
	}

	return &Service{
		SchedulerService:  schedulerService,
		TaskExecutor:      taskExecutor,
		SendSignalService: sendSignalService,
		ExecutionRepo:     repo.ExecutionRepo,
	}, nil
}
