package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"forex-signal/config"
	"forex-signal/internal/model"
	"forex-signal/internal/repository"
	"forex-signal/internal/strategy"
	"forex-signal/pkg/logger"
	"forex-signal/pkg/utils"

	"gorm.io/datatypes"
)

type TaskExecutor interface {
	// Execute runs one job to completion under the scheduler timeout and
	// records it. The returned execution is non-nil once the record exists.
	Execute(ctx context.Context, jobType strategy.JobType, trigger model.ExecutionTrigger) (*model.ScanExecution, error)
	Strategy(jobType strategy.JobType) (strategy.JobExecutionStrategy, bool)
}

type taskExecutor struct {
	cfg                *config.Config
	log                *logger.Logger
	executionRepo      repository.ExecutionRepository
	executorStrategies map[strategy.JobType]strategy.JobExecutionStrategy
}

func NewTaskExecutor(cfg *config.Config, log *logger.Logger, executionRepo repository.ExecutionRepository, executorStrategies map[strategy.JobType]strategy.JobExecutionStrategy) TaskExecutor {
	return &taskExecutor{
		cfg:                cfg,
		log:                log,
		executionRepo:      executionRepo,
		executorStrategies: executorStrategies,
	}
}

func (t *taskExecutor) Strategy(jobType strategy.JobType) (strategy.JobExecutionStrategy, bool) {
	s, ok := t.executorStrategies[jobType]
	return s, ok
}

func (t *taskExecutor) Execute(ctx context.Context, jobType strategy.JobType, trigger model.ExecutionTrigger) (*model.ScanExecution, error) {
	executor, ok := t.executorStrategies[jobType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobType)
	}

	execution := &model.ScanExecution{
		JobType:   jobType.String(),
		Trigger:   trigger,
		Status:    model.StatusRunning,
		StartedAt: utils.TimeNowUTC(),
	}
	if err := t.executionRepo.Create(ctx, execution); err != nil {
		t.log.ErrorContext(ctx, "Failed to create scan execution", logger.ErrorField(err), logger.StringField("job", jobType.String()))
		return nil, fmt.Errorf("failed to create scan execution: %w", err)
	}

	runLog := t.log.ForRun(jobType.String(), string(trigger), execution.ID)
	runLog.Info("Processing job", logger.DurationField("timeout", t.cfg.Scheduler.TimeoutDuration))

	runCtx, cancel := context.WithTimeout(logger.NewContext(ctx, runLog), t.cfg.Scheduler.TimeoutDuration)
	defer cancel()

	result, runErr := executor.Execute(runCtx)
	switch {
	case runErr == nil:
		execution.Status = model.StatusCompleted
	case errors.Is(runErr, context.DeadlineExceeded):
		execution.Status = model.StatusTimeout
	default:
		execution.Status = model.StatusFailed
	}
	if runErr != nil {
		runLog.Error("Failed to execute job", logger.ErrorField(runErr))
		execution.ErrorMessage = utils.ToPointer(runErr.Error())
		result.ExitCode = strategy.JOB_EXIT_CODE_FAILED
	}

	execution.ExitCode = utils.ToPointer(result.ExitCode)
	if result.Output != "" {
		execution.Output = utils.ToPointer(result.Output)
	}
	if len(result.Signals) > 0 {
		signals, err := json.Marshal(result.Signals)
		if err != nil {
			runLog.Warn("Failed to encode signals", logger.ErrorField(err))
		} else {
			execution.Signals = datatypes.JSON(signals)
		}
	}
	execution.CompletedAt = utils.ToPointer(utils.TimeNowUTC())

	// The run may end because ctx was cancelled; the record must still land.
	if err := t.executionRepo.Update(context.WithoutCancel(ctx), execution); err != nil {
		runLog.Error("Failed to update scan execution", logger.ErrorField(err))
		return execution, errors.Join(runErr, fmt.Errorf("failed to update scan execution: %w", err))
	}

	runLog.Info("Job execution completed",
		logger.StringField("status", string(execution.Status)),
		logger.IntField("exit_code", int(result.ExitCode)),
	)
	return execution, runErr
}
