package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"forex-signal/config"
	"forex-signal/internal/dto"
	"forex-signal/internal/model"
	"forex-signal/internal/repository"
	"forex-signal/internal/schedule"
	"forex-signal/internal/strategy"
	"forex-signal/pkg/logger"
	"forex-signal/pkg/utils"

	"github.com/robfig/cron/v3"
)

type SchedulerService interface {
	Start(ctx context.Context) error
	Stop() context.Context
	RunJob(ctx context.Context, jobType strategy.JobType, trigger model.ExecutionTrigger) (*model.ScanExecution, error)
	TriggerJob(ctx context.Context, jobType strategy.JobType) error
	Jobs(now time.Time) []dto.JobInfo
	Schedule(jobType strategy.JobType) (*schedule.Schedule, error)
	IsRunning(jobType strategy.JobType) bool
}

type scheduledJob struct {
	strategy strategy.JobExecutionStrategy
	enabled  bool
	schedule *schedule.Schedule
}

type schedulerService struct {
	cfg           *config.Config
	log           *logger.Logger
	cron          *cron.Cron
	taskExecutor  TaskExecutor
	executionRepo repository.ExecutionRepository
	jobs          map[strategy.JobType]*scheduledJob
	order         []strategy.JobType
	semaphore     chan struct{}

	mu      sync.Mutex
	running map[strategy.JobType]bool
	wg      sync.WaitGroup
}

// JobSettings returns whether a job is enabled and its cron expressions.
func JobSettings(cfg *config.Config, jobType strategy.JobType) (bool, []string) {
	switch jobType {
	case strategy.JobTypeForexSignal:
		return cfg.Forex.Enabled, cfg.Forex.Schedules
	case strategy.JobTypeCommoditySignal:
		return cfg.Commodity.Enabled, cfg.Commodity.Schedules
	case strategy.JobTypeStockSignal:
		return cfg.Stock.Enabled, cfg.Stock.Schedules
	default:
		return false, nil
	}
}

func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	taskExecutor TaskExecutor,
	executionRepo repository.ExecutionRepository,
	strategies []strategy.JobExecutionStrategy,
) (*schedulerService, error) {
	cronLogger := log.CronLogger()
	s := &schedulerService{
		cfg:           cfg,
		log:           log,
		taskExecutor:  taskExecutor,
		executionRepo: executionRepo,
		jobs:          make(map[strategy.JobType]*scheduledJob),
		semaphore:     make(chan struct{}, cfg.Scheduler.MaxConcurrency),
		running:       make(map[strategy.JobType]bool),
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger)),
		),
	}

	for _, st := range strategies {
		enabled, exprs := JobSettings(cfg, st.GetType())
		job := &scheduledJob{strategy: st, enabled: enabled}
		if len(exprs) > 0 {
			sched, err := schedule.Parse(exprs...)
			if err != nil {
				return nil, fmt.Errorf("job %s: %w", st.GetType(), err)
			}
			job.schedule = sched
		}
		if enabled && job.schedule == nil {
			return nil, fmt.Errorf("job %s: %w", st.GetType(), schedule.ErrEmptySchedule)
		}
		s.jobs[st.GetType()] = job
		s.order = append(s.order, st.GetType())
	}
	return s, nil
}

// Start registers every enabled job on the cron runner. Jobs run with ctx, so
// cancelling it aborts in-flight scans.
func (s *schedulerService) Start(ctx context.Context) error {
	for _, jobType := range s.order {
		job := s.jobs[jobType]
		if !job.enabled {
			s.log.InfoContext(ctx, "Job disabled", logger.StringField("job", jobType.String()))
			continue
		}
		jobType := jobType
		s.cron.Schedule(job.schedule, cron.FuncJob(func() {
			s.runScheduled(ctx, jobType)
		}))
		s.log.InfoContext(ctx, "Job scheduled",
			logger.StringField("job", jobType.String()),
			logger.StringField("schedule", job.schedule.String()),
			logger.StringField("next_run", job.schedule.Next(utils.TimeNowUTC()).Format(time.RFC3339)),
		)
	}

	if s.cfg.Scheduler.Retention > 0 && s.cfg.Scheduler.CleanupSchedule != "" {
		cleanup, err := schedule.Parse(s.cfg.Scheduler.CleanupSchedule)
		if err != nil {
			return fmt.Errorf("cleanup schedule: %w", err)
		}
		s.cron.Schedule(cleanup, cron.FuncJob(func() {
			s.cleanUpExecutions(ctx)
		}))
	}

	s.cron.Start()
	s.log.InfoContext(ctx, "Scheduler started", logger.IntField("max_concurrency", s.cfg.Scheduler.MaxConcurrency))
	return nil
}

// Stop halts the cron runner. The returned context is done once scheduled and
// triggered runs have returned.
func (s *schedulerService) Stop() context.Context {
	cronCtx := s.cron.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		cancel()
	}()
	return ctx
}

func (s *schedulerService) runScheduled(ctx context.Context, jobType strategy.JobType) {
	if _, err := s.RunJob(ctx, jobType, model.TriggerSchedule); err != nil {
		if errors.Is(err, ErrJobAlreadyRunning) {
			s.log.WarnContext(ctx, "Skipping firing, previous run still active", logger.StringField("job", jobType.String()))
			return
		}
		s.log.ErrorContextWithAlert(ctx, "Scheduled job failed", logger.ErrorField(err), logger.StringField("job", jobType.String()))
	}
}

// RunJob runs a job synchronously. A job never overlaps itself.
func (s *schedulerService) RunJob(ctx context.Context, jobType strategy.JobType, trigger model.ExecutionTrigger) (*model.ScanExecution, error) {
	if err := s.acquire(jobType); err != nil {
		return nil, err
	}
	defer s.release(jobType)
	return s.execute(ctx, jobType, trigger)
}

// TriggerJob starts a manual run in the background. Lookup and overlap errors
// are reported synchronously.
func (s *schedulerService) TriggerJob(ctx context.Context, jobType strategy.JobType) error {
	if err := s.acquire(jobType); err != nil {
		return err
	}

	runCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	utils.GoSafe(s.log, func() {
		defer s.wg.Done()
		defer s.release(jobType)
		if _, err := s.execute(runCtx, jobType, model.TriggerManual); err != nil {
			s.log.ErrorContextWithAlert(runCtx, "Manual job failed", logger.ErrorField(err), logger.StringField("job", jobType.String()))
		}
	})
	return nil
}

func (s *schedulerService) execute(ctx context.Context, jobType strategy.JobType, trigger model.ExecutionTrigger) (*model.ScanExecution, error) {
	select {
	case s.semaphore <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.semaphore }()

	s.log.DebugContext(ctx, "Executing job",
		logger.StringField("job", jobType.String()),
		logger.IntField("active_concurrency", len(s.semaphore)),
		logger.IntField("max_concurrency", cap(s.semaphore)),
	)
	return s.taskExecutor.Execute(ctx, jobType, trigger)
}

func (s *schedulerService) acquire(jobType strategy.JobType) error {
	if _, ok := s.jobs[jobType]; !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[jobType] {
		return fmt.Errorf("%w: %s", ErrJobAlreadyRunning, jobType)
	}
	s.running[jobType] = true
	return nil
}

func (s *schedulerService) release(jobType strategy.JobType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, jobType)
}

func (s *schedulerService) IsRunning(jobType strategy.JobType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[jobType]
}

func (s *schedulerService) Schedule(jobType strategy.JobType) (*schedule.Schedule, error) {
	job, ok := s.jobs[jobType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobType)
	}
	if job.schedule == nil {
		return nil, fmt.Errorf("job %s: %w", jobType, schedule.ErrEmptySchedule)
	}
	return job.schedule, nil
}

func (s *schedulerService) Jobs(now time.Time) []dto.JobInfo {
	infos := make([]dto.JobInfo, 0, len(s.order))
	for _, jobType := range s.order {
		job := s.jobs[jobType]
		info := dto.JobInfo{
			Type:        jobType.String(),
			Enabled:     job.enabled,
			Running:     s.IsRunning(jobType),
			Description: job.strategy.Description(),
		}
		if job.schedule != nil {
			info.Schedules = job.schedule.Expressions()
			if next := job.schedule.Next(now); job.enabled && !next.IsZero() {
				info.NextRun = &next
			}
		}
		infos = append(infos, info)
	}
	return infos
}

func (s *schedulerService) cleanUpExecutions(ctx context.Context) {
	cutoff := utils.TimeNowUTC().Add(-s.cfg.Scheduler.Retention)
	deleted, err := s.executionRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to clean up scan executions", logger.ErrorField(err))
		return
	}
	s.log.InfoContext(ctx, "Scan executions cleaned up", logger.Field("deleted", deleted), logger.StringField("before", cutoff.Format(time.RFC3339)))
}
