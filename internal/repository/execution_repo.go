package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"forex-signal/internal/model"
	"forex-signal/pkg/utils"

	"gorm.io/gorm"
)

type ExecutionRepository interface {
	Create(ctx context.Context, execution *model.ScanExecution, opts ...utils.DBOption) error
	Update(ctx context.Context, execution *model.ScanExecution, opts ...utils.DBOption) error
	List(ctx context.Context, param model.GetScanExecutionParam, opts ...utils.DBOption) ([]model.ScanExecution, error)
	DeleteOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error)
}

type executionRepository struct {
	db *gorm.DB
}

func NewExecutionRepository(db *gorm.DB) ExecutionRepository {
	return &executionRepository{db: db}
}

func (r *executionRepository) Create(ctx context.Context, execution *model.ScanExecution, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(execution).Error
}

func (r *executionRepository) Update(ctx context.Context, execution *model.ScanExecution, opts ...utils.DBOption) error {
	if execution.ID == 0 {
		return fmt.Errorf("update scan execution: missing id")
	}
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Updates(execution).Error
}

func (r *executionRepository) List(ctx context.Context, param model.GetScanExecutionParam, opts ...utils.DBOption) ([]model.ScanExecution, error) {
	var executions []model.ScanExecution
	opts = append(opts,
		utils.WithEqual("job_type", param.JobType),
		utils.WithOrder("started_at DESC"),
		utils.WithLimit(param.Limit),
	)
	db := utils.ApplyOptions(r.db.WithContext(ctx).Model(&model.ScanExecution{}), opts...)
	if err := db.Find(&executions).Error; err != nil {
		return nil, err
	}
	return executions, nil
}

func (r *executionRepository) DeleteOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	opts = append(opts, utils.WithWhere("created_at < ?", date))
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Delete(&model.ScanExecution{})
	return result.RowsAffected, result.Error
}

// memoryExecutionRepository keeps the most recent executions when no database
// is configured. DB options are ignored.
type memoryExecutionRepository struct {
	mu     sync.RWMutex
	limit  int
	nextID uint
	items  []model.ScanExecution
}

func NewMemoryExecutionRepository(limit int) ExecutionRepository {
	if limit <= 0 {
		limit = 1
	}
	return &memoryExecutionRepository{limit: limit}
}

func (r *memoryExecutionRepository) Create(_ context.Context, execution *model.ScanExecution, _ ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	execution.ID = r.nextID
	if execution.CreatedAt.IsZero() {
		execution.CreatedAt = utils.TimeNowUTC()
	}
	r.items = append(r.items, *execution)
	if over := len(r.items) - r.limit; over > 0 {
		r.items = append([]model.ScanExecution(nil), r.items[over:]...)
	}
	return nil
}

func (r *memoryExecutionRepository) Update(_ context.Context, execution *model.ScanExecution, _ ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == execution.ID {
			r.items[i] = *execution
			return nil
		}
	}
	return fmt.Errorf("update scan execution %d: %w", execution.ID, gorm.ErrRecordNotFound)
}

func (r *memoryExecutionRepository) List(_ context.Context, param model.GetScanExecutionParam, _ ...utils.DBOption) ([]model.ScanExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.ScanExecution, 0, len(r.items))
	for _, e := range r.items {
		if param.JobType == "" || e.JobType == param.JobType {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if param.Limit > 0 && len(out) > param.Limit {
		out = out[:param.Limit]
	}
	return out, nil
}

func (r *memoryExecutionRepository) DeleteOlderThan(_ context.Context, date time.Time, _ ...utils.DBOption) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.items[:0]
	var deleted int64
	for _, e := range r.items {
		if e.CreatedAt.Before(date) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.items = kept
	return deleted, nil
}
