package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"forex-signal/internal/model"
	"forex-signal/pkg/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestExecutionRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExecutionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "scan_executions"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	execution := &model.ScanExecution{
		JobType:   "forex_signal",
		Trigger:   model.TriggerSchedule,
		Status:    model.StatusRunning,
		StartedAt: time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), execution))

	assert.Equal(t, uint(7), execution.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutionRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExecutionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "scan_executions" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	execution := &model.ScanExecution{
		ID:          7,
		Status:      model.StatusCompleted,
		CompletedAt: utils.ToPointer(time.Now().UTC()),
		ExitCode:    utils.ToPointer(int32(200)),
	}
	require.NoError(t, repo.Update(context.Background(), execution))
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Error(t, repo.Update(context.Background(), &model.ScanExecution{}))
}

func TestExecutionRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExecutionRepository(db)

	started := time.Date(2025, time.March, 3, 0, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "job_type", "trigger", "status", "started_at", "exit_code"}).
		AddRow(2, "forex_signal", "schedule", "completed", started, 204).
		AddRow(1, "forex_signal", "manual", "failed", started.Add(-30*time.Minute), 500)

	mock.ExpectQuery(`SELECT \* FROM "scan_executions" WHERE job_type = \$1 ORDER BY started_at DESC LIMIT`).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), model.GetScanExecutionParam{JobType: "forex_signal", Limit: 2})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, uint(2), got[0].ID)
	assert.Equal(t, model.StatusCompleted, got[0].Status)
	require.NotNil(t, got[1].ExitCode)
	assert.Equal(t, int32(500), *got[1].ExitCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutionRepository_DeleteOlderThan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExecutionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "scan_executions" WHERE created_at <`)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	deleted, err := repo.DeleteOlderThan(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryExecutionRepository(t *testing.T) {
	repo := NewMemoryExecutionRepository(3)
	ctx := context.Background()
	base := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		jobType := "forex_signal"
		if i == 2 {
			jobType = "stock_signal"
		}
		e := &model.ScanExecution{JobType: jobType, Status: model.StatusRunning, StartedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(ctx, e))
		assert.Equal(t, uint(i+1), e.ID)
	}

	all, err := repo.List(ctx, model.GetScanExecutionParam{})
	require.NoError(t, err)
	require.Len(t, all, 3, "oldest entry evicted")
	assert.Equal(t, uint(4), all[0].ID)

	forex, err := repo.List(ctx, model.GetScanExecutionParam{JobType: "forex_signal", Limit: 1})
	require.NoError(t, err)
	require.Len(t, forex, 1)
	assert.Equal(t, uint(4), forex[0].ID)

	updated := all[0]
	updated.Status = model.StatusCompleted
	require.NoError(t, repo.Update(ctx, &updated))
	all, _ = repo.List(ctx, model.GetScanExecutionParam{Limit: 1})
	assert.Equal(t, model.StatusCompleted, all[0].Status)

	assert.ErrorIs(t, repo.Update(ctx, &model.ScanExecution{ID: 1}), gorm.ErrRecordNotFound)

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}
