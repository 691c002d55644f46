package model

import (
	"time"

	"gorm.io/datatypes"
)

type ExecutionStatus string

const (
	StatusRunning   ExecutionStatus = "running"
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
	StatusTimeout   ExecutionStatus = "timeout"
)

type ExecutionTrigger string

const (
	TriggerSchedule ExecutionTrigger = "schedule"
	TriggerManual   ExecutionTrigger = "manual"
)

// ScanExecution records one run of a scanner job.
type ScanExecution struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	JobType      string           `gorm:"type:varchar(50);not null;index" json:"job_type"`
	Trigger      ExecutionTrigger `gorm:"type:varchar(20);not null" json:"trigger"`
	Status       ExecutionStatus  `gorm:"type:varchar(20);not null" json:"status"`
	StartedAt    time.Time        `gorm:"not null" json:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	ExitCode     *int32           `json:"exit_code,omitempty"`
	Output       *string          `gorm:"type:text" json:"output,omitempty"`
	ErrorMessage *string          `gorm:"type:text" json:"error_message,omitempty"`
	Signals      datatypes.JSON   `gorm:"type:jsonb" json:"signals,omitempty"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (ScanExecution) TableName() string {
	return "scan_executions"
}

func (e *ScanExecution) IsFinished() bool {
	return e.Status != StatusRunning
}

type GetScanExecutionParam struct {
	JobType string `json:"job_type"`
	Limit   int    `json:"limit"`
}
