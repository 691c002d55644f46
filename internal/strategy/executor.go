package strategy

import (
	"context"
	"encoding/json"

	"forex-signal/internal/dto"
)

const (
	JOB_EXIT_CODE_SUCCESS         = 200
	JOB_EXIT_CODE_FAILED          = 500
	JOB_EXIT_CODE_SKIPPED         = 204
	JOB_EXIT_CODE_PARTIAL_SUCCESS = 206
)

type JobType string

const (
	JobTypeForexSignal     JobType = "forex_signal"
	JobTypeCommoditySignal JobType = "commodity_signal"
	JobTypeStockSignal     JobType = "stock_signal"
)

func (t JobType) String() string {
	return string(t)
}

type JobResult struct {
	ExitCode int32        `json:"exit_code"`
	Output   string       `json:"output"`
	Signals  []dto.Signal `json:"signals"`
}

// JobExecutionStrategy defines the interface for different job execution strategies.
type JobExecutionStrategy interface {
	Execute(ctx context.Context) (JobResult, error)
	GetType() JobType
	Description() string
}

// ScanSummary is serialized into JobResult.Output.
type ScanSummary struct {
	Job        JobType `json:"job"`
	Scanned    int     `json:"scanned"`
	Failed     int     `json:"failed"`
	Detected   int     `json:"detected"`
	Sent       int     `json:"sent"`
	Duplicates int     `json:"duplicates"`
	SendFailed int     `json:"send_failed"`
}

// ExitCode grades a scan: 500 when nothing could be scanned or every send
// failed, 204 with no signals, 206 when some symbol or send failed.
func (s ScanSummary) ExitCode() int32 {
	switch {
	case s.Scanned > 0 && s.Failed == s.Scanned:
		return JOB_EXIT_CODE_FAILED
	case s.SendFailed > 0 && s.Sent == 0 && s.Duplicates == 0:
		return JOB_EXIT_CODE_FAILED
	case s.Detected == 0:
		if s.Failed > 0 {
			return JOB_EXIT_CODE_PARTIAL_SUCCESS
		}
		return JOB_EXIT_CODE_SKIPPED
	case s.Failed > 0 || s.SendFailed > 0:
		return JOB_EXIT_CODE_PARTIAL_SUCCESS
	default:
		return JOB_EXIT_CODE_SUCCESS
	}
}

func (s ScanSummary) Result(signals []dto.Signal) JobResult {
	output, _ := json.Marshal(s)
	return JobResult{
		ExitCode: s.ExitCode(),
		Output:   string(output),
		Signals:  signals,
	}
}
