package dto

import (
	"net/http"
	"time"
)

type BaseResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func NewBaseResponse(code int, message string, data interface{}) *BaseResponse {
	return &BaseResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewBadRequestResponse(message string) *BaseResponse {
	return NewBaseResponse(http.StatusBadRequest, message, nil)
}

func NewSuccessResponse(message string, data interface{}) *BaseResponse {
	return NewBaseResponse(http.StatusOK, message, data)
}

// JobInfo describes a registered job and its schedule.
type JobInfo struct {
	Type        string     `json:"type"`
	Enabled     bool       `json:"enabled"`
	Schedules   []string   `json:"schedules"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	Running     bool       `json:"running"`
	Description string     `json:"description"`
}

type GetExecutionsRequest struct {
	Type  string `param:"type" validate:"required"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

type RunJobRequest struct {
	Type string `param:"type" validate:"required"`
}
