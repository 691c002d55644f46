package http

import (
	"errors"
	"net/http"

	"forex-signal/internal/dto"
	"forex-signal/internal/model"
	"forex-signal/internal/service"
	"forex-signal/internal/strategy"
	"forex-signal/pkg/utils"

	"github.com/labstack/echo/v4"
)

const defaultExecutionLimit = 20

func (h *HttpAPIHandler) SetupJobs(base *echo.Group) {
	v1 := base.Group("/v1/jobs")
	{
		v1.GET("", h.ListJobs)
		v1.POST("/:type/run", h.RunJob)
		v1.GET("/:type/executions", h.ListExecutions)
	}
}

func (h *HttpAPIHandler) ListJobs(c echo.Context) error {
	jobs := h.service.SchedulerService.Jobs(utils.TimeNowUTC())
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Jobs", jobs))
}

func (h *HttpAPIHandler) RunJob(c echo.Context) error {
	req := new(dto.RunJobRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	err := h.service.SchedulerService.TriggerJob(c.Request().Context(), strategy.JobType(req.Type))
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		return c.JSON(http.StatusNotFound, dto.NewBaseResponse(http.StatusNotFound, err.Error(), nil))
	case errors.Is(err, service.ErrJobAlreadyRunning):
		return c.JSON(http.StatusConflict, dto.NewBaseResponse(http.StatusConflict, err.Error(), nil))
	case err != nil:
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil))
	}
	return c.JSON(http.StatusAccepted, dto.NewBaseResponse(http.StatusAccepted, "Job started", map[string]string{"type": req.Type}))
}

func (h *HttpAPIHandler) ListExecutions(c echo.Context) error {
	req := new(dto.GetExecutionsRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}
	if _, ok := h.service.TaskExecutor.Strategy(strategy.JobType(req.Type)); !ok {
		return c.JSON(http.StatusNotFound, dto.NewBaseResponse(http.StatusNotFound, service.ErrJobNotFound.Error(), nil))
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultExecutionLimit
	}
	executions, err := h.service.ExecutionRepo.List(c.Request().Context(), model.GetScanExecutionParam{
		JobType: req.Type,
		Limit:   limit,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to list executions", nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Executions", executions))
}
