package http

import (
	"context"
	"net/http"

	"forex-signal/config"
	"forex-signal/internal/dto"
	"forex-signal/internal/service"
	"forex-signal/pkg/middleware"
	"forex-signal/pkg/utils"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type HttpAPIHandler struct {
	cfg       config.API
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
}

func NewHttpAPIHandler(ctx context.Context, cfg config.API, echo *echo.Echo, validator *goValidator.Validate, service *service.Service) *HttpAPIHandler {
	return &HttpAPIHandler{
		cfg:       cfg,
		echo:      echo,
		validator: validator,
		service:   service,
	}
}

// SetupRoutes mounts everything under /api. Health checks bypass the limiter.
func (h *HttpAPIHandler) SetupRoutes() {
	limit := middleware.DefaultRateLimitConfig()
	if h.cfg.RateLimit > 0 {
		limit.Rate = h.cfg.RateLimit
	}
	if h.cfg.RateBurst > 0 {
		limit.Burst = h.cfg.RateBurst
	}
	limit.SkipPrefixes = []string{"/api/v1/health"}

	base := h.echo.Group("/api", middleware.NewRateLimiterMiddleware(limit))
	base.GET("/v1/health", h.health)
	h.SetupJobs(base)
}

func (h *HttpAPIHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", map[string]interface{}{
		"time": utils.TimeNowUTC(),
	}))
}
