package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// RateLimitConfig is a per client IP token bucket. Paths under SkipPrefixes
// are never limited.
type RateLimitConfig struct {
	Rate         float64
	Burst        int
	ExpiresIn    time.Duration
	SkipPrefixes []string
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Rate: 10, Burst: 30, ExpiresIn: 3 * time.Minute}
}

// retryAfter is the whole seconds until one token is back.
func (c RateLimitConfig) retryAfter() string {
	if c.Rate <= 0 {
		return "60"
	}
	return strconv.Itoa(int(math.Ceil(1 / c.Rate)))
}

func NewRateLimiterMiddleware(cfg RateLimitConfig) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			for _, prefix := range cfg.SkipPrefixes {
				if strings.HasPrefix(c.Request().URL.Path, prefix) {
					return true
				}
			}
			return false
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.Rate),
			Burst:     cfg.Burst,
			ExpiresIn: cfg.ExpiresIn,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, errorResponse{
				Status:  http.StatusForbidden,
				Message: "rate limiter could not identify the client",
			})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			c.Response().Header().Set("Retry-After", cfg.retryAfter())
			return c.JSON(http.StatusTooManyRequests, errorResponse{
				Status:  http.StatusTooManyRequests,
				Message: "rate limit exceeded, retry later",
			})
		},
	})
}
