package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newLimitedEcho(cfg RateLimitConfig) *echo.Echo {
	e := echo.New()
	e.Use(NewRateLimiterMiddleware(cfg))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	return e
}

func hit(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestNewRateLimiterMiddleware_DeniesAfterBurst(t *testing.T) {
	e := newLimitedEcho(RateLimitConfig{Rate: 0.5, Burst: 2, ExpiresIn: time.Minute})

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = hit(e, "/ping")
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "2", last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), "rate limit exceeded")
}

func TestNewRateLimiterMiddleware_SkipsPrefixes(t *testing.T) {
	e := newLimitedEcho(RateLimitConfig{Rate: 0.001, Burst: 1, ExpiresIn: time.Minute, SkipPrefixes: []string{"/health"}})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(e, "/health").Code)
	}
}
