package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func perform(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	router.ServeHTTP(w, req)
	return w
}

func TestHealthReportsDependencies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	health := NewHealth("test")
	health.AddCheck("database", func(context.Context) error { return nil })

	router := gin.New()
	router.GET("/health", health.Handler())

	w := perform(router, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "test", status.Version)
	assert.Equal(t, "ok", status.Dependencies["database"])
}

func TestHealthDegradedAndCached(t *testing.T) {
	gin.SetMode(gin.TestMode)
	calls := 0
	health := NewHealth("test")
	health.AddCheck("redis", func(context.Context) error {
		calls++
		return errors.New("connection refused")
	})

	router := gin.New()
	router.GET("/health", health.Handler())

	first := perform(router, http.MethodGet, "/health")
	second := perform(router, http.MethodGet, "/health")

	assert.Equal(t, http.StatusServiceUnavailable, first.Code)
	assert.Equal(t, http.StatusServiceUnavailable, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(zap.NewNop()), RecoveryMiddleware(zap.NewNop()))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := perform(router, http.MethodGet, "/panic")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestIDKeepsCallerValue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(zap.NewNop()))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestTimeoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(TimeoutMiddleware(10 * time.Millisecond))
	router.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	router.GET("/fast", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusGatewayTimeout, perform(router, http.MethodGet, "/slow").Code)
	assert.Equal(t, http.StatusNoContent, perform(router, http.MethodGet, "/fast").Code)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limit, err := RateLimit("2-M", zap.NewNop())
	require.NoError(t, err)

	router := gin.New()
	router.POST("/login", limit, func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(router, http.MethodPost, "/login").Code)
	second := perform(router, http.MethodPost, "/login")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusTooManyRequests, perform(router, http.MethodPost, "/login").Code)
}

func TestRateLimitRejectsBadFormat(t *testing.T) {
	_, err := RateLimit("often", zap.NewNop())
	assert.Error(t, err)
}
