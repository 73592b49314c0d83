package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
)

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "loud"}, config.AppConfig{Name: "svc", Env: "production"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics("test")
	m.RecordRequest("/auth/login", "POST", 200, 10*time.Millisecond)
	m.RecordRequest("/auth/login", "POST", 200, 20*time.Millisecond)
	m.RecordError("/auth/login", "POST", "UNAUTHORIZED")
	m.RecordFlow("login", "success")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestCount.WithLabelValues("/auth/login", "POST", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorCount.WithLabelValues("/auth/login", "POST", "UNAUTHORIZED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flowCount.WithLabelValues("login", "success")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.RecordFlow("login", "success") })
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	m := NewMetrics("test")
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/ping/:id", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest("GET", "/ping/1", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req := httptest.NewRequest("GET", "/ping/2", nil)
	req.Header.Set(RequestIDHeader, "abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Header.Get(RequestIDHeader))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestCount.WithLabelValues("/ping/:id", "GET", "200")))
}
