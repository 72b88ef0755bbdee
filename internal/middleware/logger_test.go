package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func loggedRouter() (*gin.Engine, *observer.ObservedLogs) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/api/v2/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/api/v2/showcases", func(c *gin.Context) { c.String(http.StatusOK, "[]") })
	r.GET("/api/v2/search", func(c *gin.Context) { c.String(http.StatusInternalServerError, "boom") })
	return r, logs
}

func TestLoggerSkipsLivenessProbes(t *testing.T) {
	r, logs := loggedRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v2/ping", nil))
	assert.Equal(t, 0, logs.Len())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v2/showcases", nil))
	require.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "/api/v2/showcases", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
}

func TestLoggerElevatesServerErrors(t *testing.T) {
	r, logs := loggedRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v2/search", nil))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
}
