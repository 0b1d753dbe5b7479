package utils

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger() (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewSlogLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))), buf
}

func TestSlogLogger_LogRequestLevels(t *testing.T) {
	logger, buf := newBufferLogger()

	logger.LogRequest("GET", "/health", 200, "1ms")
	assert.Contains(t, buf.String(), "level=INFO")

	buf.Reset()
	logger.LogRequest("POST", "/api/v1/attempts/start", 403, "1ms")
	assert.Contains(t, buf.String(), "level=WARN")

	buf.Reset()
	logger.LogRequest("POST", "/api/v1/attempts/1/submit", 503, "1ms")
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "status_code=503")
}

func TestSlogLogger_LogError(t *testing.T) {
	logger, buf := newBufferLogger()
	logger.With("attempt_id", 7).LogError(errors.New("boom"), "Failed to submit")

	out := buf.String()
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "attempt_id=7")
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, _ := newBufferLogger()

	router := gin.New()
	router.Use(RequestID(logger))
	router.GET("/ping", func(c *gin.Context) {
		assert.NotNil(t, GetLoggerFromContext(c, nil))
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-1", w.Body.String())
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NotEmpty(t, w.Body.String())
	assert.Len(t, w.Body.String(), 36, "generated ids are uuids")
}
