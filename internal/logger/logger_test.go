package logger

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestForRunTagsRunID(t *testing.T) {
	var buf bytes.Buffer
	t.Setenv("LOG_FORMAT", "json")
	SetupWriter(&buf)
	ForRun("abc-123").Info("tenant_run_done")
	assert.Contains(t, buf.String(), `"run_id":"abc-123"`)
	assert.Contains(t, buf.String(), `"msg":"tenant_run_done"`)
}

func TestAccessMiddlewareLogsErrors(t *testing.T) {
	var buf bytes.Buffer
	t.Setenv("LOG_FORMAT", "")
	l := SetupWriter(&buf)
	h := AccessMiddleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("nope"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tenants", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	out := buf.String()
	assert.Contains(t, out, "http_access")
	assert.Contains(t, out, "status=422")
	assert.Contains(t, out, "bytes=4")
}
