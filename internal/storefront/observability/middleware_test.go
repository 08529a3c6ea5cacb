package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLoggerRecordsStatusAndRoute(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(InjectLogger(logger))
	router.Use(RequestLogger())
	router.Get("/forms/{form}/status", func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Debug("handler ran")
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/forms/login/status", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	handlerLogs := logs.FilterMessage("handler ran").All()
	require.Len(t, handlerLogs, 1)
	require.NotEmpty(t, handlerLogs[0].ContextMap()["request_id"], "handler logger carries request fields")

	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	entry := completed[0]
	require.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	require.Equal(t, "/forms/{form}/status", fields["route"])
	require.Equal(t, int64(http.StatusTeapot), fields["status"])
	require.Equal(t, "GET", fields["method"])
}

func TestRecovererAnswers500(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	handler := InjectLogger(zap.New(core))(Recoverer()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/main", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestFromContextDefaultsToNop(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))
	require.NotNil(t, FromContext(nil)) //nolint:staticcheck
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger("not-a-level")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	require.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	debug, err := NewLogger("DEBUG")
	require.NoError(t, err)
	require.True(t, debug.Core().Enabled(zapcore.DebugLevel))
}

func TestSanitizeStringStripsControlCharacters(t *testing.T) {
	require.Equal(t, "abc", sanitizeString("a\nb\x00c", 10))
	require.Equal(t, "ab", sanitizeString("abcdef", 2))
}
