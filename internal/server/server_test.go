package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/trendline/internal/config"
	"github.com/nfrund/trendline/internal/module"
	"github.com/nfrund/trendline/internal/modules/notifications"
	trendingmodule "github.com/nfrund/trendline/internal/modules/trending"
	"github.com/nfrund/trendline/internal/notification"
	"github.com/nfrund/trendline/internal/rendering"
	"github.com/nfrund/trendline/internal/trending"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorHandler_WithStackTrace(t *testing.T) {
	e := echo.New()

	// Capture log output through the default logger.
	var logBuffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuffer, &slog.HandlerOptions{AddSource: true}))
	originalLogger := slog.Default()
	slog.SetDefault(logger)
	defer slog.SetDefault(originalLogger)

	setupErrorHandling(e)

	e.GET("/test-unhandled-error", func(c echo.Context) error {
		return errors.New("a deliberate unhandled error occurred")
	})

	req := httptest.NewRequest(http.MethodGet, "/test-unhandled-error", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	logOutput := logBuffer.String()
	assert.Contains(t, logOutput, "Internal Server Error (Unhandled)")
	assert.Contains(t, logOutput, `error="a deliberate unhandled error occurred"`)
	assert.Contains(t, logOutput, "stack_trace=")
	assert.Contains(t, logOutput, "runtime/debug/stack.go")
}

func TestHTTPErrorHandler_ClientErrorsNotLogged(t *testing.T) {
	e := echo.New()

	var logBuffer bytes.Buffer
	originalLogger := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logBuffer, nil)))
	defer slog.SetDefault(originalLogger)

	setupErrorHandling(e)
	e.GET("/bad", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "nope")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bad", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, logBuffer.String())
}

func newTestServer(t *testing.T) (*Server, *trending.Store) {
	t.Helper()

	reg := prometheus.NewRegistry()
	renderer := rendering.NewUniversalRenderer()
	store := trending.New(
		trending.SourceFunc(func(ctx context.Context) ([]trending.Topic, error) {
			return []trending.Topic{"Go"}, nil
		}),
		trending.WithMetrics(trending.NewMetrics(reg)),
	)

	s, err := New(Dependencies{
		Config:   &config.Config{Env: "test", SessionSecret: "test-session-secret-0123"},
		Renderer: renderer,
		Registry: reg,
		Version:  "test",
		Modules: []module.Module{
			trendingmodule.New(trendingmodule.Dependencies{Store: store, Renderer: renderer}),
			notifications.New(notifications.Dependencies{Source: notification.StaticSource{}, Renderer: renderer}),
		},
	})
	require.NoError(t, err)
	require.NoError(t, s.InitModules(context.Background()))
	s.RegisterRoutes()
	return s, store
}

func get(t *testing.T, s *Server, target string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return rec, string(body)
}

func TestServer_Routes(t *testing.T) {
	s, store := newTestServer(t)
	defer s.Shutdown(context.Background())

	require.Eventually(t, func() bool {
		cur, err := store.Current()
		return err == nil && cur.Version == 1
	}, 2*time.Second, 10*time.Millisecond)

	t.Run("home lists modules", func(t *testing.T) {
		rec, body := get(t, s, "/")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, body, `href="/app/trending"`)
		assert.Contains(t, body, `href="/app/notifications"`)
	})

	t.Run("health", func(t *testing.T) {
		rec, body := get(t, s, "/health")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok","version":"test"}`, body)
	})

	t.Run("request id", func(t *testing.T) {
		rec, _ := get(t, s, "/health")
		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	})

	t.Run("modules are mounted under app", func(t *testing.T) {
		rec, body := get(t, s, "/app/trending/api/topics")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"topics":["Go"],"version":1}`, body)

		rec, _ = get(t, s, "/app/notifications")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("static assets", func(t *testing.T) {
		rec, _ := get(t, s, "/static/app.css")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		rec, body := get(t, s, "/metrics")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, body, "trendline_http_requests_total")
		assert.Contains(t, body, "trendline_trending_topics 1")
	})
}

func TestServer_ShutdownClosesModules(t *testing.T) {
	s, store := newTestServer(t)

	var hookRan bool
	s.OnShutdown(func(ctx context.Context) error {
		hookRan = true
		return nil
	})

	require.NoError(t, s.Shutdown(context.Background()))
	assert.True(t, hookRan)

	_, err := store.Topics()
	assert.ErrorIs(t, err, trending.ErrOutOfScope)
}

func TestServer_DuplicateModule(t *testing.T) {
	renderer := rendering.NewUniversalRenderer()
	s, err := New(Dependencies{
		Config:   &config.Config{Env: "test", SessionSecret: "test-session-secret-0123"},
		Renderer: renderer,
		Modules: []module.Module{
			notifications.New(notifications.Dependencies{Source: notification.StaticSource{}, Renderer: renderer}),
			notifications.New(notifications.Dependencies{Source: notification.StaticSource{}, Renderer: renderer}),
		},
	})
	require.NoError(t, err)
	assert.ErrorContains(t, s.InitModules(context.Background()), "registered twice")
}

func TestNew_RequiresConfigAndRenderer(t *testing.T) {
	_, err := New(Dependencies{Renderer: rendering.NewUniversalRenderer()})
	assert.Error(t, err)

	_, err = New(Dependencies{Config: &config.Config{}})
	assert.Error(t, err)
}
