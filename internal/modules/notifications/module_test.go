package notifications

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/trendline/internal/notification"
	"github.com/nfrund/trendline/internal/rendering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	calls atomic.Int32
	items []notification.Notification
	err   error
}

func (s *stubSource) Notifications(ctx context.Context) ([]notification.Notification, error) {
	s.calls.Add(1)
	return s.items, s.err
}

func setup(t *testing.T, src notification.Source) *echo.Echo {
	t.Helper()
	e := echo.New()
	m := New(Dependencies{Source: src, Renderer: rendering.NewUniversalRenderer()})
	require.NoError(t, m.Boot(context.Background(), e.Group("/app/notifications")))
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPage_BeforeLoadRequestsItems(t *testing.T) {
	src := &stubSource{}
	e := setup(t, src)

	rec := get(e, "/app/notifications")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `hx-get="/app/notifications/items"`)
	assert.Contains(t, body, `hx-trigger="load"`)
	assert.NotContains(t, body, "notification-item")
	assert.Zero(t, src.calls.Load(), "page render must not fetch")
}

func TestItems_LoadsOnce(t *testing.T) {
	e := setup(t, notification.StaticSource{})

	rec := get(e, "/app/notifications/items")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, strings.Count(rec.Body.String(), `class="notification-item"`))

	// Once loaded, the page renders the list inline.
	rec = get(e, "/app/notifications")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="notification-1"`)
	assert.NotContains(t, rec.Body.String(), "hx-get")
}

func TestItems_SourceCalledOnce(t *testing.T) {
	src := &stubSource{items: []notification.Notification{{ID: 4, Title: "Only"}}}
	e := setup(t, src)

	for range 3 {
		rec := get(e, "/app/notifications/items")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<h2>Only</h2>")
	}
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestItems_FailedLoad(t *testing.T) {
	src := &stubSource{err: errors.New("feed down")}
	e := setup(t, src)

	// The fragment must come back as 200 or htmx leaves the placeholder in place.
	rec := get(e, "/app/notifications/items")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notification-error")
	assert.Contains(t, rec.Body.String(), `id="notification-list"`)
	assert.NotContains(t, rec.Body.String(), "hx-get")

	rec = get(e, "/app/notifications")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notification-error")
	assert.Equal(t, int32(1), src.calls.Load())
}
