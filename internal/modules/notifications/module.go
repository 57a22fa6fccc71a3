package notifications

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/trendline/internal/middleware"
	"github.com/nfrund/trendline/internal/module"
	"github.com/nfrund/trendline/internal/notification"
	"github.com/nfrund/trendline/internal/rendering"
	"github.com/nfrund/trendline/internal/view"
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"
)

// loadTimeout bounds the single fetch behind the items fragment.
const loadTimeout = 5 * time.Second

var _ module.Module = (*Module)(nil)

// Module serves the notifications page. The records are fetched on the first
// request for the list fragment and never again.
type Module struct {
	module.BaseModule
	view     *notification.View
	renderer rendering.Renderer
	nav      []view.NavItem
}

// Dependencies holds the services the notifications module requires.
type Dependencies struct {
	Source   notification.Source
	Renderer rendering.Renderer
	Nav      []view.NavItem
}

// New creates the notifications module.
func New(deps Dependencies) *Module {
	return &Module{
		view:     notification.NewView(deps.Source),
		renderer: deps.Renderer,
		nav:      deps.Nav,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "notifications"
}

// Boot registers the routes.
func (m *Module) Boot(ctx context.Context, group *echo.Group) error {
	slog.Info("Booting notifications module")
	group.GET("", m.page)
	group.GET("/items", m.items)
	return nil
}

// body renders the list when it is already settled, otherwise a placeholder that
// asks for the items fragment as soon as it lands in the DOM.
func (m *Module) body() g.Node {
	if m.view.State() != notification.StateEmpty {
		return m.view.Render()
	}
	return h.Div(
		h.ID(notification.ListID),
		h.Class("notification-main"),
		hx.Get("/app/"+m.Name()+"/items"),
		hx.Trigger("load"),
		hx.Swap("outerHTML"),
		h.P(h.Class("notification-loading"), g.Text("Loading notifications…")),
	)
}

func (m *Module) page(c echo.Context) error {
	page := view.Page(view.PageData{
		Title: "Notifications",
		Flash: view.GetFlashData(c),
		Nav:   m.nav,
		Body: h.Section(h.Class("notifications"),
			h.H1(g.Text("Notifications")),
			m.body(),
		),
	})
	return m.renderer.RenderPage(c, http.StatusOK, page)
}

// items answers 200 even when the load failed: htmx does not swap error
// responses, and the fragment itself carries the error block.
func (m *Module) items(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), loadTimeout)
	defer cancel()

	if err := m.view.Load(ctx); err != nil {
		middleware.FromContext(ctx).Error("Failed to load notifications", "state", m.view.State(), "error", err)
	}
	return m.renderer.RenderPage(c, http.StatusOK, m.view.Render())
}
