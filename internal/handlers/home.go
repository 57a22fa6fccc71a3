package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/trendline/internal/view"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

// HomeHandler handles requests for the home page.
type HomeHandler struct {
	nav []view.NavItem
}

// NewHomeHandler creates a new HomeHandler listing nav as the available modules.
func NewHomeHandler(nav []view.NavItem) *HomeHandler {
	return &HomeHandler{nav: nav}
}

// HomeGet handles the GET request for the home page.
func (hh *HomeHandler) HomeGet(c echo.Context) error {
	body := h.Section(h.Class("home"),
		h.H1(g.Text("Trendline")),
		h.P(g.Text("Live trending topics and notifications.")),
		h.Ul(g.Map(hh.nav, func(item view.NavItem) g.Node {
			return h.Li(h.A(h.Href(item.Href), g.Text(item.Label)))
		})),
	)

	page := view.Page(view.PageData{
		Flash: view.GetFlashData(c),
		Nav:   hh.nav,
		Body:  body,
	})
	// The template name is ignored by the universal renderer.
	return c.Render(http.StatusOK, "", view.AdaptGomponentToTempl(page))
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health reports liveness.
func Health(version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: version})
	}
}
