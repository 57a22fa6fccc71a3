package trending

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/trendline/internal/middleware"
	"github.com/nfrund/trendline/internal/modules/trending/components"
	"github.com/nfrund/trendline/internal/rendering"
	topics "github.com/nfrund/trendline/internal/trending"
	"github.com/nfrund/trendline/internal/view"
)

// Handler serves the trending pages, fragments and JSON API.
type Handler struct {
	store    *topics.Store
	renderer rendering.Renderer
	nav      []view.NavItem
	base     string
}

// NewHandler creates a handler. base is the path the module is mounted under.
func NewHandler(store *topics.Store, renderer rendering.Renderer, nav []view.NavItem, base string) *Handler {
	return &Handler{store: store, renderer: renderer, nav: nav, base: base}
}

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

// storeError maps store failures onto HTTP errors.
func storeError(c echo.Context, err error) error {
	logger := middleware.FromContext(c.Request().Context())
	switch {
	case errors.Is(err, topics.ErrOutOfScope):
		logger.Error("Trending store used outside its scope", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "trending topics are unavailable").SetInternal(err)
	case errors.Is(err, topics.ErrRefreshFailed):
		logger.Warn("Trending refresh failed", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "could not refresh trending topics").SetInternal(err)
	default:
		return err
	}
}

func (h *Handler) props(notice string) (components.SidebarProps, error) {
	cur, err := h.store.Current()
	if err != nil {
		return components.SidebarProps{}, err
	}
	return components.SidebarProps{
		Base:    h.base,
		Topics:  cur.Topics,
		Version: cur.Version,
		Notice:  notice,
	}, nil
}

// sidebar writes the sidebar fragment for htmx callers, or redirects plain form
// posts back to the page with a flash message.
func (h *Handler) sidebar(c echo.Context, notice, flash string, failed bool) error {
	if !isHTMX(c) {
		if flash != "" {
			if failed {
				view.SetFlashError(c, flash)
			} else {
				view.SetFlashSuccess(c, flash)
			}
		}
		return c.Redirect(http.StatusSeeOther, h.base)
	}

	p, err := h.props(notice)
	if err != nil {
		return storeError(c, err)
	}
	return h.renderer.RenderPage(c, http.StatusOK, components.Sidebar(p))
}

// Page serves the full trending page.
func (h *Handler) Page(c echo.Context) error {
	p, err := h.props("")
	if err != nil {
		return storeError(c, err)
	}

	page := view.Page(view.PageData{
		Title: "Trending",
		Flash: view.GetFlashData(c),
		Nav:   h.nav,
		Body:  components.Page(h.base, components.Sidebar(p)),
	})
	return h.renderer.RenderPage(c, http.StatusOK, page)
}

// Sidebar serves the sidebar fragment.
func (h *Handler) Sidebar(c echo.Context) error {
	p, err := h.props("")
	if err != nil {
		return storeError(c, err)
	}
	return h.renderer.RenderPage(c, http.StatusOK, components.Sidebar(p))
}

// AddTopic appends the posted topic.
func (h *Handler) AddTopic(c echo.Context) error {
	var req TopicForm
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "topic is required and must be at most 64 characters").SetInternal(err)
	}

	if err := h.store.AddTopic(req.Topic); err != nil {
		return storeError(c, err)
	}
	slog.Info("Topic added", "topic", req.Topic)
	return h.sidebar(c, "", "Added "+req.Topic, false)
}

// RemoveTopic drops every occurrence of the posted topic.
func (h *Handler) RemoveTopic(c echo.Context) error {
	var req TopicForm
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "topic is required and must be at most 64 characters").SetInternal(err)
	}

	if err := h.store.RemoveTopic(req.Topic); err != nil {
		return storeError(c, err)
	}
	slog.Info("Topic removed", "topic", req.Topic)
	return h.sidebar(c, "", "Removed "+req.Topic, false)
}

// Refresh reloads the list from the source. htmx callers get the sidebar with an
// inline notice on failure so the swap still happens.
func (h *Handler) Refresh(c echo.Context) error {
	_, err := h.store.Refresh(c.Request().Context())
	switch {
	case err == nil:
		return h.sidebar(c, "", "Trending topics refreshed", false)
	case errors.Is(err, topics.ErrRefreshFailed):
		middleware.FromContext(c.Request().Context()).Warn("Trending refresh failed", "error", err)
		return h.sidebar(c, "Refresh failed, showing the previous topics.", "Could not refresh trending topics", true)
	default:
		return storeError(c, err)
	}
}

// GetTopics returns the current topics as JSON.
func (h *Handler) GetTopics(c echo.Context) error {
	cur, err := h.store.Current()
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, TopicsResponse{Topics: cur.Topics, Version: cur.Version})
}

// PutTopics replaces the list wholesale.
func (h *Handler) PutTopics(c echo.Context) error {
	var req SetTopicsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()})
	}

	if err := h.store.SetTopics(req.Topics); err != nil {
		return storeError(c, err)
	}
	return h.GetTopics(c)
}

// PostRefresh refreshes and returns the new list as JSON.
func (h *Handler) PostRefresh(c echo.Context) error {
	res, err := h.store.Refresh(c.Request().Context())
	if errors.Is(err, topics.ErrRefreshFailed) {
		middleware.FromContext(c.Request().Context()).Warn("Trending refresh failed", "error", err)
		return c.JSON(http.StatusBadGateway, ErrorResponse{Code: "refresh_failed", Message: err.Error()})
	}
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, RefreshResponse{
		Topics:     res.Topics,
		Version:    res.Version,
		DurationMS: res.Duration.Milliseconds(),
	})
}
