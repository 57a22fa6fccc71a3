package server

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/trendline/internal/config"
	"github.com/nfrund/trendline/internal/handlers"
	appmiddleware "github.com/nfrund/trendline/internal/middleware"
	"github.com/nfrund/trendline/internal/module"
	"github.com/nfrund/trendline/internal/rendering"
	"github.com/nfrund/trendline/internal/view"
	"github.com/prometheus/client_golang/prometheus"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E        *echo.Echo
	Cfg      config.Provider
	Renderer rendering.Renderer
	Registry *prometheus.Registry
	Version  string

	modules    []module.Module
	nav        []view.NavItem
	onShutdown []func(context.Context) error
}

// Dependencies holds everything New needs to build the server.
type Dependencies struct {
	Config   config.Provider
	Renderer rendering.Renderer
	// Registry backs the /metrics endpoint and the HTTP request metrics.
	Registry *prometheus.Registry
	// Echo is optional; tests pass their own instance.
	Echo    *echo.Echo
	Modules []module.Module
	Version string
}

// New creates a new Server instance with the middleware stack installed.
func New(deps Dependencies) (*Server, error) {
	if deps.Config == nil {
		return nil, errors.New("server: config is required")
	}
	if deps.Renderer == nil {
		return nil, errors.New("server: renderer is required")
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	e := deps.Echo
	if e == nil {
		e = echo.New()
	}
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	if r, ok := deps.Renderer.(echo.Renderer); ok {
		e.Renderer = r
	}
	setupErrorHandling(e)

	e.Use(middleware.RequestID())
	e.Use(appmiddleware.Logger)
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			logger := appmiddleware.FromContext(c.Request().Context())
			if v.Error != nil {
				logger.Warn("Request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Debug("Request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "trendline",
		Subsystem:  "http",
		Registerer: deps.Registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
	}))

	// Configure and use session middleware
	store := sessions.NewCookieStore([]byte(deps.Config.GetSessionSecret()))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   deps.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))

	names := make([]string, 0, len(deps.Modules))
	for _, m := range deps.Modules {
		names = append(names, m.Name())
	}

	return &Server{
		E:        e,
		Cfg:      deps.Config,
		Renderer: deps.Renderer,
		Registry: deps.Registry,
		Version:  deps.Version,
		modules:  deps.Modules,
		nav:      view.NavFor(names...),
	}, nil
}

// OnShutdown registers fn to run after the HTTP server and modules have stopped.
// Hooks run in reverse registration order.
func (s *Server) OnShutdown(fn func(context.Context) error) {
	s.onShutdown = append(s.onShutdown, fn)
}

// setupErrorHandling logs unhandled errors with a stack trace before delegating
// to echo's default handler.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			if he.Code >= http.StatusInternalServerError {
				appmiddleware.FromContext(c.Request().Context()).Error("Server error",
					"status", he.Code,
					"error", he.Message,
					"internal", he.Internal,
					"path", c.Path(),
				)
			}
		} else {
			appmiddleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
				"error", err.Error(),
				"path", c.Path(),
				"stack_trace", string(debug.Stack()),
			)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}

// Nav returns the header links for the mounted modules.
func (s *Server) Nav() []view.NavItem {
	return s.nav
}

// Modules returns the modules in boot order.
func (s *Server) Modules() []module.Module {
	return s.modules
}
