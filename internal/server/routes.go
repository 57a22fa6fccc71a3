package server

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/trendline/internal/handlers"
	"github.com/nfrund/trendline/web"
)

// RegisterRoutes sets up the application routes outside the modules.
func (s *Server) RegisterRoutes() {
	homeHandler := handlers.NewHomeHandler(s.nav)

	s.E.GET("/", homeHandler.HomeGet)
	s.E.GET("/health", handlers.Health(s.Version))
	s.E.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: s.Registry,
	}))
	s.E.StaticFS("/static", echo.MustSubFS(web.FS, "static"))
}
