package module

import (
	"context"

	"github.com/labstack/echo/v4"
)

// Module is a self-contained application feature mounted under /app/<Name>.
type Module interface {
	// Name returns a unique, URL-safe identifier for the module.
	Name() string

	// Boot sets up routes on the module's group and starts background work.
	Boot(ctx context.Context, group *echo.Group) error

	// Shutdown releases resources during graceful application shutdown.
	Shutdown(ctx context.Context) error
}

// BaseModule provides a no-op Shutdown for modules that hold no resources.
type BaseModule struct{}

func (m *BaseModule) Shutdown(ctx context.Context) error {
	return nil
}
