package app

import (
	"github.com/nfrund/trendline/internal/module"
	"github.com/nfrund/trendline/internal/modules/notifications"
	"github.com/nfrund/trendline/internal/modules/trending"
	"github.com/nfrund/trendline/internal/view"
)

// moduleNames lists the modules in boot order. It drives the header navigation.
var moduleNames = []string{"trending", "notifications"}

// NewModules creates and returns the list of all active modules for the application.
// This is the single source of truth for which features are enabled.
func NewModules(deps Dependencies) []module.Module {
	nav := view.NavFor(moduleNames...)

	return []module.Module{
		trending.New(trending.Dependencies{
			Store:      deps.Store,
			Subscriber: deps.Subscriber,
			Renderer:   deps.Renderer,
			Nav:        nav,
		}),
		notifications.New(notifications.Dependencies{
			Source:   deps.Notifications,
			Renderer: deps.Renderer,
			Nav:      nav,
		}),
	}
}
