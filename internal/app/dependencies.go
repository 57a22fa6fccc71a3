package app

import (
	"log/slog"

	"github.com/nfrund/trendline/internal/config"
	"github.com/nfrund/trendline/internal/notification"
	"github.com/nfrund/trendline/internal/pubsub"
	"github.com/nfrund/trendline/internal/rendering"
	"github.com/nfrund/trendline/internal/trending"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
)

// Dependencies holds the core services that are required by the application's modules.
// This struct is passed from the main application entrypoint to wire up the modules.
type Dependencies struct {
	Publisher     pubsub.Publisher
	Subscriber    pubsub.Subscriber
	Renderer      rendering.Renderer
	Store         *trending.Store
	Notifications notification.Source
}

// NewTrendingStore builds the topic store backed by the placeholder feed.
func NewTrendingStore(cfg config.Provider, pub pubsub.Publisher, reg prometheus.Registerer) *trending.Store {
	return trending.New(
		trending.NewPlaceholderSource(cfg.GetTopicsSourceDelay()),
		trending.WithPublisher(pub),
		trending.WithMetrics(trending.NewMetrics(reg)),
		trending.WithRefreshTimeout(cfg.GetTopicsRefreshTimeout()),
	)
}

// NewNotificationSource reads notifications from the configured file, or falls
// back to the built-in placeholders.
func NewNotificationSource(cfg config.Provider, fs afero.Fs) notification.Source {
	path := cfg.GetNotificationsFile()
	if path == "" {
		return notification.StaticSource{}
	}
	slog.Info("Reading notifications from file", "path", path)
	return notification.NewFileSource(fs, path)
}
