package trending

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/trendline/internal/middleware"
	"github.com/nfrund/trendline/internal/module"
	"github.com/nfrund/trendline/internal/pubsub"
	"github.com/nfrund/trendline/internal/rendering"
	topics "github.com/nfrund/trendline/internal/trending"
	"github.com/nfrund/trendline/internal/view"
	"github.com/nfrund/trendline/internal/websocket"
)

// DefaultMutationsPerMinute limits the write routes per client IP.
const DefaultMutationsPerMinute = 60

var _ module.Module = (*Module)(nil)

// Module owns the trending store for the lifetime of the application.
type Module struct {
	store      *topics.Store
	subscriber pubsub.Subscriber
	renderer   rendering.Renderer
	nav        []view.NavItem
	rateLimit  int
	origins    []string

	cancel context.CancelFunc
}

// Dependencies holds the services the trending module requires.
type Dependencies struct {
	Store      *topics.Store
	Subscriber pubsub.Subscriber
	Renderer   rendering.Renderer
	Nav        []view.NavItem
	// MutationsPerMinute defaults to DefaultMutationsPerMinute.
	MutationsPerMinute int
	// Origins are extra websocket origin patterns.
	Origins []string
}

// New creates the trending module.
func New(deps Dependencies) *Module {
	limit := deps.MutationsPerMinute
	if limit <= 0 {
		limit = DefaultMutationsPerMinute
	}
	return &Module{
		store:      deps.Store,
		subscriber: deps.Subscriber,
		renderer:   deps.Renderer,
		nav:        deps.Nav,
		rateLimit:  limit,
		origins:    deps.Origins,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "trending"
}

// Boot registers the routes, starts the live-update pipeline and seeds the store.
func (m *Module) Boot(ctx context.Context, g *echo.Group) error {
	slog.Info("Booting trending module")

	base := "/app/" + m.Name()
	ctx, m.cancel = context.WithCancel(ctx)

	bridge := websocket.NewBridge(m.Name(), m.origins...)
	bridge.OnConnect(func(c *websocket.Client) {
		sendCurrent(ctx, m.store, m.renderer, base, c)
	})
	go bridge.Run(ctx)

	if m.subscriber != nil {
		if err := NewSubscriber(m.subscriber, bridge, m.renderer, base).Start(ctx); err != nil {
			return err
		}
	}

	h := NewHandler(m.store, m.renderer, m.nav, base)
	limit := middleware.RateLimiter(m.rateLimit)

	g.GET("", h.Page)
	g.GET("/sidebar", h.Sidebar)
	g.GET("/ws", bridge.Handler())
	g.POST("/topics", h.AddTopic, limit)
	g.POST("/topics/remove", h.RemoveTopic, limit)
	g.POST("/refresh", h.Refresh, limit)

	api := g.Group("/api")
	api.GET("/topics", h.GetTopics)
	api.PUT("/topics", h.PutTopics, limit)
	api.POST("/refresh", h.PostRefresh, limit)

	return m.store.Activate(ctx)
}

// Shutdown stops the live-update pipeline and closes the store.
func (m *Module) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down trending module")
	if m.cancel != nil {
		m.cancel()
	}
	return m.store.Close()
}
