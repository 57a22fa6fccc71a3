package trending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/nfrund/trendline/internal/modules/trending/components"
	"github.com/nfrund/trendline/internal/pubsub"
	"github.com/nfrund/trendline/internal/rendering"
	topics "github.com/nfrund/trendline/internal/trending"
	"github.com/nfrund/trendline/internal/websocket"
)

// Broadcaster pushes a rendered fragment to every connected browser.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Subscriber turns TopicsUpdated events into out-of-band sidebar swaps.
type Subscriber struct {
	subscriber pubsub.Subscriber
	bridge     Broadcaster
	renderer   rendering.Renderer
	base       string

	// last is the highest version broadcast so far.
	last atomic.Uint64
}

// NewSubscriber creates the broadcast subscriber.
func NewSubscriber(sub pubsub.Subscriber, bridge Broadcaster, renderer rendering.Renderer, base string) *Subscriber {
	return &Subscriber{subscriber: sub, bridge: bridge, renderer: renderer, base: base}
}

// Start subscribes to topic updates until ctx is canceled.
func (s *Subscriber) Start(ctx context.Context) error {
	slog.Info("Starting trending subscriber")
	err := pubsub.Subscribe(ctx, s.subscriber, topics.TopicsUpdated, s.handleUpdate)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("subscribe %s: %w", topics.TopicsUpdated.Name(), err)
	}
	return nil
}

func (s *Subscriber) handleUpdate(ctx context.Context, ev topics.UpdatedEvent) error {
	// Events may arrive out of order; an older version would undo a newer swap.
	if last := s.last.Load(); ev.Version <= last {
		slog.Debug("Dropping stale topics update", "version", ev.Version, "last", last)
		return nil
	}

	html, err := s.renderer.RenderComponent(ctx, components.SidebarOOB(components.SidebarProps{
		Base:    s.base,
		Topics:  ev.Topics,
		Version: ev.Version,
	}))
	if err != nil {
		// last is untouched, so a redelivery or the next version is still sent.
		slog.Error("Failed to render sidebar update", "version", ev.Version, "error", err)
		return fmt.Errorf("render sidebar v%d: %w", ev.Version, err)
	}

	// Only advance after a successful render.
	for {
		last := s.last.Load()
		if ev.Version <= last {
			slog.Debug("Dropping stale topics update", "version", ev.Version, "last", last)
			return nil
		}
		if s.last.CompareAndSwap(last, ev.Version) {
			break
		}
	}
	s.bridge.Broadcast(html)
	return nil
}

// sendCurrent pushes the current sidebar to a newly connected client.
func sendCurrent(ctx context.Context, store *topics.Store, renderer rendering.Renderer, base string, c *websocket.Client) {
	cur, err := store.Current()
	if err != nil {
		slog.Warn("Cannot send sidebar to new client", "clientID", c.ID, "error", err)
		return
	}
	html, err := renderer.RenderComponent(ctx, components.SidebarOOB(components.SidebarProps{
		Base:    base,
		Topics:  cur.Topics,
		Version: cur.Version,
	}))
	if err != nil {
		slog.Error("Failed to render sidebar for new client", "clientID", c.ID, "error", err)
		return
	}
	c.SendMessage(html)
}
