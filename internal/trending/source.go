package trending

import (
	"context"
	"time"
)

// DefaultPlaceholderDelay is how long the placeholder source waits before answering.
const DefaultPlaceholderDelay = 1000 * time.Millisecond

// PlaceholderTopics is the fixed list produced by PlaceholderSource.
var PlaceholderTopics = []Topic{"React", "TypeScript", "Web Development", "AI", "OpenAI"}

// Source produces the current list of trending topics.
type Source interface {
	Fetch(ctx context.Context) ([]Topic, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Topic, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context) ([]Topic, error) {
	return f(ctx)
}

// PlaceholderSource stands in for a real trending feed. After Delay it returns a copy
// of PlaceholderTopics. It only fails when ctx ends first.
type PlaceholderSource struct {
	Delay time.Duration
}

// NewPlaceholderSource returns a placeholder using DefaultPlaceholderDelay when delay <= 0.
func NewPlaceholderSource(delay time.Duration) *PlaceholderSource {
	if delay <= 0 {
		delay = DefaultPlaceholderDelay
	}
	return &PlaceholderSource{Delay: delay}
}

// Fetch implements Source.
func (p *PlaceholderSource) Fetch(ctx context.Context) ([]Topic, error) {
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	topics := make([]Topic, len(PlaceholderTopics))
	copy(topics, PlaceholderTopics)
	return topics, nil
}
