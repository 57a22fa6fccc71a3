package trending

import (
	"time"

	"github.com/nfrund/trendline/internal/pubsub"
)

// UpdatedEvent is the payload of TopicsUpdated.
type UpdatedEvent struct {
	Topics    []string `json:"topics"`
	Version   uint64   `json:"version"`
	Reason    string   `json:"reason"`
	Timestamp string   `json:"timestamp"`
}

// TopicsUpdated is published after every successful store mutation.
var TopicsUpdated = pubsub.NewEvent[UpdatedEvent](
	"trending.topics.updated",
	"The trending topic list changed; carries the full new list",
)

func newUpdatedEvent(u Update) UpdatedEvent {
	return UpdatedEvent{
		Topics:    []string(u.Topics),
		Version:   u.Version,
		Reason:    string(u.Reason),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
