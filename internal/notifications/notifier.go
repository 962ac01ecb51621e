// Package notifications provides the realtime event stream: domain events
// fan out through Redis pub/sub to WebSocket clients.
package notifications

import (
	"context"
	"encoding/json"
	"log"
	"runtime/debug"
	"time"

	"parley/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Domain event types published on the stream.
const (
	EventCommentCreated = "comment_created"
	EventCommentDeleted = "comment_deleted"
	EventPostDeleted    = "post_deleted"
	EventReactionAdded  = "reaction_added"
)

const broadcastChannel = "events:broadcast"

// Event is one domain event on the stream.
type Event struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data,omitempty"`
	At   time.Time              `json:"at"`
}

// Notifier publishes events into Redis channels so every server instance
// can fan them out to its own WebSocket clients.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishEvent sends a domain event to the broadcast channel.
func (n *Notifier) PublishEvent(ctx context.Context, eventType string, data map[string]interface{}) error {
	observability.EventsPublished.WithLabelValues(eventType).Inc()
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(Event{Type: eventType, Data: data, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, broadcastChannel, payload).Err()
}

// StartSubscriber subscribes to the broadcast channel and calls onMessage
// for each incoming payload until the context ends.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, broadcastChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in event subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
