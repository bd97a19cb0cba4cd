// Package pubsub distributes description rebuild events to web clients
// over Server-Sent Events.
package pubsub

import (
	"context"
	"encoding/json"
)

// Topic names used by the graphdesc server.
const (
	TopicBuildStatus = "build_status" // build progress and failures
	TopicDescription = "description"  // freshly built description documents
)

// Event is one published message on a topic.
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"` // e.g. "building", "built", "build_failed"
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic ordering
}

// Subscription is a client's view of one topic.
type Subscription interface {
	Topic() string
	Events() <-chan Event
	Close() error
}

// Publisher manages subscriptions and event delivery.
type Publisher interface {
	// Subscribe attaches to a topic. Cancelling ctx closes the
	// subscription. The topic's most recent event, if any, is replayed
	// so late subscribers see current state immediately.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish fans an event out to all subscribers of a topic. Data is
	// marshaled to JSON. Slow subscribers drop events rather than block.
	Publish(topic, eventType string, data interface{}) error

	Close() error
}

// BuildStatus is the payload on TopicBuildStatus.
type BuildStatus struct {
	State   string `json:"state"` // building, ready, failed
	Message string `json:"message,omitempty"`
	Source  string `json:"source,omitempty"` // declaration path
}
