// Package sse fans events out to Server-Sent Events subscribers.
package sse

import "context"

// Event is one SSE frame: "event: <Type>\nid: <ID>\ndata: <JSON>\n\n".
type Event struct {
	Type string `json:"type"`
	// Data must be JSON-serializable.
	Data any    `json:"data"`
	ID   string `json:"id,omitempty"`
}

// Publisher sends events to the broker.
type Publisher interface {
	// Publish queues event for every subscriber. It never blocks: a full
	// queue returns ErrBufferFull.
	Publish(ctx context.Context, event Event) error
}

// Broker manages subscriptions and event distribution.
type Broker interface {
	Publisher
	// Subscribe registers a client. The channel is closed when the client
	// is removed, ctx ends, or the broker stops; cleanup is idempotent.
	Subscribe(ctx context.Context, opts ...ClientOption) (events <-chan Event, cleanup func())
	Start(ctx context.Context) error
	Stop() error
	ClientCount() int
}

// EventFilter reports whether a client wants event.
type EventFilter func(event Event) bool

// ClientOptions configures a single subscription.
type ClientOptions struct {
	Filter     EventFilter
	BufferSize int
}

const eventTypeConnected = "connected"
