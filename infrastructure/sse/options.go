package sse

import (
	"slices"
	"time"
)

// Default configuration values.
const (
	DefaultEventBufferSize   = 256
	DefaultClientBufferSize  = 32
	DefaultHeartbeatInterval = 15 * time.Second
	DefaultShutdownTimeout   = 5 * time.Second
	DefaultMaxClients        = 500
)

// BrokerOption configures a broker.
type BrokerOption func(*broker)

// WithEventBufferSize sets the size of the shared publish queue.
func WithEventBufferSize(size int) BrokerOption {
	return func(b *broker) {
		if size > 0 {
			b.eventBufferSize = size
		}
	}
}

// WithMaxClients caps concurrent subscribers. Zero means unlimited.
func WithMaxClients(maxClients int) BrokerOption {
	return func(b *broker) {
		b.maxClients = maxClients
	}
}

// ClientOption configures a subscription.
type ClientOption func(*ClientOptions)

// WithFilter sets an event filter for the client.
func WithFilter(filter EventFilter) ClientOption {
	return func(opts *ClientOptions) {
		opts.Filter = filter
	}
}

// WithTypes passes only events whose Type is listed.
func WithTypes(types ...string) ClientOption {
	return WithFilter(func(event Event) bool {
		return slices.Contains(types, event.Type)
	})
}
