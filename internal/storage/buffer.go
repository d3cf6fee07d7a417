package storage

import (
	"sync"

	"github.com/jameskolean/blog-thumbs/internal/domain"
)

// Buffer is a channel-based vote buffer for non-blocking ingestion.
type Buffer struct {
	votes  chan domain.Vote
	closed chan struct{}
	once   sync.Once
}

// NewBuffer creates a buffer with a buffered channel of the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		votes:  make(chan domain.Vote, capacity),
		closed: make(chan struct{}),
	}
}

// Send performs a non-blocking send of a vote into the buffer.
// It returns false if the buffer is full or closed.
func (b *Buffer) Send(vote domain.Vote) bool {
	select {
	case <-b.closed:
		return false
	default:
	}

	select {
	case b.votes <- vote:
		return true
	default:
		return false
	}
}

// Len returns the number of votes waiting to be flushed.
func (b *Buffer) Len() int {
	return len(b.votes)
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return cap(b.votes)
}

// Close signals the buffer to stop accepting votes.
// It is safe to call multiple times.
func (b *Buffer) Close() {
	b.once.Do(func() {
		close(b.closed)
	})
}
