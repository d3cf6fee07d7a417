package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/infrastructure/retry"
	"github.com/jameskolean/blog-thumbs/internal/domain"
)

const (
	defaultFlushInterval  = time.Second
	defaultFlushThreshold = 100
	flushTimeout          = 5 * time.Second
)

// ErrFlusherStopped is returned by FlushNow after Stop.
var ErrFlusherStopped = errors.New("flusher stopped")

// FlushObserver receives the outcome of every flush.
type FlushObserver interface {
	ObserveFlush(votes int, elapsed time.Duration, err error)
}

// FlushFunc receives the new totals after a successful flush.
type FlushFunc func(ctx context.Context, thumbs []domain.Thumb)

// FlusherOption configures a Flusher.
type FlusherOption func(*Flusher)

// WithFlushInterval sets how often pending votes are written.
func WithFlushInterval(d time.Duration) FlusherOption {
	return func(f *Flusher) {
		if d > 0 {
			f.flushInterval = d
		}
	}
}

// WithFlushThreshold sets the batch size that triggers an early flush.
func WithFlushThreshold(n int) FlusherOption {
	return func(f *Flusher) {
		if n > 0 {
			f.flushThreshold = n
		}
	}
}

// WithOnFlush registers a callback for updated totals.
func WithOnFlush(fn FlushFunc) FlusherOption {
	return func(f *Flusher) { f.onFlush = fn }
}

// WithFlushObserver registers an observer, usually the metrics recorder.
func WithFlushObserver(o FlushObserver) FlusherOption {
	return func(f *Flusher) { f.observer = o }
}

// WithFlushRetry overrides the retry policy for ApplyDeltas.
func WithFlushRetry(cfg retry.Config) FlusherOption {
	return func(f *Flusher) { f.retry = cfg }
}

type flushResult struct {
	votes int
	err   error
}

// Flusher drains the Buffer into the Repository in aggregated batches.
type Flusher struct {
	repo           Repository
	buffer         *Buffer
	log            infralogger.Logger
	flushInterval  time.Duration
	flushThreshold int
	retry          retry.Config
	onFlush        FlushFunc
	observer       FlushObserver

	requests chan chan flushResult
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewFlusher creates a Flusher that reads votes from buffer.
func NewFlusher(repo Repository, buffer *Buffer, log infralogger.Logger, opts ...FlusherOption) *Flusher {
	f := &Flusher{
		repo:           repo,
		buffer:         buffer,
		log:            log,
		flushInterval:  defaultFlushInterval,
		flushThreshold: defaultFlushThreshold,
		retry: retry.Config{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     time.Second,
		},
		requests: make(chan chan flushResult),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start launches the background goroutine that batches and flushes votes.
func (f *Flusher) Start() {
	f.wg.Add(1)
	go f.flushLoop()
}

// Stop closes the buffer and waits for the final flush.
func (f *Flusher) Stop() {
	f.buffer.Close()
	f.wg.Wait()
}

// FlushNow drains everything queued so far and writes it immediately.
// It returns the number of votes written.
func (f *Flusher) FlushNow(ctx context.Context) (int, error) {
	reply := make(chan flushResult, 1)

	select {
	case f.requests <- reply:
	case <-f.done:
		return 0, ErrFlusherStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case res := <-reply:
		return res.votes, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// flushLoop accumulates a batch and flushes it when it reaches
// flushThreshold, when the ticker fires, on request, or on close.
func (f *Flusher) flushLoop() {
	defer f.wg.Done()
	defer close(f.done)

	ticker := time.NewTicker(f.flushInterval)
	defer ticker.Stop()

	batch := make([]domain.Vote, 0, f.flushThreshold)

	for {
		select {
		case vote := <-f.buffer.votes:
			batch = append(batch, vote)
			if len(batch) >= f.flushThreshold {
				_ = f.flush(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				_ = f.flush(batch)
				batch = batch[:0]
			}

		case reply := <-f.requests:
			f.drain(&batch)
			n := len(batch)
			err := f.flush(batch)
			batch = batch[:0]
			reply <- flushResult{votes: n, err: err}

		case <-f.buffer.closed:
			f.drain(&batch)
			_ = f.flush(batch)
			return
		}
	}
}

// drain reads all remaining votes from the buffer channel into the batch.
func (f *Flusher) drain(batch *[]domain.Vote) {
	for {
		select {
		case vote := <-f.buffer.votes:
			*batch = append(*batch, vote)
		default:
			return
		}
	}
}

func (f *Flusher) flush(batch []domain.Vote) error {
	if len(batch) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	start := time.Now()
	deltas := Aggregate(batch)

	retryCfg := f.retry
	retryCfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		f.log.Warn("Retrying vote flush",
			infralogger.Int("attempt", attempt),
			infralogger.Duration("delay", delay),
			infralogger.Error(err),
		)
	}

	var thumbs []domain.Thumb
	err := retry.Retry(ctx, retryCfg, func(ctx context.Context) error {
		var applyErr error
		thumbs, applyErr = f.repo.ApplyDeltas(ctx, deltas)
		return applyErr
	})

	if f.observer != nil {
		f.observer.ObserveFlush(len(batch), time.Since(start), err)
	}

	if err != nil {
		f.log.Error("Failed to apply votes",
			infralogger.Error(err),
			infralogger.Int("votes", len(batch)),
			infralogger.Int("slugs", len(deltas)),
		)
		return err
	}

	f.log.Debug("Flushed votes",
		infralogger.Int("votes", len(batch)),
		infralogger.Int("slugs", len(deltas)),
	)

	if f.onFlush != nil {
		f.onFlush(ctx, thumbs)
	}
	return nil
}
