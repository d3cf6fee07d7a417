// Package service implements vote intake, rating reads and content queries
// on top of the storage and content packages.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/infrastructure/sse"
	"github.com/jameskolean/blog-thumbs/internal/content"
	"github.com/jameskolean/blog-thumbs/internal/domain"
	"github.com/jameskolean/blog-thumbs/internal/storage"
	"github.com/jameskolean/blog-thumbs/internal/tagfilter"
	"github.com/jameskolean/blog-thumbs/internal/telemetry"
)

const (
	maxSlugLength = 200

	// EventThumbsUpdated carries a domain.Thumb after each flush.
	EventThumbsUpdated = "thumbs:updated"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

var (
	ErrInvalidSlug      = errors.New("invalid slug")
	ErrUnknownSlug      = errors.New("unknown slug")
	ErrNoContent        = errors.New("content source not configured")
	ErrFlushUnavailable = errors.New("vote flusher not running")
)

// Recorder receives vote and event outcomes. *telemetry.Metrics satisfies it.
type Recorder interface {
	RecordVote(direction, result string)
	RecordEvent(published bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordVote(string, string) {}
func (nopRecorder) RecordEvent(bool)          {}

// Flusher is the part of storage.Flusher the service drives.
type Flusher interface {
	FlushNow(ctx context.Context) (int, error)
}

// Option configures a ThumbService.
type Option func(*ThumbService)

// WithContent enables post and tag queries and the known-slug check.
func WithContent(source *content.Source, requireKnownSlug bool) Option {
	return func(s *ThumbService) {
		s.source = source
		s.requireKnownSlug = requireKnownSlug
	}
}

// WithPublisher sends thumbs:updated events after each flush.
func WithPublisher(p sse.Publisher) Option {
	return func(s *ThumbService) { s.publisher = p }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(s *ThumbService) {
		if r != nil {
			s.metrics = r
		}
	}
}

// ThumbService accepts votes into the buffer and serves ratings.
type ThumbService struct {
	repo             storage.Repository
	buffer           *storage.Buffer
	flusher          Flusher
	source           *content.Source
	requireKnownSlug bool
	publisher        sse.Publisher
	metrics          Recorder
	logger           infralogger.Logger
	now              func() time.Time
}

// NewThumbService creates a service over repo and buffer.
func NewThumbService(repo storage.Repository, buffer *storage.Buffer, logger infralogger.Logger, opts ...Option) *ThumbService {
	s := &ThumbService{
		repo:    repo,
		buffer:  buffer,
		metrics: nopRecorder{},
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AttachFlusher wires the flusher used by Flush. The flusher is built
// after the service because its OnFlush callback is PublishUpdates.
func (s *ThumbService) AttachFlusher(f Flusher) {
	s.flusher = f
}

// ValidateSlug checks the shape of a slug.
func ValidateSlug(slug string) error {
	if slug == "" || len(slug) > maxSlugLength || !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

// List returns all stored ratings.
func (s *ThumbService) List(ctx context.Context) ([]domain.Thumb, error) {
	thumbs, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list thumbs: %w", err)
	}
	return thumbs, nil
}

// Get returns the rating for slug, or nil when it has never been voted on.
func (s *ThumbService) Get(ctx context.Context, slug string) (*domain.Thumb, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}

	thumb, err := s.repo.BySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get thumb: %w", err)
	}
	return thumb, nil
}

// Vote queues one increment. Bot votes are acknowledged but not counted.
func (s *ThumbService) Vote(_ context.Context, slug string, dir domain.Direction, isBot bool) error {
	if err := ValidateSlug(slug); err != nil {
		s.metrics.RecordVote(string(dir), telemetry.ResultInvalid)
		return err
	}

	if s.requireKnownSlug && s.source != nil && !s.source.Catalog().Has(slug) {
		s.metrics.RecordVote(string(dir), telemetry.ResultUnknownSlug)
		return fmt.Errorf("%w: %q", ErrUnknownSlug, slug)
	}

	if isBot {
		s.metrics.RecordVote(string(dir), telemetry.ResultBot)
		return nil
	}

	vote := domain.Vote{
		ID:         uuid.NewString(),
		Slug:       slug,
		Direction:  dir,
		ReceivedAt: s.now().UTC(),
	}
	if !s.buffer.Send(vote) {
		s.metrics.RecordVote(string(dir), telemetry.ResultDropped)
		s.logger.Warn("Vote buffer full, dropping vote",
			infralogger.String("slug", slug),
			infralogger.String("direction", string(dir)),
		)
		return storage.ErrBufferFull
	}

	s.metrics.RecordVote(string(dir), telemetry.ResultAccepted)
	return nil
}

// Flush writes all queued votes now.
func (s *ThumbService) Flush(ctx context.Context) (int, error) {
	if s.flusher == nil {
		return 0, ErrFlushUnavailable
	}

	n, err := s.flusher.FlushNow(ctx)
	if errors.Is(err, storage.ErrFlusherStopped) {
		return 0, ErrFlushUnavailable
	}
	return n, err
}

// PublishUpdates emits one thumbs:updated event per updated rating.
// It has the storage.FlushFunc signature.
func (s *ThumbService) PublishUpdates(ctx context.Context, thumbs []domain.Thumb) {
	if s.publisher == nil {
		return
	}

	for _, t := range thumbs {
		err := s.publisher.Publish(ctx, sse.Event{
			Type: EventThumbsUpdated,
			Data: t,
		})
		s.metrics.RecordEvent(err == nil)
		if err != nil {
			s.logger.Debug("Dropped thumbs update event",
				infralogger.String("slug", t.Slug),
				infralogger.Error(err),
			)
		}
	}
}

// Posts returns published posts carrying every tag in tags.
func (s *ThumbService) Posts(tags []string) ([]domain.Post, error) {
	if s.source == nil {
		return nil, ErrNoContent
	}
	return tagfilter.VisibleItems(s.source.Catalog().Published(), tagfilter.NewSelection(tags...)), nil
}

// Tags returns the tag catalog.
func (s *ThumbService) Tags() ([]domain.Tag, error) {
	if s.source == nil {
		return nil, ErrNoContent
	}
	return s.source.Catalog().Tags(), nil
}

// Stats describes the vote pipeline.
type Stats struct {
	BufferDepth    int `json:"buffer_depth"`
	BufferCapacity int `json:"buffer_capacity"`
	Posts          int `json:"posts"`
	Tags           int `json:"tags"`
}

// Stats returns a snapshot of buffer and catalog sizes.
func (s *ThumbService) Stats() Stats {
	st := Stats{
		BufferDepth:    s.buffer.Len(),
		BufferCapacity: s.buffer.Cap(),
	}
	if s.source != nil {
		c := s.source.Catalog()
		st.Posts = len(c.Posts())
		st.Tags = len(c.Tags())
	}
	return st
}

// Ping checks the repository.
func (s *ThumbService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
