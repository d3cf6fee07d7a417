package widget

import (
	"context"
	"fmt"
	"sync"
	"time"

	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/internal/domain"
)

const defaultSendTimeout = 5 * time.Second

// Counter is the backend counter service as seen by the widget.
type Counter interface {
	FetchAll(ctx context.Context) ([]domain.Thumb, error)
	Increment(ctx context.Context, slug string, dir domain.Direction) error
}

// Counts is the locally displayed rating of one item.
type Counts struct {
	Likes    int64
	Dislikes int64
}

// View is what the widget shows for one item.
type View struct {
	Slug string
	// Counts is nil while ratings have not been loaded.
	Counts *Counts
	// Voted disables both buttons.
	Voted bool
}

// Option configures a Widget.
type Option func(*Widget)

// WithSendTimeout bounds each fire-and-forget increment request.
func WithSendTimeout(d time.Duration) Option {
	return func(w *Widget) {
		if d > 0 {
			w.sendTimeout = d
		}
	}
}

// Widget holds the local, eventually consistent copy of the ratings for
// one page view. Its methods must be called from a single goroutine; the
// increment requests it starts never touch its state.
type Widget struct {
	counter     Counter
	session     *Session
	log         infralogger.Logger
	sendTimeout time.Duration

	ratings map[string]Counts
	loaded  bool
	// pending holds votes cast before the first bulk result arrived.
	pending map[string]Counts

	inflight sync.WaitGroup
}

// New creates a widget for one session.
func New(counter Counter, session *Session, log infralogger.Logger, opts ...Option) *Widget {
	w := &Widget{
		counter:     counter,
		session:     session,
		log:         log,
		sendTimeout: defaultSendTimeout,
		ratings:     make(map[string]Counts),
		pending:     make(map[string]Counts),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Load fetches every known rating in one request and applies it. On
// failure the ratings stay absent; the error is only for logging.
func (w *Widget) Load(ctx context.Context) error {
	thumbs, err := w.counter.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("bulk fetch ratings: %w", err)
	}
	w.Apply(thumbs)
	return nil
}

// Apply installs a bulk fetch result. Slugs missing from thumbs render as
// zero from now on. A vote cast before the first result is added on top of
// the fetched counts; slugs voted on after it keep their local counts.
func (w *Widget) Apply(thumbs []domain.Thumb) {
	for _, t := range thumbs {
		fetched := Counts{Likes: t.UpCount, Dislikes: t.DownCount}
		if delta, ok := w.pending[t.Slug]; ok {
			fetched.Likes += delta.Likes
			fetched.Dislikes += delta.Dislikes
			w.ratings[t.Slug] = fetched
			continue
		}
		if _, local := w.ratings[t.Slug]; local && w.session.HasVoted(t.Slug) {
			continue
		}
		w.ratings[t.Slug] = fetched
	}
	clear(w.pending)
	w.loaded = true
}

// Loaded reports whether a bulk result has been applied.
func (w *Widget) Loaded() bool {
	return w.loaded
}

// Render returns the current view of slug.
func (w *Widget) Render(slug string) View {
	v := View{Slug: slug, Voted: w.session.HasVoted(slug)}
	if c, ok := w.ratings[slug]; ok {
		v.Counts = &c
	} else if w.loaded {
		v.Counts = &Counts{}
	}
	return v
}

// ThumbsUp records a like for slug, once per session.
func (w *Widget) ThumbsUp(slug string) View {
	return w.vote(slug, domain.Up)
}

// ThumbsDown records a dislike for slug, once per session.
func (w *Widget) ThumbsDown(slug string) View {
	return w.vote(slug, domain.Down)
}

// vote updates the displayed count before the request is even sent. The
// request result is never awaited and a failure is not rolled back.
func (w *Widget) vote(slug string, dir domain.Direction) View {
	if !w.session.markVoted(slug) {
		return w.Render(slug)
	}

	c := w.ratings[slug]
	if dir == domain.Up {
		c.Likes++
	} else {
		c.Dislikes++
	}
	w.ratings[slug] = c
	if !w.loaded {
		p := w.pending[slug]
		if dir == domain.Up {
			p.Likes++
		} else {
			p.Dislikes++
		}
		w.pending[slug] = p
	}

	w.inflight.Add(1)
	go w.send(slug, dir)

	return w.Render(slug)
}

func (w *Widget) send(slug string, dir domain.Direction) {
	defer w.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), w.sendTimeout)
	defer cancel()

	if err := w.counter.Increment(ctx, slug, dir); err != nil {
		w.log.Debug("Increment request failed",
			infralogger.String("slug", slug),
			infralogger.String("direction", string(dir)),
			infralogger.Error(err),
		)
	}
}

// Wait blocks until every increment request started so far has finished.
func (w *Widget) Wait() {
	w.inflight.Wait()
}
