package content

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher reloads a Source when markdown files under its directory change.
// Bursts of events within the debounce window cause one reload.
type Watcher struct {
	source   *Source
	log      infralogger.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func(*Catalog)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithOnReload is called with the new catalog after each successful reload.
func WithOnReload(fn func(*Catalog)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// NewWatcher creates a watcher for source.
func NewWatcher(source *Source, log infralogger.Logger, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		source:   source,
		log:      log,
		watcher:  fw,
		debounce: defaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start adds every directory under the source and begins watching.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := w.addTree(w.source.Dir()); err != nil {
		return err
	}

	w.running = true
	go w.run(ctx)
	return nil
}

// Stop ends the watch loop and releases the OS watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.log.Error("Failed to close content watcher", infralogger.Error(err))
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("Content watcher error", infralogger.Error(err))

		case <-timer.C:
			w.reload()
		}
	}
}

// relevant filters to markdown changes and registers new directories.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create != 0 {
		if err := w.addTree(event.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.log.Debug("Failed to watch new path",
				infralogger.String("path", event.Name),
				infralogger.Error(err),
			)
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".md") || event.Op&(fsnotify.Remove|fsnotify.Rename) != 0
}

func (w *Watcher) reload() {
	if err := w.source.Reload(); err != nil {
		w.log.Error("Failed to reload content, keeping previous catalog", infralogger.Error(err))
		return
	}

	c := w.source.Catalog()
	w.log.Info("Content reloaded",
		infralogger.Int("posts", len(c.Posts())),
		infralogger.Int("tags", len(c.Tags())),
	)
	if w.onReload != nil {
		w.onReload(c)
	}
}
