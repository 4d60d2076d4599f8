// Package watch re-resolves the declaration whenever its file changes, for
// long-lived dev-server processes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 200 * time.Millisecond

// ReloadFunc re-reads and re-resolves the declaration. A returned error keeps
// the previously resolved configuration in place.
type ReloadFunc func() error

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the watcher waits for a burst of events to settle.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher observes a single declaration file.
type Watcher struct {
	path     string
	reload   ReloadFunc
	logger   *zap.Logger
	debounce time.Duration
}

// New creates a Watcher for path. Nothing is watched until Run is called.
func New(path string, reload ReloadFunc, logger *zap.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		reload:   reload,
		logger:   logger.With(zap.String("component", "watch"), zap.String("path", path)),
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the declaration's directory until ctx is cancelled. The directory
// rather than the file is watched so that editors that save by renaming a
// temporary file over the original are still noticed.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		_ = fsw.Close()
	}()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching declaration for changes")

	var (
		mu      sync.Mutex
		timer   *time.Timer
		pending sync.WaitGroup
	)
	defer func() {
		mu.Lock()
		if timer != nil && timer.Stop() {
			pending.Done()
		}
		mu.Unlock()
		pending.Wait()
	}()

	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil && timer.Stop() {
			pending.Done()
		}
		pending.Add(1)
		timer = time.AfterFunc(w.debounce, func() {
			defer pending.Done()
			w.apply()
		})
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("declaration watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug("declaration changed", zap.String("op", event.Op.String()))
				schedule()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("declaration watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) apply() {
	if err := w.reload(); err != nil {
		w.logger.Error("reload failed, keeping previous configuration", zap.Error(err))
		return
	}
	w.logger.Info("declaration reloaded")
}
