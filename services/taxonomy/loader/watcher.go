// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package loader

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/gangway/pkg/logging"
)

// DefaultDebounceWindow is how long the watcher waits for writes to settle
// before reloading. Publishing a dataset is usually several writes or a
// temp-file rename; one rebuild at the end is enough.
const DefaultDebounceWindow = 500 * time.Millisecond

// Watcher reloads a Provider when its dataset file changes on disk.
//
// # Description
//
// Watches the dataset's parent directory rather than the file itself, so
// editors and deploy tools that replace the file via rename keep triggering
// reloads. Events for the dataset path reset a debounce timer; when the
// window expires quietly, the provider reloads once. A failed reload is
// logged and the previous index stays live.
//
// # Thread Safety
//
// Safe for concurrent use. Reloads run on the watcher's goroutine.
type Watcher struct {
	provider *Provider
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *logging.Logger

	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	watching bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithWatcherLogger sets the watcher's logger.
func WithWatcherLogger(logger *logging.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher creates a watcher for a provider's dataset file.
//
// Call Start to begin watching and Stop (or cancel the context) to end it.
func NewWatcher(p *Provider, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		provider: p,
		watcher:  fsw,
		debounce: DefaultDebounceWindow,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logging.Default()
	}
	return w, nil
}

// Start begins watching the dataset's directory.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil // Already watching
	}
	w.watching = true
	w.mu.Unlock()

	dir := filepath.Dir(w.provider.Source())
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching returns true while the watcher is active.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// run is the event and debounce loop.
func (w *Watcher) run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isDatasetEvent(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("dataset watcher error", "error", err)

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.provider.Reload(ctx); err != nil {
				w.logger.Error("dataset reload failed, previous index stays live",
					"source", w.provider.Source(),
					"error", err,
				)
			}
		}
	}
}

// isDatasetEvent reports whether an fsnotify event touches the dataset file.
func (w *Watcher) isDatasetEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.provider.Source()) {
		return false
	}
	return event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Rename)
}
