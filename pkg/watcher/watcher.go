// Package watcher rebuild-triggers on changes to a declaration file.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/soderlund/graphdesc/pkg/logging"
)

// ChangeEvent reports that the declaration file changed.
type ChangeEvent struct {
	Path      string
	Timestamp time.Time
}

// DeclWatcher watches one declaration file for writes. Editors typically
// fire bursts of events per save, so changes are debounced before being
// surfaced.
type DeclWatcher struct {
	watcher     *fsnotify.Watcher
	path        string
	events      chan ChangeEvent
	quietPeriod time.Duration
}

// New creates a watcher for the given declaration file.
func New(path string) (*DeclWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return &DeclWatcher{
		watcher:     fw,
		path:        abs,
		events:      make(chan ChangeEvent, 10),
		quietPeriod: 200 * time.Millisecond,
	}, nil
}

// Start begins watching. The parent directory is watched rather than the
// file itself so rename-style saves keep working.
func (w *DeclWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	logging.Info("watching declaration", "path", w.path)

	go w.run(ctx)
	return nil
}

// Events returns the debounced change channel.
func (w *DeclWatcher) Events() <-chan ChangeEvent {
	return w.events
}

// Close stops watching.
func (w *DeclWatcher) Close() error {
	return w.watcher.Close()
}

func (w *DeclWatcher) run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logging.Debug("declaration changed", "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.quietPeriod)
				timerC = timer.C
			} else {
				timer.Reset(w.quietPeriod)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case w.events <- ChangeEvent{Path: w.path, Timestamp: time.Now()}:
			default:
				logging.Warn("change event dropped, consumer busy")
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("watch error", "error", err)
		}
	}
}
