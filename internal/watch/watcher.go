package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/romdo/go-debounce"

	"github.com/a3tai/formharvest/internal/logger"
)

var errWatcherClosed = errors.New("file watcher closed")

// Watcher reports changes in the source folder. Bursts of events, such as a
// copy that writes a file in many chunks, are coalesced into one call.
type Watcher struct {
	scanner *Scanner
	wait    time.Duration
	maxWait time.Duration
	log     logger.Logger
}

// NewWatcher creates a watcher over the scanner's folder. Notifications fire
// wait after the last relevant event, and at least every maxWait while events
// keep arriving.
func NewWatcher(scanner *Scanner, wait, maxWait time.Duration, log logger.Logger) *Watcher {
	if maxWait < wait {
		maxWait = wait
	}
	return &Watcher{scanner: scanner, wait: wait, maxWait: maxWait, log: log}
}

// Run blocks until ctx is done, calling notify after relevant changes.
// notify runs on its own goroutine.
func (w *Watcher) Run(ctx context.Context, notify func()) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.scanner.Dir()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.scanner.Dir(), err)
	}

	debounced, cancel := debounce.NewWithMaxWait(w.wait, w.maxWait, notify)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return errWatcherClosed
			}
			if w.relevant(event) {
				w.log.Debug("document changed", "file", event.Name, "op", event.Op.String())
				debounced()
			}
		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return errWatcherClosed
			}
			w.log.Warn("file watcher error", "dir", w.scanner.Dir(), "error", watchErr)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	return w.scanner.Matches(event.Name)
}
