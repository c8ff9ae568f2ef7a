package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType classifies a snapshot change.
type EventType string

const (
	EventWritten EventType = "written"
	EventRemoved EventType = "removed"
)

// Event is emitted once per debounce window in which the snapshot changed.
type Event struct {
	Type EventType
	Time time.Time
}

// Watcher monitors the file backing a FileStore key.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher watches the directory holding key's file. Watching the
// directory rather than the file survives the rename used for atomic writes.
func NewWatcher(store *FileStore, key string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(store.dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch directory %s: %w", store.dir, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     store.Path(key),
		watcher:  fsw,
		debounce: 100 * time.Millisecond,
		logger:   logger,
	}, nil
}

// Watch starts watching and returns a channel of events. The channel is
// closed when ctx is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) <-chan Event {
	out := make(chan Event, 8)

	go func() {
		defer close(out)

		var pending []fsnotify.Event

		// stopped timer
		debounceTimer := time.NewTimer(0)
		if !debounceTimer.Stop() {
			<-debounceTimer.C
		}
		defer debounceTimer.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if strings.Contains(filepath.Base(ev.Name), ".tmp-") {
					continue
				}
				if filepath.Clean(ev.Name) != w.path {
					continue
				}
				pending = append(pending, ev)
				debounceTimer.Reset(w.debounce)

			case <-debounceTimer.C:
				if len(pending) == 0 {
					continue
				}
				e := Event{Type: classify(pending[len(pending)-1]), Time: time.Now()}
				pending = pending[:0]
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("snapshot watcher error", "error", err)
			}
		}
	}()

	return out
}

// Close stops watching and cleans up resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func classify(ev fsnotify.Event) EventType {
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		return EventRemoved
	}
	return EventWritten
}
