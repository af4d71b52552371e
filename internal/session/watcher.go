package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// A Watcher watches the session file for changes made by other processes
// (another terminal logging in or out) and tells the Store to notify its
// subscribers.
type Watcher struct {
	path  string
	store *Store
	log   zerolog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a Watcher for the file at path.
func NewWatcher(path string, store *Store, log zerolog.Logger) *Watcher {
	return &Watcher{
		path:  filepath.Clean(path),
		store: store,
		log:   log,
	}
}

// Start begins watching. It returns once the watch is registered; events are
// handled in the background until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Writes replace the file with a rename, so watch the directory rather
	// than the file itself
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.watcher = fw
	w.done = make(chan struct{})
	go w.run(ctx, fw, w.done)

	w.log.Debug().Str("file", w.path).Msg("Watching session file")
	return nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	fw, done := w.watcher, w.done
	w.watcher, w.done = nil, nil
	w.mu.Unlock()

	if fw == nil {
		return nil
	}

	err := fw.Close()
	<-done
	return err
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			_ = fw.Close()
			return
		case evt, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != w.path {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) &&
				!evt.Has(fsnotify.Remove) && !evt.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debug().Str("file", evt.Name).Str("op", evt.Op.String()).Msg("Session file changed")
			w.store.Notify()
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("Session file watcher error")
		}
	}
}
