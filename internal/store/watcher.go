package store

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/klabast/wb-services/residency-counter/internal/log"
)

// reloadDelay coalesces the write/rename burst of a single save
const reloadDelay = 200 * time.Millisecond

// Watcher reloads the store when the trip file is changed by another process
type Watcher struct {
	store *TripStore
	path  string
}

// NewWatcher returns a watcher for the file behind backend
func NewWatcher(s *TripStore, backend *FileBackend) *Watcher {
	return &Watcher{store: s, path: backend.Path()}
}

// Start watches the data directory until ctx is done.
// The directory is watched rather than the file because saves replace the file by rename.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != filepath.Clean(w.path) {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDelay, w.store.Reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnw("watcher error", "error", err)
			}
		}
	}()

	log.Infow("watching trip file", "file", w.path)
	return nil
}
