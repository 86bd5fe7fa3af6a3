package store

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches the burst of events an editor produces on save.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a Store when its file is edited outside the daemon.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func()
	cancel   context.CancelFunc
	done     chan struct{}
}

// Watch starts watching the store's file. The directory is watched rather
// than the file so editors that replace the file by rename are seen.
// onReload, if set, runs after each successful reload.
func (s *Store) Watch(ctx context.Context, debounce time.Duration, onReload func()) (*Watcher, error) {
	if s.path == "" {
		return nil, fmt.Errorf("watch: store has no file")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if err := fw.Add(filepath.Dir(s.path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		store:    s,
		watcher:  fw,
		debounce: debounce,
		onReload: onReload,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go w.run(ctx)
	log.Printf("store: watching %s", s.path)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.store.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("store: watch error: %v", err)

		case <-fire:
			fire = nil
			changed, err := w.store.Reload()
			if err != nil {
				log.Printf("store: reload failed, keeping previous config: %v", err)
				continue
			}
			if changed {
				log.Printf("store: reloaded %s", w.store.path)
				if w.onReload != nil {
					w.onReload()
				}
			}
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	w.cancel()
	<-w.done
	return w.watcher.Close()
}
