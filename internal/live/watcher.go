package live

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"todos/internal/store"
)

const (
	defaultDebounce = 50 * time.Millisecond
	reloadTimeout   = 5 * time.Second
)

// Watcher publishes the collection whenever the data file changes on disk,
// including edits made by other processes.
type Watcher struct {
	path     string
	store    store.Store
	hub      *Hub
	logger   *log.Logger
	debounce time.Duration

	fsw  *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher creates a watcher for the file at path. Changes are reloaded
// through s and published to hub.
func NewWatcher(path string, s store.Store, hub *Hub, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		store:    s,
		hub:      hub,
		logger:   logger,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}
}

// Start watches the file's directory. The directory is created if missing,
// because the file itself may not exist yet.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create watch dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.loop()

	w.logger.Info("watching data file", "path", w.path)
	return nil
}

// Stop ends the watch loop and waits for it.
func (w *Watcher) Stop() {
	select {
	case <-w.done:
		return
	default:
	}
	close(w.done)
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	defer w.fsw.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			// Editors and os.WriteFile emit bursts; reload once they settle.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "err", err)

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	todos, err := w.store.Load(ctx)
	if err != nil {
		w.logger.Error("reload after file change", "err", err)
		return
	}
	w.logger.Debug("data file changed", "todos", len(todos))
	w.hub.Publish(todos)
}
