// Package watch re-runs the entrypoint contract check when a server root changes.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"opsdeck/internal/contract"
	"opsdeck/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// ReportFunc receives the outcome of every check run by the watcher.
type ReportFunc func(*contract.Report, error)

// Watcher watches the entrypoint files and manifest of one server root.
// Rapid changes are debounced into a single check.
type Watcher struct {
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	checker  *contract.Checker
	root     string
	targets  map[string]bool // cleaned paths of files the contract names
	dirs     map[string]bool // parent directories of targets
	debounce time.Duration
	onReport ReportFunc

	pending   bool
	lastEvent time.Time

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool

	stats Stats
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Checks        int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// New creates a watcher for root. onReport is called from the watcher goroutine.
func New(root string, checker *contract.Checker, debounce time.Duration, onReport ReportFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	c := checker.Contract()
	w := &Watcher{
		watcher:  fw,
		checker:  checker,
		root:     root,
		targets:  make(map[string]bool),
		dirs:     map[string]bool{filepath.Clean(root): true},
		debounce: debounce,
		onReport: onReport,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, rel := range []string{c.APIEntrypoint, c.WorkerEntrypoint, c.Manifest} {
		p := filepath.Clean(filepath.Join(root, rel))
		w.targets[p] = true
		for dir := filepath.Dir(p); len(dir) > len(filepath.Clean(root)); dir = filepath.Dir(dir) {
			w.dirs[dir] = true
		}
	}
	return w, nil
}

// Start runs an initial check and begins watching. Non-blocking.
// If the root cannot be watched the watcher is closed and cannot be restarted.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := w.watcher.Add(w.root); err != nil {
		_ = w.watcher.Close()
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	for dir := range w.dirs {
		w.addDir(dir)
	}
	w.running = true
	logging.Watch("watching %s (%d targets)", w.root, len(w.targets))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for cleanup.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("error closing watcher: %v", err)
	}
	logging.Watch("stopped")
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) addDir(dir string) {
	if dir == filepath.Clean(w.root) {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return // created later; picked up from the parent's create event
	}
	if err := w.watcher.Add(dir); err != nil {
		logging.Get(logging.CategoryWatch).Warn("failed to watch %s: %v", dir, err)
		return
	}
	logging.WatchDebug("watching directory %s", dir)
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	w.check(ctx)

	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

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
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.mu.Lock()
			due := w.pending && time.Since(w.lastEvent) >= w.debounce
			if due {
				w.pending = false
			}
			w.mu.Unlock()
			if due {
				w.check(ctx)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	path := filepath.Clean(event.Name)

	if w.dirs[path] && event.Op&fsnotify.Create != 0 {
		w.addDir(path)
	}
	if !w.targets[path] && !w.dirs[path] {
		return
	}

	logging.WatchDebug("%s %s", event.Op, path)

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventPath = path
	w.stats.LastEventTime = time.Now()
	w.pending = true
	w.lastEvent = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) check(ctx context.Context) {
	report, err := w.checker.Check(ctx, w.root)
	if err != nil && report == nil && ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	w.stats.Checks++
	w.mu.Unlock()

	if w.onReport != nil {
		w.onReport(report, err)
	}
}
