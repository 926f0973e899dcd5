// Package watch monitors a drop folder and roasts screenshots placed in
// it. The file name stem becomes the topic.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ternarybob/arbor"
)

// Handler is invoked once per dropped screenshot after the debounce
// window. topic is the sanitized file name stem.
type Handler func(topic, path string)

// Watcher monitors a drop directory for new screenshots.
type Watcher struct {
	dir        string
	handler    Handler
	watcher    *fsnotify.Watcher
	debounceMs int
	log        arbor.ILogger

	running bool
	stopCh  chan struct{}
	mu      sync.RWMutex

	// Debouncing state
	pending   map[string]time.Time
	pendingMu sync.Mutex
}

// NewWatcher creates a drop-folder watcher. debounceMs <= 0 defaults to
// 500ms so partially written files are not picked up.
func NewWatcher(dir string, debounceMs int, handler Handler, log arbor.ILogger) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is nil")
	}
	if debounceMs <= 0 {
		debounceMs = 500
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		dir:        dir,
		handler:    handler,
		watcher:    fsWatcher,
		debounceMs: debounceMs,
		log:        log,
		stopCh:     make(chan struct{}),
		pending:    make(map[string]time.Time),
	}, nil
}

// Start begins watching the drop directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create drop dir: %w", err)
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	go w.processEvents()
	go w.processDebounced()

	if w.log != nil {
		w.log.Info().Str("dir", w.dir).Msg("Watching drop folder")
	}

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	return w.watcher.Close()
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// isScreenshot reports whether a file looks like a capture we handle.
func isScreenshot(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return true
	}
	return false
}

// processEvents handles file system events.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !isScreenshot(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			w.pendingMu.Lock()
			w.pending[event.Name] = time.Now()
			w.pendingMu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Warn().Err(err).Msg("Watcher error")
			}
		}
	}
}

// processDebounced fires handlers for files that stopped changing.
func (w *Watcher) processDebounced() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case <-ticker.C:
			w.processPendingFiles()
		}
	}
}

// processPendingFiles dispatches files stable for the debounce window.
func (w *Watcher) processPendingFiles() {
	debounce := time.Duration(w.debounceMs) * time.Millisecond
	now := time.Now()

	var ready []string
	w.pendingMu.Lock()
	for path, ts := range w.pending {
		if now.Sub(ts) < debounce {
			continue
		}
		delete(w.pending, path)
		ready = append(ready, path)
	}
	w.pendingMu.Unlock()

	for _, path := range ready {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		topic := Topic(path)
		if w.log != nil {
			w.log.Info().Str("topic", topic).Str("path", path).Msg("Screenshot dropped")
		}
		w.handler(topic, path)
	}
}

// Topic derives the roast topic from a screenshot file name.
func Topic(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
