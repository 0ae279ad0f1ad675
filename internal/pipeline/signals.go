package pipeline

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// cancelFileName is the marker file whose appearance cancels a run.
const cancelFileName = "cancel"

// SignalWatcher watches a signals directory for an out-of-band cancel
// marker, so an external controller (or the serve API) can abort a run
// without owning its context.
type SignalWatcher struct {
	signalsDir string

	mu     sync.RWMutex
	cancel bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalWatcher creates a watcher over <root>/signals. A failure to
// set up filesystem notifications degrades to stat-based polling in
// ShouldCancel rather than failing the run.
func NewSignalWatcher(root string) (*SignalWatcher, error) {
	signalsDir := filepath.Join(root, "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	sw := &SignalWatcher{
		signalsDir: signalsDir,
		done:       make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return sw, nil
	}
	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		return sw, nil
	}
	sw.watcher = watcher

	go sw.watch()
	return sw, nil
}

func (sw *SignalWatcher) watch() {
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == cancelFileName &&
				(event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0) {
				sw.mu.Lock()
				sw.cancel = true
				sw.mu.Unlock()
			}
		case <-sw.watcher.Errors:
			// Keep watching.
		}
	}
}

// ShouldCancel reports whether a cancel signal has been received. The
// marker file is also checked directly in case the watcher missed it.
func (sw *SignalWatcher) ShouldCancel() bool {
	if _, err := os.Stat(filepath.Join(sw.signalsDir, cancelFileName)); err == nil {
		sw.mu.Lock()
		sw.cancel = true
		sw.mu.Unlock()
	}

	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return sw.cancel
}

// RequestCancel drops the cancel marker for a running pipeline to find.
func (sw *SignalWatcher) RequestCancel() error {
	return os.WriteFile(filepath.Join(sw.signalsDir, cancelFileName), []byte("cancel\n"), 0644)
}

// Close stops the watcher and removes any pending signal files.
func (sw *SignalWatcher) Close() {
	close(sw.done)
	if sw.watcher != nil {
		sw.watcher.Close()
	}
	_ = os.Remove(filepath.Join(sw.signalsDir, cancelFileName))
}
