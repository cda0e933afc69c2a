package app

import (
	"os"
	"sync"
	"time"
)

// FileWatcher polls a file's modification time and calls a callback when
// the file changes after the watcher's baseline. The demo uses it to
// reload the sample set when another tool rewrites it.
type FileWatcher struct {
	path          string
	checkInterval time.Duration

	mu       sync.Mutex
	baseline time.Time
	stopCh   chan struct{}
	onChange func()
}

// NewFileWatcher creates a watcher for path. A missing file has a zero
// baseline, so its creation counts as a change.
func NewFileWatcher(path string, checkInterval time.Duration) *FileWatcher {
	w := &FileWatcher{
		path:          path,
		checkInterval: checkInterval,
	}
	w.ResetBaseline()
	return w
}

// OnChange sets the callback. It is called from a background goroutine;
// UI updates must be synchronized by the caller.
func (w *FileWatcher) OnChange(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = callback
}

// Start begins polling in a background goroutine.
func (w *FileWatcher) Start() {
	w.mu.Lock()
	w.stopCh = make(chan struct{})
	stop := w.stopCh
	w.mu.Unlock()
	go w.watchLoop(stop)
}

// Stop stops the polling goroutine.
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

// Path returns the watched file.
func (w *FileWatcher) Path() string { return w.path }

// ResetBaseline takes the file's current modification time as unchanged.
// Call it after writing the file yourself.
func (w *FileWatcher) ResetBaseline() {
	mod, _ := w.modTime()
	w.mu.Lock()
	w.baseline = mod
	w.mu.Unlock()
}

func (w *FileWatcher) watchLoop(stop chan struct{}) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !w.checkForUpdate() {
				continue
			}
			w.mu.Lock()
			cb := w.onChange
			w.mu.Unlock()
			if cb != nil {
				cb()
			}
		}
	}
}

// checkForUpdate reports a change once per new modification time.
func (w *FileWatcher) checkForUpdate() bool {
	mod, err := w.modTime()
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !mod.After(w.baseline) {
		return false
	}
	w.baseline = mod
	return true
}

func (w *FileWatcher) modTime() (time.Time, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
