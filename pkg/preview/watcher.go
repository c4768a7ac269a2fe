package preview

import (
	"context"
	"os"
	"sync"
	"time"
)

// Watcher polls a file and reports modifications.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(path string)

	mu      sync.Mutex
	modTime time.Time
	size    int64
	exists  bool
}

// NewWatcher creates a watcher for path. A zero interval defaults to 200ms.
func NewWatcher(path string, interval time.Duration, onChange func(path string)) *Watcher {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	w := &Watcher{path: path, interval: interval, onChange: onChange}
	w.snapshot()
	return w
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if w.snapshot() {
				w.onChange(w.path)
			}
		}
	}
}

// snapshot records the file state and reports whether it differs from the
// previous one. A missing file is a change only when it existed before.
func (w *Watcher) snapshot() bool {
	info, err := os.Stat(w.path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		changed := w.exists
		w.exists = false
		return changed
	}
	changed := !w.exists || !info.ModTime().Equal(w.modTime) || info.Size() != w.size
	w.exists = true
	w.modTime = info.ModTime()
	w.size = info.Size()
	return changed
}
