package watcher

import (
	"sort"
	"sync"
	"time"
)

// Debouncer merges bursts of changed paths into one sorted, deduplicated
// batch. A batch is flushed once no path has been added for delay, or once
// maxDelay has passed since the first path of the batch, whichever is first.
type Debouncer struct {
	delay    time.Duration
	maxDelay time.Duration
	flush    func(paths []string)

	mu      sync.Mutex
	pending map[string]struct{}
	started time.Time
	timer   *time.Timer
	closed  bool
}

// NewDebouncer creates a debouncer that hands each batch to flush. flush runs
// on a timer goroutine. A maxDelay below delay disables the cap.
func NewDebouncer(delay, maxDelay time.Duration, flush func(paths []string)) *Debouncer {
	return &Debouncer{
		delay:    delay,
		maxDelay: maxDelay,
		flush:    flush,
		pending:  make(map[string]struct{}),
	}
}

// Add records a changed path and restarts the quiet window.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.pending[path] = struct{}{}

	if d.timer == nil {
		d.started = time.Now()
		d.timer = time.AfterFunc(d.delay, d.fire)
		return
	}

	wait := d.delay
	if d.maxDelay >= d.delay {
		if remaining := d.maxDelay - time.Since(d.started); remaining < wait {
			wait = max(remaining, 0)
		}
	}
	d.timer.Reset(wait)
}

// Flush emits the pending batch immediately.
func (d *Debouncer) Flush() {
	d.fire()
}

// Pending returns the number of paths waiting to be flushed.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close drops any pending batch and ignores later additions.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	clear(d.pending)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.closed || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}

	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	d.pending = make(map[string]struct{})
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	sort.Strings(paths)
	d.flush(paths)
}
