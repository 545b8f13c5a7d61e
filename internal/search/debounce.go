package search

import (
	"sync"
	"time"
)

const DefaultDebounce = 500 * time.Millisecond

// Debouncer forwards search text to fn once input has been quiet for the window.
// Repeats of the last settled text and empty text are not forwarded.
type Debouncer struct {
	window time.Duration
	fn     func(string)

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	seq     uint64
	last    *string
	stopped bool
}

func NewDebouncer(window time.Duration, fn func(string)) *Debouncer {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Debouncer{window: window, fn: fn}
}

// Push records the latest text and restarts the quiet window.
func (d *Debouncer) Push(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = text
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.window, func() { d.fire(seq) })
}

// Stop discards pending input. Push is a no-op afterwards.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	text := d.pending
	if d.last != nil && *d.last == text {
		d.mu.Unlock()
		return
	}
	d.last = &text
	d.mu.Unlock()

	if text == "" {
		return
	}
	d.fn(text)
}
