package query

import (
	"sync"
	"time"
)

const DefaultDebounce = 500 * time.Millisecond

// Debouncer buffers raw search input and emits only the final value of
// a burst after the settle window elapses. Every Update cancels and
// restarts the timer, so mid-burst values are never observed.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	out   chan string
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{
		delay: delay,
		out:   make(chan string, 1),
	}
}

// Update records a keystroke. The effective term fires on Settled after
// delay of inactivity.
func (d *Debouncer) Update(term string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.emit(term)
	})
}

func (d *Debouncer) emit(term string) {
	// keep only the most recent settled value
	for {
		select {
		case d.out <- term:
			return
		default:
			select {
			case <-d.out:
			default:
			}
		}
	}
}

// Settled delivers effective search terms.
func (d *Debouncer) Settled() <-chan string {
	return d.out
}

// Stop cancels any pending emission.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
