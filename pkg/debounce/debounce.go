// Package debounce coalesces bursts of signals into a single call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn once after delay has passed since the first Emit of a burst.
// Emits arriving while a run is pending are folded into that run.
type Debouncer struct {
	fn      func()
	signal  chan struct{}
	stop    chan struct{}
	done    chan struct{}
	delay   time.Duration
	once    sync.Once
	started bool
}

// New creates a debouncer. A delay of zero runs fn on every Emit.
func New(fn func(), delay time.Duration) *Debouncer {
	return &Debouncer{
		fn:     fn,
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		delay:  delay,
	}
}

// Start launches the debounce loop. It must be called once.
func (d *Debouncer) Start() {
	d.started = true
	go d.loop()
}

// Stop ends the loop and waits for a running fn to return.
// A pending run is dropped. Stop may be called more than once.
func (d *Debouncer) Stop() {
	if d == nil {
		return
	}

	d.once.Do(func() {
		close(d.stop)
	})
	if d.started {
		<-d.done
	}
}

// Emit schedules a run without blocking.
func (d *Debouncer) Emit() {
	select {
	case d.signal <- struct{}{}:
	default:
	}
}

func (d *Debouncer) loop() {
	defer close(d.done)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-d.stop:
			timer.Stop()
			return

		case <-d.signal:
			if !pending {
				timer.Reset(d.delay)
				pending = true
			}

		case <-timer.C:
			pending = false
			d.fn()
		}
	}
}
