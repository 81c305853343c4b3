package notifier

import (
	"context"
	"sync"
)

// Dispatcher executes posted functions one at a time, in post order, on the
// goroutine that called Run. It stands in for a UI thread: anything that
// touches presentation state is posted here and never blocks on I/O.
type Dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{wake: make(chan struct{}, 1)}
}

// Post enqueues fn. It never blocks; posts after Run has returned are dropped.
func (d *Dispatcher) Post(fn func()) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run drains the queue until ctx is done. Functions still queued when ctx
// is cancelled are executed before Run returns.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		d.drain()
		select {
		case <-ctx.Done():
			d.mu.Lock()
			d.stopped = true
			d.mu.Unlock()
			d.drain()
			return
		case <-d.wake:
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
	}
}
