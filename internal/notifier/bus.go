// Package notifier fans sync events out to in-process observers such as the
// dashboard. Delivery happens on a Dispatcher so observers see events in
// publish order on a single goroutine.
package notifier

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/dmitrijs2005/usersync/internal/models"
)

// Publisher is the producer side of the bus.
type Publisher interface {
	Publish(ev models.SyncEvent)
}

// Bus delivers every published event to all current subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]func(models.SyncEvent)
	nextID uint64

	dispatcher *Dispatcher
	log        logging.Logger
}

func NewBus(d *Dispatcher, log logging.Logger) *Bus {
	return &Bus{
		subs:       make(map[uint64]func(models.SyncEvent)),
		dispatcher: d,
		log:        log.With("module", "notifier"),
	}
}

// Subscribe registers fn and returns a function that removes it. fn runs on
// the dispatcher goroutine.
func (b *Bus) Subscribe(fn func(models.SyncEvent)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish is safe from any goroutine and returns without waiting for
// delivery. Events without subscribers are discarded.
func (b *Bus) Publish(ev models.SyncEvent) {
	b.log.Debug(context.Background(), "sync event", "action", ev.Action(), "username", ev.Username)

	b.dispatcher.Post(func() {
		b.mu.RLock()
		targets := make([]func(models.SyncEvent), 0, len(b.subs))
		for _, fn := range b.subs {
			targets = append(targets, fn)
		}
		b.mu.RUnlock()

		for _, fn := range targets {
			fn(ev)
		}
	})
}
