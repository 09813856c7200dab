package events

import (
	"context"
	"log"
	"sync"

	"github.com/zoff-tech/catalog-ingest/pkg/broker"
)

const busBuffer = 64

// Handler consumes a domain event. Handlers must not block for long; slow
// work (webhook delivery) is expected to be handed off to a worker pool.
type Handler func(ctx context.Context, ev Event)

// Bus fans domain events out to in-process handlers and, when configured,
// mirrors them to an external message broker for out-of-process consumers.
type Bus struct {
	mu     sync.RWMutex // guards closed and the queue lifecycle
	closed bool

	handlerMu sync.RWMutex
	handlers  []Handler

	mirror broker.MessageBroker
	queue  chan Event
	done   chan struct{}
}

// NewBus creates a bus. mirror may be nil, in which case events stay
// in-process.
func NewBus(mirror broker.MessageBroker) *Bus {
	b := &Bus{
		mirror: mirror,
		queue:  make(chan Event, busBuffer),
		done:   make(chan struct{}),
	}
	go b.dispatch()
	return b
}

// Subscribe registers a handler for all events. Must be called before the
// first Publish of interest; there is no unsubscribe.
func (b *Bus) Subscribe(h Handler) {
	b.handlerMu.Lock()
	defer b.handlerMu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish enqueues an event for fan-out. It never blocks the caller on
// handler execution; delivery is fire-and-forget.
//
// The read lock is held across the send so Close cannot close the queue
// under a parked publisher; a publisher either enqueues or sees
// ErrBusClosed.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	if b.mirror != nil {
		body, err := MarshalEnvelope(ev)
		if err != nil {
			return err
		}
		var headers map[string]string
		if key := ev.OrderingKey(); key != "" {
			headers = map[string]string{broker.OrderingKeyHeader: key}
		}
		if err := b.mirror.Publish(ctx, ev.Kind.Name(), body, headers); err != nil {
			// Mirroring is best-effort; local subscribers still run.
			log.Printf("Failed to mirror event %s: %v", ev.Kind.Name(), err)
		}
	}

	select {
	case b.queue <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatch must never touch b.mu: a parked publisher holds its read lock
// until dispatch frees queue space.
func (b *Bus) dispatch() {
	defer close(b.done)
	for ev := range b.queue {
		b.handlerMu.RLock()
		handlers := b.handlers
		b.handlerMu.RUnlock()
		for _, h := range handlers {
			h(context.Background(), ev)
		}
	}
}

// Close stops the dispatch loop after draining queued events.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	<-b.done
	if b.mirror != nil {
		return b.mirror.Close()
	}
	return nil
}
