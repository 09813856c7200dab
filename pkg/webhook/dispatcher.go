package webhook

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoff-tech/catalog-ingest/pkg/config"
	"github.com/zoff-tech/catalog-ingest/pkg/events"
)

// Dispatcher fans domain events out to webhook subscribers. Each matching
// subscription gets its own delivery task on the worker pool, so one dead
// subscriber never blocks or fails the others.
type Dispatcher struct {
	source       SubscriptionSource
	pool         *ants.Pool
	client       *http.Client
	tracer       trace.Tracer
	maxRetries   int
	retryBackoff time.Duration
	inflight     sync.WaitGroup
}

// NewDispatcher creates a dispatcher with a delivery pool sized from
// configuration.
func NewDispatcher(source SubscriptionSource, cfg config.WebhookSettings) (*Dispatcher, error) {
	poolSize := cfg.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		source:       source,
		pool:         pool,
		client:       &http.Client{Timeout: cfg.Timeout},
		tracer:       otel.Tracer("catalog-ingest"),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
	}, nil
}

// HandleEvent is the events.Handler wired to the bus. It returns as soon
// as the delivery tasks are scheduled; outcomes never propagate back to
// the operation that raised the event.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev events.Event) {
	matches := d.source.Matching(ev.Kind)
	if len(matches) == 0 {
		return
	}

	body, err := events.MarshalEnvelope(ev)
	if err != nil {
		log.Printf("Failed to encode envelope for event %s: %v", ev.Kind.Name(), err)
		return
	}

	for _, sub := range matches {
		sub := sub
		d.inflight.Add(1)
		err := d.pool.Submit(func() {
			defer d.inflight.Done()
			state := d.deliver(ctx, sub, ev.Kind.Name(), body)
			if state == StateExhausted {
				log.Printf("Delivery to %s exhausted retries for event %s", sub.URL, ev.Kind.Name())
			}
		})
		if err != nil {
			d.inflight.Done()
			log.Printf("Failed to schedule delivery to %s: %v", sub.URL, err)
		}
	}
}

// Wait blocks until all scheduled deliveries have reached a terminal
// state. Used by shutdown and tests.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

func (d *Dispatcher) Close() {
	d.inflight.Wait()
	d.pool.Release()
}
