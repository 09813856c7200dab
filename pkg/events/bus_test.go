package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKindNames(t *testing.T) {
	assert.Equal(t, "product.created", KindProductCreated.Name())
	assert.Equal(t, "product.updated", KindProductUpdated.Name())
	assert.Equal(t, "product.deleted", KindProductDeleted.Name())
	assert.Equal(t, "product.import.completed", KindImportCompleted.Name())
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("product.import.completed")
	assert.NoError(t, err)
	assert.Equal(t, KindImportCompleted, kind)

	_, err = ParseKind("order.created")
	assert.EqualError(t, err, "unknown event kind: order.created")
}

func TestMarshalEnvelope(t *testing.T) {
	body, err := MarshalEnvelope(Event{
		Kind:    KindImportCompleted,
		Payload: ImportCompletedPayload{JobID: "job-1", TotalRows: 12000},
	})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"event":"product.import.completed","payload":{"job_id":"job-1","total_rows":12000}}`, string(body))
}

func TestBusFanOut(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	var first, second []Event
	bus.Subscribe(func(ctx context.Context, ev Event) {
		mu.Lock()
		first = append(first, ev)
		mu.Unlock()
	})
	bus.Subscribe(func(ctx context.Context, ev Event) {
		mu.Lock()
		second = append(second, ev)
		mu.Unlock()
	})

	ctx := context.Background()
	assert.NoError(t, bus.Publish(ctx, Event{Kind: KindProductCreated, Payload: ProductPayload{ID: "1"}}))
	assert.NoError(t, bus.Publish(ctx, Event{Kind: KindProductDeleted, Payload: ProductPayload{ID: "1"}}))

	// Close drains the queue before returning.
	assert.NoError(t, bus.Close())

	assert.Len(t, first, 2)
	assert.Len(t, second, 2)
	assert.Equal(t, KindProductCreated, first[0].Kind)
	assert.Equal(t, KindProductDeleted, first[1].Kind)
}

func TestBusPublishAfterClose(t *testing.T) {
	bus := NewBus(nil)
	assert.NoError(t, bus.Close())

	err := bus.Publish(context.Background(), Event{Kind: KindProductCreated})
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestBusCloseWithParkedPublisher(t *testing.T) {
	bus := NewBus(nil)

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	bus.Subscribe(func(ctx context.Context, ev Event) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
	})

	ctx := context.Background()
	ev := Event{Kind: KindProductCreated, Payload: ProductPayload{ID: "1"}}

	// Stall the dispatch goroutine, then fill the buffer so the next
	// publisher parks on the send.
	assert.NoError(t, bus.Publish(ctx, ev))
	<-entered
	for i := 0; i < busBuffer; i++ {
		assert.NoError(t, bus.Publish(ctx, ev))
	}

	published := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				published <- fmt.Errorf("publish panicked: %v", r)
			}
		}()
		published <- bus.Publish(ctx, ev)
	}()
	time.Sleep(50 * time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- bus.Close() }()
	close(release)

	// The parked publisher must enqueue or see ErrBusClosed, never panic.
	if err := <-published; err != nil && !errors.Is(err, ErrBusClosed) {
		t.Fatalf("publish during close: %v", err)
	}
	assert.NoError(t, <-closed)
}

type recordingMirror struct {
	mu      sync.Mutex
	topics  []string
	bodies  [][]byte
	headers []map[string]string
}

func (m *recordingMirror) Publish(ctx context.Context, topic string, payload []byte, headers map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics = append(m.topics, topic)
	m.bodies = append(m.bodies, payload)
	m.headers = append(m.headers, headers)
	return nil
}

func (m *recordingMirror) Close() error { return nil }

func TestBusMirrorsEvents(t *testing.T) {
	mirror := &recordingMirror{}
	bus := NewBus(mirror)

	err := bus.Publish(context.Background(), Event{
		Kind:    KindImportCompleted,
		Payload: ImportCompletedPayload{JobID: "job-1", TotalRows: 10},
	})
	assert.NoError(t, err)
	assert.NoError(t, bus.Close())

	assert.Equal(t, []string{"product.import.completed"}, mirror.topics)
	assert.JSONEq(t, `{"event":"product.import.completed","payload":{"job_id":"job-1","total_rows":10}}`, string(mirror.bodies[0]))
	assert.Equal(t, map[string]string{"ordering_key": "job-1"}, mirror.headers[0])
}

func TestOrderingKey(t *testing.T) {
	assert.Equal(t, "job-1", Event{
		Kind:    KindImportCompleted,
		Payload: ImportCompletedPayload{JobID: "job-1"},
	}.OrderingKey())
	assert.Equal(t, "p-1", Event{
		Kind:    KindProductUpdated,
		Payload: ProductPayload{ID: "p-1"},
	}.OrderingKey())
	assert.Empty(t, Event{Kind: KindProductCreated}.OrderingKey())
}
