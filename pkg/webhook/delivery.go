package webhook

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// DeliveryState tracks one delivery task. DELIVERED and EXHAUSTED are
// terminal; RETRY_SCHEDULED transitions back to PENDING after the backoff.
type DeliveryState string

const (
	StatePending        DeliveryState = "PENDING"
	StateDelivered      DeliveryState = "DELIVERED"
	StateRetryScheduled DeliveryState = "RETRY_SCHEDULED"
	StateExhausted      DeliveryState = "EXHAUSTED"
)

// Outcome classifies a single attempt.
type Outcome int

const (
	// OutcomeDelivered: the HTTP exchange completed with a 2xx/3xx.
	OutcomeDelivered Outcome = iota
	// OutcomeSubscriberError: the subscriber answered 4xx/5xx. Terminal;
	// the subscriber heard us, what it did with that is its problem.
	OutcomeSubscriberError
	// OutcomeTransportError: connection failure or timeout. Retryable.
	OutcomeTransportError
)

type attemptResult struct {
	Outcome    Outcome
	StatusCode int
	Body       string
	Elapsed    time.Duration
	Err        error
}

const maxDiagnosticBody = 4 << 10

// deliver runs the attempt loop for one subscription. A completed HTTP
// exchange is terminal whatever the status code; only transport failures
// are retried, up to maxRetries with a fixed backoff.
func (d *Dispatcher) deliver(ctx context.Context, sub Subscription, eventName string, body []byte) DeliveryState {
	for attempt := 1; ; attempt++ {
		res := d.post(ctx, sub.URL, eventName, body, attempt)

		if res.Outcome != OutcomeTransportError {
			log.Printf("Delivered event %s to %s: status=%d elapsed=%dms attempt=%d",
				eventName, sub.URL, res.StatusCode, res.Elapsed.Milliseconds(), attempt)
			return StateDelivered
		}

		log.Printf("Transport failure delivering event %s to %s (attempt %d): %v",
			eventName, sub.URL, attempt, res.Err)

		if attempt > d.maxRetries {
			return StateExhausted
		}

		select {
		case <-time.After(d.retryBackoff):
		case <-ctx.Done():
			return StateExhausted
		}
	}
}

// post performs one HTTP attempt and records its diagnostics.
func (d *Dispatcher) post(ctx context.Context, url, eventName string, body []byte, attempt int) attemptResult {
	ctx, span := d.tracer.Start(ctx, "DeliverWebhook")
	span.SetAttributes(
		attribute.String("webhook.url", url),
		attribute.String("webhook.event", eventName),
		attribute.Int("webhook.attempt", attempt),
	)
	defer span.End()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return attemptResult{Outcome: OutcomeTransportError, Elapsed: time.Since(start), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		return attemptResult{Outcome: OutcomeTransportError, Elapsed: elapsed, Err: err}
	}
	defer resp.Body.Close()

	// Diagnostic only; drained so the connection can be reused.
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiagnosticBody))

	span.SetAttributes(
		attribute.Int("webhook.status_code", resp.StatusCode),
		attribute.Float64("webhook.elapsed_ms", float64(elapsed.Milliseconds())),
	)

	outcome := OutcomeDelivered
	if resp.StatusCode >= 400 {
		outcome = OutcomeSubscriberError
	}
	return attemptResult{
		Outcome:    outcome,
		StatusCode: resp.StatusCode,
		Body:       string(respBody),
		Elapsed:    elapsed,
	}
}
