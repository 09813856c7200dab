package progress

import (
	"context"
	"errors"
)

// ErrNotFound signals that a job entry is absent or has expired. Callers
// must treat it as "unknown", never as failed or succeeded.
var ErrNotFound = errors.New("import job not found")

// JobStore is a key-value store with expiring entries, keyed by job id.
type JobStore interface {
	Put(ctx context.Context, entry Entry) error
	Get(ctx context.Context, jobID string) (Entry, error)
	Close() error
}

// Publisher writes progress for a single job. Only the owning job writes
// its own id; reads are shared with any number of polling callers.
type Publisher struct {
	store JobStore
	jobID string
}

func NewPublisher(store JobStore, jobID string) *Publisher {
	return &Publisher{store: store, jobID: jobID}
}

func (p *Publisher) JobID() string {
	return p.jobID
}

// Publish computes the percentage and records the job state.
func (p *Publisher) Publish(ctx context.Context, status Status, processed, total int, message string) error {
	return p.store.Put(ctx, Entry{
		JobID:     p.jobID,
		Status:    status,
		Percent:   Percent(status, processed, total),
		Processed: processed,
		Total:     total,
		Message:   message,
	})
}
