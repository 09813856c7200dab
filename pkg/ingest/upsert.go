package ingest

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoff-tech/catalog-ingest/pkg/store"
)

// UpsertEngine reconciles one deduplicated chunk against persisted state.
// A key that already exists is the common case, not an error: it takes the
// update path and is forced back to active.
type UpsertEngine struct {
	repo   store.ProductRepository
	tracer trace.Tracer
}

func NewUpsertEngine(repo store.ProductRepository) *UpsertEngine {
	return &UpsertEngine{
		repo:   repo,
		tracer: otel.Tracer("catalog-ingest"),
	}
}

// Reconcile partitions the chunk into creates and updates with one bulk
// read, then applies creates before updates. Only infrastructure failures
// propagate.
func (e *UpsertEngine) Reconcile(ctx context.Context, records []store.CatalogRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, span := e.tracer.Start(ctx, "ReconcileChunk",
		trace.WithAttributes(attribute.Int("chunk.size", len(records))))
	defer span.End()

	keys := make([]string, len(records))
	for i, rec := range records {
		keys[i] = rec.Key
	}

	existing, err := e.repo.FetchByKeys(ctx, keys)
	if err != nil {
		span.RecordError(err)
		return err
	}
	byKey := make(map[string]store.Product, len(existing))
	for _, product := range existing {
		byKey[product.Key] = product
	}

	var creates, updates []store.Product
	for _, rec := range records {
		if product, ok := byKey[rec.Key]; ok {
			product.Name = rec.Name
			product.Description = rec.Description
			product.Active = true
			updates = append(updates, product)
		} else {
			creates = append(creates, store.NewProduct(rec))
		}
	}

	if len(creates) > 0 {
		if err := e.repo.BulkCreate(ctx, creates); err != nil {
			span.RecordError(err)
			return err
		}
	}
	if len(updates) > 0 {
		if err := e.repo.BulkUpdate(ctx, updates); err != nil {
			span.RecordError(err)
			return err
		}
	}

	span.SetAttributes(
		attribute.Int("chunk.creates", len(creates)),
		attribute.Int("chunk.updates", len(updates)),
	)
	return nil
}
