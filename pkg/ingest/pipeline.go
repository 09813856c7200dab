package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoff-tech/catalog-ingest/pkg/events"
	"github.com/zoff-tech/catalog-ingest/pkg/progress"
	"github.com/zoff-tech/catalog-ingest/pkg/store"
)

// Pipeline turns an uploaded CSV into persisted catalog state: pre-scan
// for the row total, optional destructive reset, streaming parse with
// per-chunk last-occurrence-wins dedup, chunked upsert, progress
// publication, completion event. Processing within one job is strictly
// sequential; chunk order is significant.
type Pipeline struct {
	engine     *UpsertEngine
	repo       store.ProductRepository
	jobs       progress.JobStore
	bus        *events.Bus
	replaceAll bool
	tracer     trace.Tracer
}

// NewPipeline wires the pipeline. replaceAll selects replace semantics
// (wipe persisted products before processing) over merge semantics.
func NewPipeline(repo store.ProductRepository, jobs progress.JobStore, bus *events.Bus, replaceAll bool) *Pipeline {
	return &Pipeline{
		engine:     NewUpsertEngine(repo),
		repo:       repo,
		jobs:       jobs,
		bus:        bus,
		replaceAll: replaceAll,
		tracer:     otel.Tracer("catalog-ingest"),
	}
}

type columnIndex struct {
	sku, name, description int
}

func indexHeader(header []string) columnIndex {
	idx := columnIndex{sku: -1, name: -1, description: -1}
	for i, h := range header {
		switch h {
		case "sku":
			idx.sku = i
		case "name":
			idx.name = i
		case "description":
			idx.description = i
		}
	}
	return idx
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func rowHasValue(row []string) bool {
	for _, v := range row {
		if v != "" {
			return true
		}
	}
	return false
}

// Run executes one import job to its terminal state. The returned error is
// for the background runner's bookkeeping; callers observe the job through
// the progress store.
func (p *Pipeline) Run(ctx context.Context, jobID string, src Source, chunkSize int) error {
	ctx, span := p.tracer.Start(ctx, "ImportJob",
		trace.WithAttributes(attribute.String("job.id", jobID)))
	defer span.End()

	pub := progress.NewPublisher(p.jobs, jobID)

	err := p.run(ctx, pub, src, chunkSize)
	if err != nil {
		span.RecordError(err)
		log.Printf("Import job %s failed: %v", jobID, err)
		return err
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, pub *progress.Publisher, src Source, chunkSize int) error {
	if err := pub.Publish(ctx, progress.StatusParsing, 0, 0, "Opening file"); err != nil {
		return err
	}

	processed := 0
	totalRows := 0

	fail := func(err error) error {
		// Best-effort terminal status; the entry expires either way.
		if pubErr := pub.Publish(ctx, progress.StatusFailed, processed, totalRows, err.Error()); pubErr != nil {
			log.Printf("Failed to publish FAILED status: %v", pubErr)
		}
		return err
	}

	totalRows, err := p.countRows(src)
	if err != nil {
		return fail(fmt.Errorf("counting rows: %w", err))
	}

	if err := pub.Publish(ctx, progress.StatusParsing, processed, totalRows, "Starting processing"); err != nil {
		return err
	}

	if p.replaceAll {
		deleted, err := p.repo.DeleteAll(ctx)
		if err != nil {
			return fail(fmt.Errorf("resetting catalog: %w", err))
		}
		log.Printf("Catalog reset: %d products deleted", deleted)
	}

	file, err := src.Open()
	if err != nil {
		return fail(err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		header = nil // no header, no rows
	} else if err != nil {
		return fail(fmt.Errorf("reading header: %w", err))
	}
	cols := indexHeader(header)

	chunk := make([]store.CatalogRecord, 0, chunkSize)
	seenKeys := make(map[string]bool) // keys in the current pending chunk

	flush := func(message string) error {
		if err := pub.Publish(ctx, progress.StatusImporting, processed, totalRows, message); err != nil {
			return err
		}
		if err := p.engine.Reconcile(ctx, chunk); err != nil {
			return fmt.Errorf("processing chunk: %w", err)
		}
		chunk = make([]store.CatalogRecord, 0, chunkSize)
		seenKeys = make(map[string]bool)
		return nil
	}

	for header != nil {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(fmt.Errorf("reading row: %w", err))
		}
		if !rowHasValue(row) {
			continue
		}
		processed++

		rec := store.NewCatalogRecord(field(row, cols.sku), field(row, cols.name), field(row, cols.description))
		if rec.Key == "" {
			continue // rows without a SKU are never upserted
		}

		if seenKeys[rec.Key] {
			// Duplicate inside the pending chunk: last occurrence wins,
			// appended in order of arrival.
			kept := chunk[:0]
			for _, c := range chunk {
				if c.Key != rec.Key {
					kept = append(kept, c)
				}
			}
			chunk = kept
		}
		seenKeys[rec.Key] = true
		chunk = append(chunk, rec)

		if len(chunk) >= chunkSize {
			if err := flush(fmt.Sprintf("processing chunk at row %d", processed)); err != nil {
				return fail(err)
			}
			if err := pub.Publish(ctx, progress.StatusImporting, processed, totalRows,
				fmt.Sprintf("processed %d of %d rows", processed, totalRows)); err != nil {
				return fail(err)
			}
		}
	}

	if len(chunk) > 0 {
		if err := flush("processing final chunk"); err != nil {
			return fail(err)
		}
	}

	if err := pub.Publish(ctx, progress.StatusCompleted, processed, totalRows, "Import completed successfully"); err != nil {
		return err
	}

	return p.bus.Publish(ctx, events.Event{
		Kind: events.KindImportCompleted,
		Payload: events.ImportCompletedPayload{
			JobID:     pub.JobID(),
			TotalRows: totalRows,
		},
	})
}

// countRows pre-scans the source so the very first progress update can
// report a percentage. Rows where every field is empty do not count.
func (p *Pipeline) countRows(src Source) (int, error) {
	file, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil { // header
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, err
	}

	total := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return 0, err
		}
		if rowHasValue(row) {
			total++
		}
	}
}
