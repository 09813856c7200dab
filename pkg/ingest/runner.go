package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/zoff-tech/catalog-ingest/pkg/config"
	"github.com/zoff-tech/catalog-ingest/pkg/events"
	"github.com/zoff-tech/catalog-ingest/pkg/progress"
	"github.com/zoff-tech/catalog-ingest/pkg/store"
)

// Runner executes import jobs as fire-and-forget background tasks on a
// bounded worker pool. Jobs run in parallel up to the pool size; each job
// is sequential internally.
type Runner struct {
	pipeline  *Pipeline
	jobs      progress.JobStore
	pool      *ants.Pool
	chunkSize int
	inflight  sync.WaitGroup
}

func NewRunner(repo store.ProductRepository, jobs progress.JobStore, bus *events.Bus, cfg config.ImportSettings) (*Runner, error) {
	poolSize := cfg.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	return &Runner{
		pipeline:  NewPipeline(repo, jobs, bus, cfg.ReplaceAll),
		jobs:      jobs,
		pool:      pool,
		chunkSize: cfg.ChunkSize,
	}, nil
}

// StartImport validates the source and schedules the job, returning
// immediately. A source that cannot be opened is rejected here,
// synchronously; everything after that is observed via GetStatus. The job
// runs detached from the caller's context.
func (r *Runner) StartImport(ctx context.Context, jobID string, src Source, chunkSize int) error {
	file, err := src.Open()
	if err != nil {
		return fmt.Errorf("cannot open import source: %w", err)
	}
	file.Close()

	if chunkSize <= 0 {
		chunkSize = r.chunkSize
	}

	r.inflight.Add(1)
	err = r.pool.Submit(func() {
		defer r.inflight.Done()
		_ = r.pipeline.Run(context.Background(), jobID, src, chunkSize)
	})
	if err != nil {
		r.inflight.Done()
		return err
	}
	return nil
}

// GetStatus reads the most recent published state of a job.
// progress.ErrNotFound means absent or expired: unknown, not failed.
func (r *Runner) GetStatus(ctx context.Context, jobID string) (progress.Entry, error) {
	return r.jobs.Get(ctx, jobID)
}

// Wait blocks until all scheduled jobs have finished.
func (r *Runner) Wait() {
	r.inflight.Wait()
}

func (r *Runner) Close() {
	r.inflight.Wait()
	r.pool.Release()
}
