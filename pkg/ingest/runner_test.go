package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zoff-tech/catalog-ingest/pkg/config"
	"github.com/zoff-tech/catalog-ingest/pkg/events"
	"github.com/zoff-tech/catalog-ingest/pkg/progress"
)

func newTestRunner(t *testing.T, repo *fakeRepo, jobs *memJobStore) *Runner {
	t.Helper()
	bus := events.NewBus(nil)
	t.Cleanup(func() { bus.Close() })

	runner, err := NewRunner(repo, jobs, bus, config.ImportSettings{
		ChunkSize:  50,
		ReplaceAll: true,
		PoolSize:   2,
	})
	assert.NoError(t, err)
	t.Cleanup(runner.Close)
	return runner
}

func TestRunnerRunsJobInBackground(t *testing.T) {
	repo := newFakeRepo()
	jobs := newMemJobStore()
	runner := newTestRunner(t, repo, jobs)

	err := runner.StartImport(context.Background(), "job-1", buildCSV(120), 0)
	assert.NoError(t, err)
	runner.Wait()

	entry, err := runner.GetStatus(context.Background(), "job-1")
	assert.NoError(t, err)
	assert.Equal(t, progress.StatusCompleted, entry.Status)
	assert.Equal(t, 120, entry.Total)

	// chunkSize 0 falls back to the configured default of 50.
	assert.Equal(t, []int{50, 50, 20}, repo.createSizes)
}

func TestRunnerRejectsUnreadableSource(t *testing.T) {
	repo := newFakeRepo()
	jobs := newMemJobStore()
	runner := newTestRunner(t, repo, jobs)

	err := runner.StartImport(context.Background(), "job-1", FileSource("testdata/does-not-exist.csv"), 0)
	assert.ErrorContains(t, err, "cannot open import source")

	_, err = runner.GetStatus(context.Background(), "job-1")
	assert.ErrorIs(t, err, progress.ErrNotFound)
}

func TestRunnerStatusForUnknownJob(t *testing.T) {
	runner := newTestRunner(t, newFakeRepo(), newMemJobStore())

	_, err := runner.GetStatus(context.Background(), "never-started")
	assert.ErrorIs(t, err, progress.ErrNotFound)
}
