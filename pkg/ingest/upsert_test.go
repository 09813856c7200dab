package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zoff-tech/catalog-ingest/pkg/store"
)

func TestReconcilePartitionsCreatesAndUpdates(t *testing.T) {
	repo := newFakeRepo()
	repo.byKey["a1"] = store.Product{ID: "p1", SKU: "A1", Key: "a1", Name: "Old", Active: false}

	engine := NewUpsertEngine(repo)
	err := engine.Reconcile(context.Background(), []store.CatalogRecord{
		{SKU: "A1", Key: "a1", Name: "Updated", Description: "d1"},
		{SKU: "B2", Key: "b2", Name: "Fresh", Description: "d2"},
	})
	assert.NoError(t, err)

	assert.Equal(t, []int{1}, repo.createSizes)
	assert.Equal(t, []int{1}, repo.updateSizes)

	updated := repo.byKey["a1"]
	assert.Equal(t, "p1", updated.ID)
	assert.Equal(t, "Updated", updated.Name)
	assert.True(t, updated.Active, "existing product must be reactivated")

	created := repo.byKey["b2"]
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "B2", created.SKU)
	assert.True(t, created.Active)
}

func TestReconcileAppliesCreatesBeforeUpdates(t *testing.T) {
	repo := newFakeRepo()
	repo.byKey["a1"] = store.Product{ID: "p1", Key: "a1"}

	engine := NewUpsertEngine(repo)
	err := engine.Reconcile(context.Background(), []store.CatalogRecord{
		{SKU: "A1", Key: "a1", Name: "update"},
		{SKU: "B2", Key: "b2", Name: "create"},
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"fetch", "create", "update"}, repo.ops)
}

func TestReconcileEmptyChunkIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	engine := NewUpsertEngine(repo)

	assert.NoError(t, engine.Reconcile(context.Background(), nil))
	assert.Empty(t, repo.ops)
}

func TestReconcilePropagatesRepositoryError(t *testing.T) {
	repo := newFakeRepo()
	repo.failWith = errors.New("connection refused")

	engine := NewUpsertEngine(repo)
	err := engine.Reconcile(context.Background(), []store.CatalogRecord{
		{SKU: "A1", Key: "a1", Name: "x"},
	})
	assert.ErrorContains(t, err, "connection refused")
}
