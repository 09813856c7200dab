package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestDeleteAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectExec(`DELETE FROM products`).
		WillReturnResult(sqlmock.NewResult(0, 42))

	ctx := context.Background()
	deleted, err := repo.DeleteAll(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), deleted)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchByKeys(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "sku", "sku_norm", "name", "description", "active", "created_at", "updated_at"}).
		AddRow("1", "A1", "a1", "Widget", "a widget", true, now, now).
		AddRow("2", "B2", "b2", "Gadget", "a gadget", false, now, now)

	mock.ExpectQuery(`SELECT id, sku, sku_norm, name, description, active, created_at, updated_at FROM products WHERE sku_norm = ANY\(\$1\)`).
		WillReturnRows(rows)

	ctx := context.Background()
	products, err := repo.FetchByKeys(ctx, []string{"a1", "b2"})
	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, "a1", products[0].Key)
	assert.Equal(t, "A1", products[0].SKU)
	assert.Equal(t, "Widget", products[0].Name)
	assert.True(t, products[0].Active)
	assert.Equal(t, "b2", products[1].Key)
	assert.False(t, products[1].Active)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectExec(`INSERT INTO products \(id, sku, sku_norm, name, description, active, created_at, updated_at\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8\), \(\$9, \$10, \$11, \$12, \$13, \$14, \$15, \$16\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	ctx := context.Background()
	err = repo.BulkCreate(ctx, []Product{
		NewProduct(NewCatalogRecord("A1", "Widget", "")),
		NewProduct(NewCatalogRecord("B2", "Gadget", "")),
	})
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE products SET name=\$1, description=\$2, active=\$3, updated_at=\$4 WHERE id=\$5`).
		WithArgs("Widget", "updated", true, sqlmock.AnyArg(), "1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE products SET name=\$1, description=\$2, active=\$3, updated_at=\$4 WHERE id=\$5`).
		WithArgs("Gadget", "updated too", true, sqlmock.AnyArg(), "2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	err = repo.BulkUpdate(ctx, []Product{
		{ID: "1", Name: "Widget", Description: "updated", Active: true},
		{ID: "2", Name: "Gadget", Description: "updated too", Active: true},
	})
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	ctx := context.Background()
	count, err := repo.Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatches(t *testing.T) {
	items := make([]int, 25)
	out := batches(items, 10)
	assert.Len(t, out, 3)
	assert.Len(t, out[0], 10)
	assert.Len(t, out[1], 10)
	assert.Len(t, out[2], 5)

	assert.Empty(t, batches([]int{}, 10))
	assert.Len(t, batches(make([]int, 10), 10), 1)
}
