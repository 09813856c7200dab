package store

import (
	"context"
)

// ProductRepository defines the database operations the ingestion core
// needs. Bulk writes may sub-batch internally but must apply creates before
// updates for a single reconciliation pass.
type ProductRepository interface {
	// DeleteAll removes every persisted product and reports how many rows went.
	DeleteAll(ctx context.Context) (int64, error)
	// FetchByKeys retrieves the products whose normalized SKU is in keys.
	FetchByKeys(ctx context.Context, keys []string) ([]Product, error)
	// BulkCreate inserts new products.
	BulkCreate(ctx context.Context, products []Product) error
	// BulkUpdate overwrites name, description and active for existing products.
	BulkUpdate(ctx context.Context, products []Product) error
	// Count returns the number of persisted products.
	Count(ctx context.Context) (int64, error)
}
