package store

import (
	"context"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
)

type SpannerRepository struct {
	client *spanner.Client
}

func NewSpannerRepository(client *spanner.Client) *SpannerRepository {
	return &SpannerRepository{client: client}
}

func (s *SpannerRepository) DeleteAll(ctx context.Context) (int64, error) {
	return s.client.PartitionedUpdate(ctx, spanner.Statement{
		SQL: `DELETE FROM products WHERE true`,
	})
}

func (s *SpannerRepository) FetchByKeys(ctx context.Context, keys []string) ([]Product, error) {
	stmt := spanner.Statement{
		SQL: `SELECT id, sku, sku_norm, name, description, active, created_at, updated_at
              FROM products WHERE sku_norm IN UNNEST(@keys)`,
		Params: map[string]interface{}{
			"keys": keys,
		},
	}

	iter := s.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var products []Product
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var product Product
		if err := row.Columns(
			&product.ID,
			&product.SKU,
			&product.Key,
			&product.Name,
			&product.Description,
			&product.Active,
			&product.CreatedAt,
			&product.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, nil
}

func (s *SpannerRepository) BulkCreate(ctx context.Context, products []Product) error {
	for _, batch := range batches(products, createBatchSize) {
		mutations := make([]*spanner.Mutation, len(batch))
		for i, product := range batch {
			mutations[i] = spanner.Insert("products",
				[]string{"id", "sku", "sku_norm", "name", "description", "active", "created_at", "updated_at"},
				[]interface{}{product.ID, product.SKU, product.Key, product.Name,
					product.Description, product.Active, product.CreatedAt, product.UpdatedAt})
		}
		if _, err := s.client.Apply(ctx, mutations); err != nil {
			return err
		}
	}
	return nil
}

func (s *SpannerRepository) BulkUpdate(ctx context.Context, products []Product) error {
	for _, batch := range batches(products, updateBatchSize) {
		mutations := make([]*spanner.Mutation, len(batch))
		for i, product := range batch {
			mutations[i] = spanner.Update("products",
				[]string{"id", "name", "description", "active", "updated_at"},
				[]interface{}{product.ID, product.Name, product.Description,
					product.Active, spanner.CommitTimestamp})
		}
		if _, err := s.client.Apply(ctx, mutations); err != nil {
			return err
		}
	}
	return nil
}

func (s *SpannerRepository) Count(ctx context.Context) (int64, error) {
	stmt := spanner.Statement{SQL: `SELECT COUNT(*) FROM products`}
	iter := s.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		return 0, err
	}
	var count int64
	if err := row.Columns(&count); err != nil {
		return 0, err
	}
	return count, nil
}
