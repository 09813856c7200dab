package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
)

type PostgresRepository struct {
	db *sql.DB // using database/sql
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (p *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "DeleteAll")
	defer span.End()

	startTime := time.Now()
	res, err := p.db.ExecContext(ctx, `DELETE FROM products`)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	addDBStatsToSpan(span, "postgresql", "DeleteAll", int(deleted), time.Since(startTime))
	return deleted, nil
}

func (p *PostgresRepository) FetchByKeys(ctx context.Context, keys []string) ([]Product, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "FetchByKeys")
	defer span.End()

	startTime := time.Now()
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, sku, sku_norm, name, description, active, created_at, updated_at
         FROM products WHERE sku_norm = ANY($1)`, pq.Array(keys))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var product Product
		if err := rows.Scan(
			&product.ID,
			&product.SKU,
			&product.Key,
			&product.Name,
			&product.Description,
			&product.Active,
			&product.CreatedAt,
			&product.UpdatedAt); err != nil {
			span.RecordError(err)
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	addDBStatsToSpan(span, "postgresql", "FetchByKeys", len(products), time.Since(startTime))
	return products, nil
}

func (p *PostgresRepository) BulkCreate(ctx context.Context, products []Product) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "BulkCreate")
	defer span.End()

	startTime := time.Now()
	for _, batch := range batches(products, createBatchSize) {
		if err := p.insertBatch(ctx, batch); err != nil {
			span.RecordError(err)
			return err
		}
	}

	addDBStatsToSpan(span, "postgresql", "BulkCreate", len(products), time.Since(startTime))
	return nil
}

func (p *PostgresRepository) insertBatch(ctx context.Context, batch []Product) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO products (id, sku, sku_norm, name, description, active, created_at, updated_at) VALUES `)
	args := make([]interface{}, 0, len(batch)*8)
	for i, product := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 8
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		args = append(args,
			product.ID, product.SKU, product.Key, product.Name,
			product.Description, product.Active, product.CreatedAt, product.UpdatedAt)
	}

	_, err := p.db.ExecContext(ctx, sb.String(), args...)
	return err
}

func (p *PostgresRepository) BulkUpdate(ctx context.Context, products []Product) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "BulkUpdate")
	defer span.End()

	startTime := time.Now()
	for _, batch := range batches(products, updateBatchSize) {
		if err := p.updateBatch(ctx, batch); err != nil {
			span.RecordError(err)
			return err
		}
	}

	addDBStatsToSpan(span, "postgresql", "BulkUpdate", len(products), time.Since(startTime))
	return nil
}

func (p *PostgresRepository) updateBatch(ctx context.Context, batch []Product) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, product := range batch {
		_, err := tx.ExecContext(ctx,
			`UPDATE products SET name=$1, description=$2, active=$3, updated_at=$4 WHERE id=$5`,
			product.Name, product.Description, product.Active, time.Now(), product.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (p *PostgresRepository) Count(ctx context.Context) (int64, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Count")
	defer span.End()

	var count int64
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		span.RecordError(err)
		return 0, err
	}
	return count, nil
}
