package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product is a persisted catalog entry. Key (column sku_norm) is the sole
// matching identity for upsert reconciliation; SKU keeps the user-supplied
// spelling for display.
type Product struct {
	ID          string    `json:"id" bson:"_id"`
	SKU         string    `json:"sku" bson:"sku"`
	Key         string    `json:"sku_norm" bson:"sku_norm"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Active      bool      `json:"active" bson:"active"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// CatalogRecord is one normalized CSV row, alive until it is folded into a
// chunk or superseded by a later duplicate of the same Key.
type CatalogRecord struct {
	SKU         string
	Key         string
	Name        string
	Description string
}

// NormalizeSKU derives the matching key: trimmed, case-folded.
func NormalizeSKU(sku string) string {
	return strings.ToLower(strings.TrimSpace(sku))
}

// NewCatalogRecord builds a record from raw CSV fields, deriving Key from
// the SKU. Name and description are trimmed like the SKU.
func NewCatalogRecord(sku, name, description string) CatalogRecord {
	return CatalogRecord{
		SKU:         strings.TrimSpace(sku),
		Key:         NormalizeSKU(sku),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
}

// NewProduct creates a fresh active product from a record.
func NewProduct(rec CatalogRecord) Product {
	now := time.Now()
	return Product{
		ID:          uuid.NewString(),
		SKU:         rec.SKU,
		Key:         rec.Key,
		Name:        rec.Name,
		Description: rec.Description,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
