package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/amws/backend/internal/domain/shared"
)

// Product is the parent grouping of purchasable variations. Every variation
// must have a parent product; the product's store associations determine
// which store an imported order is assigned to.
type Product struct {
	shared.BaseEntity

	// Title is the product title
	Title string `gorm:"type:varchar(200);not null"`
	// Stores are the store associations of this product
	Stores []ProductStore `gorm:"foreignKey:ProductID"`
	// Published indicates whether the product is visible
	Published bool `gorm:"not null;default:true"`
}

// TableName returns the database table name for products
func (Product) TableName() string {
	return "products"
}

// StoreIDs returns the IDs of the stores this product is associated with,
// in association order.
func (p *Product) StoreIDs() []string {
	ids := make([]string, 0, len(p.Stores))
	for _, s := range p.Stores {
		ids = append(ids, s.StoreID)
	}
	return ids
}

// ProductStore associates a product with a store
type ProductStore struct {
	ProductID uuid.UUID `gorm:"type:uuid;primary_key"`
	StoreID   string    `gorm:"type:varchar(64);primary_key"`
}

// TableName returns the database table name for product store associations
func (ProductStore) TableName() string {
	return "product_stores"
}

// Variation is a purchasable product variation identified by SKU
type Variation struct {
	shared.BaseEntity

	// SKU is the seller SKU, unique across the catalog
	SKU string `gorm:"type:varchar(64);not null;uniqueIndex"`
	// Title is the variation title, used as the order item title fallback
	Title string `gorm:"type:varchar(200);not null"`
	// ProductID is the parent product; a variation without a parent product
	// is a data error for the import pipeline
	ProductID *uuid.UUID `gorm:"type:uuid;index"`
	// Product is the parent product association
	Product *Product `gorm:"foreignKey:ProductID"`
	// ExportEnabled marks the variation for catalog export to the
	// marketplace
	ExportEnabled bool `gorm:"not null;default:false"`
}

// TableName returns the database table name for variations
func (Variation) TableName() string {
	return "product_variations"
}

// VariationLookup resolves seller SKUs to catalog variations
type VariationLookup interface {
	// BySKU returns the variation with the given SKU, with its parent
	// product and store associations loaded, or shared.ErrNotFound
	BySKU(ctx context.Context, sku string) (*Variation, error)
}

// VariationRepository defines the persistence interface for variations
type VariationRepository interface {
	VariationLookup

	// Save creates or updates a variation
	Save(ctx context.Context, variation *Variation) error

	// FindForExport returns variations marked for export, capped at limit
	// (0 = unbounded)
	FindForExport(ctx context.Context, limit int) ([]Variation, error)
}
