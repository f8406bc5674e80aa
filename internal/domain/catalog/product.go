// Package catalog holds the authoritative set of products and their stock on hand.
package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mystock/warehouse/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeProduct is the aggregate type recorded on product events
const AggregateTypeProduct = "Product"

// Product is a catalog entry with its current stock level.
// Stock only changes through the inventory engine (movements or audits).
type Product struct {
	shared.BaseEntity
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     int64           `json:"stock"`

	// BaselineStock and BaselineSeq record the stock and ledger position at
	// creation or at the last audit. Ledger entries after BaselineSeq must
	// reconcile BaselineStock to Stock.
	BaselineStock int64      `json:"baseline_stock"`
	BaselineSeq   uint64     `json:"baseline_seq"`
	LastAuditedAt *time.Time `json:"last_audited_at,omitempty"`
}

// NewProduct validates the input and creates a product with a fresh ID
func NewProduct(name, category string, unitPrice decimal.Decimal, stock int64, now time.Time) (*Product, error) {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	if name == "" {
		return nil, shared.NewValidationError("Product name cannot be empty")
	}
	if category == "" {
		return nil, shared.NewValidationError("Product category cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("Unit price cannot be negative")
	}
	if stock < 0 {
		return nil, shared.NewValidationError("Initial stock cannot be negative")
	}

	return &Product{
		BaseEntity:    shared.NewBaseEntity(now),
		Name:          name,
		Category:      category,
		UnitPrice:     unitPrice,
		Stock:         stock,
		BaselineStock: stock,
	}, nil
}

// StockValue returns stock * unit price
func (p *Product) StockValue() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(p.Stock))
}

// IsBelow reports whether stock is strictly below the threshold
func (p *Product) IsBelow(threshold int64) bool {
	return p.Stock < threshold
}

// CanIssue reports whether quantity can leave the warehouse without going negative
func (p *Product) CanIssue(quantity int64) bool {
	return quantity <= p.Stock
}

// Validate checks the invariants a restored product must satisfy
func (p *Product) Validate() error {
	if p.ID == uuid.Nil {
		return shared.NewValidationError("Product ID cannot be empty")
	}
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Category) == "" {
		return shared.NewValidationError("Product %s has an empty name or category", p.ID)
	}
	if p.UnitPrice.IsNegative() {
		return shared.NewValidationError("Product %s has a negative unit price", p.ID)
	}
	if p.Stock < 0 || p.BaselineStock < 0 {
		return shared.NewValidationError("Product %s has negative stock", p.ID)
	}
	return nil
}
