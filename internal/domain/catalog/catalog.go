package catalog

import (
	"iter"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/mystock/warehouse/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Catalog maps product IDs to products and remembers insertion order.
// The stock summed over all products never exceeds math.MaxInt64.
// It is not safe for concurrent use; the inventory engine serializes access.
type Catalog struct {
	products map[uuid.UUID]*Product
	order    []uuid.UUID
	total    int64
	clock    shared.Clock
}

// Option configures a Catalog
type Option func(*Catalog)

// WithClock sets the clock used for timestamps
func WithClock(clock shared.Clock) Option {
	return func(c *Catalog) {
		c.clock = clock
	}
}

// New creates an empty catalog
func New(opts ...Option) *Catalog {
	c := &Catalog{
		products: make(map[uuid.UUID]*Product),
		order:    make([]uuid.UUID, 0),
		clock:    shared.SystemClock,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add creates and stores a new product
func (c *Catalog) Add(name, category string, unitPrice decimal.Decimal, stock int64) (Product, error) {
	p, err := NewProduct(name, category, unitPrice, stock, c.clock())
	if err != nil {
		return Product{}, err
	}
	if !c.Fits(0, stock) {
		return Product{}, totalOverflowError(stock)
	}
	// uuid v4 collisions are not expected, but an ID must never be reused
	for c.products[p.ID] != nil {
		p.ID = uuid.New()
	}
	c.products[p.ID] = p
	c.order = append(c.order, p.ID)
	c.total += p.Stock
	return *p, nil
}

// Remove deletes a product. Removing an unknown or already removed ID fails.
func (c *Catalog) Remove(id uuid.UUID) error {
	p, ok := c.products[id]
	if !ok {
		return shared.NewNotFoundError("product", id)
	}
	c.total -= p.Stock
	delete(c.products, id)
	if idx := slices.Index(c.order, id); idx >= 0 {
		c.order = slices.Delete(c.order, idx, idx+1)
	}
	return nil
}

// Get returns a copy of the product
func (c *Catalog) Get(id uuid.UUID) (Product, error) {
	p, ok := c.products[id]
	if !ok {
		return Product{}, shared.NewNotFoundError("product", id)
	}
	return *p, nil
}

// Contains reports whether the product exists
func (c *Catalog) Contains(id uuid.UUID) bool {
	_, ok := c.products[id]
	return ok
}

// List yields copies of all products in insertion order.
// The sequence can be ranged over any number of times.
func (c *Catalog) List() iter.Seq[Product] {
	return func(yield func(Product) bool) {
		for _, id := range c.order {
			p, ok := c.products[id]
			if !ok {
				continue
			}
			if !yield(*p) {
				return
			}
		}
	}
}

// Len returns the number of products
func (c *Catalog) Len() int {
	return len(c.order)
}

// TotalStock returns the stock summed over all products
func (c *Catalog) TotalStock() int64 {
	return c.total
}

// Fits reports whether replacing oldStock units with newStock units keeps the
// catalog total within int64
func (c *Catalog) Fits(oldStock, newStock int64) bool {
	return newStock <= math.MaxInt64-(c.total-oldStock)
}

func totalOverflowError(stock int64) error {
	return shared.NewValidationError("Stock of %d would overflow the warehouse total", stock)
}

// SetStock overwrites the stock of a product
func (c *Catalog) SetStock(id uuid.UUID, newStock int64) error {
	if newStock < 0 {
		return shared.NewValidationError("Stock cannot be negative, got %d", newStock)
	}
	p, ok := c.products[id]
	if !ok {
		return shared.NewNotFoundError("product", id)
	}
	if !c.Fits(p.Stock, newStock) {
		return totalOverflowError(newStock)
	}
	c.total += newStock - p.Stock
	p.Stock = newStock
	p.UpdatedAt = c.clock()
	return nil
}

// SetBaseline records the stock and ledger position from which later ledger
// entries are reconciled. auditedAt is nil when the baseline is not an audit.
func (c *Catalog) SetBaseline(id uuid.UUID, stock int64, seq uint64, auditedAt *time.Time) error {
	p, ok := c.products[id]
	if !ok {
		return shared.NewNotFoundError("product", id)
	}
	p.BaselineStock = stock
	p.BaselineSeq = seq
	if auditedAt != nil {
		at := *auditedAt
		p.LastAuditedAt = &at
	}
	return nil
}

// Restore replaces the catalog content with the given products, keeping their order.
// The catalog is left untouched when any product is invalid or duplicated.
func (c *Catalog) Restore(products []Product) error {
	byID := make(map[uuid.UUID]*Product, len(products))
	order := make([]uuid.UUID, 0, len(products))
	var total int64
	for i := range products {
		p := products[i]
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := byID[p.ID]; dup {
			return shared.NewValidationError("Duplicate product ID %s", p.ID)
		}
		if p.Stock > math.MaxInt64-total {
			return totalOverflowError(p.Stock)
		}
		total += p.Stock
		byID[p.ID] = &p
		order = append(order, p.ID)
	}
	c.products = byID
	c.order = order
	c.total = total
	return nil
}
