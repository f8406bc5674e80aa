package report

import (
	"slices"
	"sync"

	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/mystock/warehouse/internal/domain/ledger"
	"github.com/mystock/warehouse/internal/domain/report"
	"github.com/shopspring/decimal"
)

// Reader is the set of projections served to callers, cached or not
type Reader interface {
	LowStockThreshold() int64
	TotalStock() int64
	TotalValue() decimal.Decimal
	LowStock(threshold int64) []catalog.Product
	LowStockDefault() []catalog.Product
	RecentActivity(n int) []ledger.Transaction
	ExportRows() []report.ExportRow
	Summary(threshold int64) report.InventorySummary
	ValueByCategory() []report.CategoryValue
}

var (
	_ Reader = (*Projections)(nil)
	_ Reader = (*CachedProjections)(nil)
)

// CachedProjections memoizes projections until the state version changes.
// A cached value is never older than the version it was stored under.
// Threshold queries are cached for the configured threshold only; any other
// threshold is computed on every call.
type CachedProjections struct {
	inner *Projections
	state StateReader

	mu         sync.Mutex
	version    uint64
	valid      bool
	totalStock *int64
	totalValue *decimal.Decimal
	exportRows []report.ExportRow
	byCategory []report.CategoryValue
	lowStock   []catalog.Product
	summary    *report.InventorySummary
}

// NewCachedProjections wraps projections with a version-keyed cache
func NewCachedProjections(inner *Projections) *CachedProjections {
	return &CachedProjections{
		inner: inner,
		state: inner.state,
	}
}

// refresh drops every cached value when the state has moved on. Caller holds mu.
func (c *CachedProjections) refresh() {
	v := c.state.Version()
	if c.valid && v == c.version {
		return
	}
	c.version = v
	c.valid = true
	c.totalStock = nil
	c.totalValue = nil
	c.exportRows = nil
	c.byCategory = nil
	c.lowStock = nil
	c.summary = nil
}

// CachedVersion returns the state version the cache currently holds
func (c *CachedProjections) CachedVersion() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version, c.valid
}

// LowStockThreshold returns the default threshold
func (c *CachedProjections) LowStockThreshold() int64 {
	return c.inner.LowStockThreshold()
}

// TotalStock sums the stock of every product
func (c *CachedProjections) TotalStock() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh()
	if c.totalStock == nil {
		v := c.inner.TotalStock()
		c.totalStock = &v
	}
	return *c.totalStock
}

// TotalValue sums stock * unit price over every product
func (c *CachedProjections) TotalValue() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh()
	if c.totalValue == nil {
		v := c.inner.TotalValue()
		c.totalValue = &v
	}
	return *c.totalValue
}

// LowStock returns the products with stock strictly below threshold
func (c *CachedProjections) LowStock(threshold int64) []catalog.Product {
	if threshold != c.inner.LowStockThreshold() {
		return c.inner.LowStock(threshold)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh()
	if c.lowStock == nil {
		c.lowStock = c.inner.LowStock(threshold)
	}
	return slices.Clone(c.lowStock)
}

// LowStockDefault applies the configured threshold
func (c *CachedProjections) LowStockDefault() []catalog.Product {
	return c.LowStock(c.inner.LowStockThreshold())
}

// RecentActivity is read through; the ledger already serves it cheaply
func (c *CachedProjections) RecentActivity(n int) []ledger.Transaction {
	return c.inner.RecentActivity(n)
}

// ExportRows returns one row per product in catalog order
func (c *CachedProjections) ExportRows() []report.ExportRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh()
	if c.exportRows == nil {
		c.exportRows = c.inner.ExportRows()
	}
	return slices.Clone(c.exportRows)
}

// Summary aggregates totals and stock alerts
func (c *CachedProjections) Summary(threshold int64) report.InventorySummary {
	if threshold != c.inner.LowStockThreshold() {
		return c.inner.Summary(threshold)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh()
	if c.summary == nil {
		s := c.inner.Summary(threshold)
		c.summary = &s
	}
	return *c.summary
}

// ValueByCategory groups stock and value by category
func (c *CachedProjections) ValueByCategory() []report.CategoryValue {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh()
	if c.byCategory == nil {
		c.byCategory = c.inner.ValueByCategory()
	}
	return slices.Clone(c.byCategory)
}
