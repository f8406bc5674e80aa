// Package report derives read-only views from the inventory state.
package report

import (
	"iter"
	"sort"

	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/mystock/warehouse/internal/domain/ledger"
	"github.com/mystock/warehouse/internal/domain/report"
	"github.com/shopspring/decimal"
)

// DefaultRecentActivity is the number of entries shown in the activity feed
const DefaultRecentActivity = 5

// StateReader exposes the inventory state projections are computed from
type StateReader interface {
	Products() iter.Seq[catalog.Product]
	RecentTransactions(n int) []ledger.Transaction
	TransactionCount() int
	Version() uint64
}

// Projections computes reports on every call. Nothing is cached.
type Projections struct {
	state             StateReader
	lowStockThreshold int64
}

// NewProjections creates projections over the given state.
// A threshold <= 0 falls back to report.DefaultLowStockThreshold.
func NewProjections(state StateReader, lowStockThreshold int64) *Projections {
	if lowStockThreshold <= 0 {
		lowStockThreshold = report.DefaultLowStockThreshold
	}
	return &Projections{
		state:             state,
		lowStockThreshold: lowStockThreshold,
	}
}

// LowStockThreshold returns the default threshold used by LowStockDefault
func (p *Projections) LowStockThreshold() int64 {
	return p.lowStockThreshold
}

// TotalStock sums the stock of every product. The catalog keeps this sum within int64.
func (p *Projections) TotalStock() int64 {
	var total int64
	for prod := range p.state.Products() {
		total += prod.Stock
	}
	return total
}

// TotalValue sums stock * unit price over every product
func (p *Projections) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for prod := range p.state.Products() {
		total = total.Add(prod.StockValue())
	}
	return total
}

// LowStock returns the products with stock strictly below threshold, in catalog order
func (p *Projections) LowStock(threshold int64) []catalog.Product {
	out := make([]catalog.Product, 0)
	for prod := range p.state.Products() {
		if prod.IsBelow(threshold) {
			out = append(out, prod)
		}
	}
	return out
}

// LowStockDefault applies the configured threshold
func (p *Projections) LowStockDefault() []catalog.Product {
	return p.LowStock(p.lowStockThreshold)
}

// RecentActivity returns the n most recent ledger entries
func (p *Projections) RecentActivity(n int) []ledger.Transaction {
	return p.state.RecentTransactions(n)
}

// ExportRows returns one row per product in catalog order
func (p *Projections) ExportRows() []report.ExportRow {
	rows := make([]report.ExportRow, 0)
	for prod := range p.state.Products() {
		rows = append(rows, report.ExportRow{
			ProductID:  prod.ID,
			Name:       prod.Name,
			Category:   prod.Category,
			Stock:      prod.Stock,
			UnitPrice:  prod.UnitPrice,
			TotalValue: prod.StockValue(),
		})
	}
	return rows
}

// Summary aggregates totals and stock alerts over a single read of the catalog
func (p *Projections) Summary(threshold int64) report.InventorySummary {
	s := report.InventorySummary{
		TotalValue:        decimal.Zero,
		LowStockThreshold: threshold,
		TransactionCount:  int64(p.state.TransactionCount()),
	}
	for prod := range p.state.Products() {
		s.TotalProducts++
		s.TotalStock += prod.Stock
		s.TotalValue = s.TotalValue.Add(prod.StockValue())
		if prod.IsBelow(threshold) {
			s.LowStockCount++
		}
		if prod.Stock == 0 {
			s.OutOfStockCount++
		}
	}
	return s
}

// ValueByCategory groups stock and value by category, sorted by category name
func (p *Projections) ValueByCategory() []report.CategoryValue {
	byCategory := make(map[string]*report.CategoryValue)
	for prod := range p.state.Products() {
		cv, ok := byCategory[prod.Category]
		if !ok {
			cv = &report.CategoryValue{Category: prod.Category, TotalValue: decimal.Zero}
			byCategory[prod.Category] = cv
		}
		cv.ProductCount++
		cv.TotalStock += prod.Stock
		cv.TotalValue = cv.TotalValue.Add(prod.StockValue())
	}

	out := make([]report.CategoryValue, 0, len(byCategory))
	for _, cv := range byCategory {
		out = append(out, *cv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Category < out[j].Category
	})
	return out
}
