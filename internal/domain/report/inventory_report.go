// Package report holds the read models derived from catalog and ledger state.
package report

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold flags products with fewer than 10 units
const DefaultLowStockThreshold int64 = 10

// InventorySummary provides aggregated inventory statistics
type InventorySummary struct {
	TotalProducts     int64           `json:"total_products"`
	TotalStock        int64           `json:"total_stock"`
	TotalValue        decimal.Decimal `json:"total_value"`
	LowStockCount     int64           `json:"low_stock_count"`
	OutOfStockCount   int64           `json:"out_of_stock_count"`
	LowStockThreshold int64           `json:"low_stock_threshold"`
	TransactionCount  int64           `json:"transaction_count"`
}

// CategoryValue represents inventory value grouped by category
type CategoryValue struct {
	Category     string          `json:"category"`
	ProductCount int64           `json:"product_count"`
	TotalStock   int64           `json:"total_stock"`
	TotalValue   decimal.Decimal `json:"total_value"`
}

// ExportRow is one row of the tabular stock report
type ExportRow struct {
	ProductID  uuid.UUID       `json:"product_id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Stock      int64           `json:"stock"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// ConsistencyIssue describes a product whose stock does not reconcile with the ledger
type ConsistencyIssue struct {
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	BaselineStock int64     `json:"baseline_stock"`
	LedgerDelta   int64     `json:"ledger_delta"`
	ExpectedStock int64     `json:"expected_stock"`
	ActualStock   int64     `json:"actual_stock"`
}

// ConsistencyReport is the result of reconciling every product against the ledger
type ConsistencyReport struct {
	Consistent      bool               `json:"consistent"`
	ProductsChecked int                `json:"products_checked"`
	Issues          []ConsistencyIssue `json:"issues"`
}
