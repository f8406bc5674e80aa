package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/mystock/warehouse/internal/domain/ledger"
	"github.com/mystock/warehouse/internal/domain/report"
	"github.com/shopspring/decimal"
)

// CreateProductRequest is the body of POST /products
type CreateProductRequest struct {
	Name         string           `json:"name" binding:"required,max=200"`
	Category     string           `json:"category" binding:"required,max=100"`
	UnitPrice    *decimal.Decimal `json:"unit_price" binding:"required"`
	InitialStock int64            `json:"initial_stock" binding:"gte=0"`
}

// MovementRequest is the body of POST /products/:id/receive and /issue
type MovementRequest struct {
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
	Reason   string `json:"reason" binding:"max=255"`
}

// AuditRequest is the body of PUT /products/:id/audit
type AuditRequest struct {
	CountedStock *int64 `json:"counted_stock" binding:"required,gte=0"`
}

// AuditCountRequest is one line of a counting session
type AuditCountRequest struct {
	ProductID    string `json:"product_id" binding:"required,uuid"`
	CountedStock *int64 `json:"counted_stock" binding:"required,gte=0"`
}

// BatchAuditRequest is the body of POST /audits
type BatchAuditRequest struct {
	Counts []AuditCountRequest `json:"counts" binding:"required,min=1,max=1000,dive"`
}

// ThresholdQuery selects the low-stock threshold; the configured one is used when absent
type ThresholdQuery struct {
	Threshold *int64 `form:"threshold" binding:"omitempty,gte=0"`
}

// LimitQuery bounds list endpoints
type LimitQuery struct {
	Limit     int    `form:"limit" binding:"omitempty,gte=1,lte=1000"`
	ProductID string `form:"product_id" binding:"omitempty,uuid"`
}

// ProductResponse is the API view of a product
type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Stock         int64           `json:"stock"`
	StockValue    decimal.Decimal `json:"stock_value"`
	BaselineStock int64           `json:"baseline_stock"`
	LastAuditedAt *time.Time      `json:"last_audited_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewProductResponse converts a domain product
func NewProductResponse(p catalog.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Category:      p.Category,
		UnitPrice:     p.UnitPrice,
		Stock:         p.Stock,
		StockValue:    p.StockValue(),
		BaselineStock: p.BaselineStock,
		LastAuditedAt: p.LastAuditedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// NewProductListResponse converts a list of domain products
func NewProductListResponse(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductResponse(p))
	}
	return out
}

// TransactionResponse is the API view of a ledger entry
type TransactionResponse struct {
	ID            uuid.UUID       `json:"id"`
	Seq           uint64          `json:"seq"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Type          string          `json:"type"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalValue    decimal.Decimal `json:"total_value"`
	BalanceBefore int64           `json:"balance_before"`
	BalanceAfter  int64           `json:"balance_after"`
	Timestamp     time.Time       `json:"timestamp"`
	Reason        string          `json:"reason,omitempty"`
}

// NewTransactionResponse converts a ledger entry
func NewTransactionResponse(tx ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID,
		Seq:           tx.Seq,
		ProductID:     tx.ProductID,
		ProductName:   tx.ProductName,
		Type:          tx.Type.String(),
		Quantity:      tx.Quantity,
		UnitPrice:     tx.UnitPrice,
		TotalValue:    tx.TotalValue,
		BalanceBefore: tx.BalanceBefore,
		BalanceAfter:  tx.BalanceAfter,
		Timestamp:     tx.Timestamp,
		Reason:        tx.Reason,
	}
}

// NewTransactionListResponse converts a list of ledger entries
func NewTransactionListResponse(txs []ledger.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, NewTransactionResponse(tx))
	}
	return out
}

// MovementResponse is returned by receive and issue
type MovementResponse struct {
	Product     ProductResponse     `json:"product"`
	Transaction TransactionResponse `json:"transaction"`
}

// SummaryResponse is returned by GET /reports/summary
type SummaryResponse struct {
	report.InventorySummary
	Categories []report.CategoryValue `json:"categories"`
}
