package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/mystock/warehouse/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeProductAdded        = "ProductAdded"
	EventTypeProductRemoved      = "ProductRemoved"
	EventTypeStockReceived       = "StockReceived"
	EventTypeStockIssued         = "StockIssued"
	EventTypeStockAudited        = "StockAudited"
	EventTypeStockBelowThreshold = "StockBelowThreshold"
)

// ProductAddedEvent is raised when a product enters the catalog
type ProductAddedEvent struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID       `json:"product_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	InitialStock int64           `json:"initial_stock"`
}

// NewProductAddedEvent creates a new ProductAddedEvent
func NewProductAddedEvent(p Product, at time.Time) *ProductAddedEvent {
	return &ProductAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductAdded, AggregateTypeProduct, p.ID, at),
		ProductID:       p.ID,
		Name:            p.Name,
		Category:        p.Category,
		UnitPrice:       p.UnitPrice,
		InitialStock:    p.Stock,
	}
}

// ProductRemovedEvent is raised when a product leaves the catalog.
// Ledger history for the product is kept.
type ProductRemovedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID `json:"product_id"`
	Name       string    `json:"name"`
	FinalStock int64     `json:"final_stock"`
}

// NewProductRemovedEvent creates a new ProductRemovedEvent
func NewProductRemovedEvent(p Product, at time.Time) *ProductRemovedEvent {
	return &ProductRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductRemoved, AggregateTypeProduct, p.ID, at),
		ProductID:       p.ID,
		Name:            p.Name,
		FinalStock:      p.Stock,
	}
}

// StockMovedEvent carries a committed receipt or issue
type StockMovedEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID `json:"product_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Quantity      int64     `json:"quantity"`
	StockBefore   int64     `json:"stock_before"`
	StockAfter    int64     `json:"stock_after"`
}

// NewStockReceivedEvent creates the event for a committed receipt
func NewStockReceivedEvent(productID, transactionID uuid.UUID, quantity, before, after int64, at time.Time) *StockMovedEvent {
	return newStockMovedEvent(EventTypeStockReceived, productID, transactionID, quantity, before, after, at)
}

// NewStockIssuedEvent creates the event for a committed issue
func NewStockIssuedEvent(productID, transactionID uuid.UUID, quantity, before, after int64, at time.Time) *StockMovedEvent {
	return newStockMovedEvent(EventTypeStockIssued, productID, transactionID, quantity, before, after, at)
}

func newStockMovedEvent(eventType string, productID, transactionID uuid.UUID, quantity, before, after int64, at time.Time) *StockMovedEvent {
	return &StockMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProduct, productID, at),
		ProductID:       productID,
		TransactionID:   transactionID,
		Quantity:        quantity,
		StockBefore:     before,
		StockAfter:      after,
	}
}

// StockAuditedEvent is raised when a physical count overwrites the recorded stock
type StockAuditedEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID `json:"product_id"`
	RecordedStock int64     `json:"recorded_stock"`
	CountedStock  int64     `json:"counted_stock"`
	Difference    int64     `json:"difference"`
}

// NewStockAuditedEvent creates a new StockAuditedEvent
func NewStockAuditedEvent(productID uuid.UUID, recorded, counted int64, at time.Time) *StockAuditedEvent {
	return &StockAuditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAudited, AggregateTypeProduct, productID, at),
		ProductID:       productID,
		RecordedStock:   recorded,
		CountedStock:    counted,
		Difference:      counted - recorded,
	}
}

// StockBelowThresholdEvent is raised when a mutation leaves stock below the low-stock threshold
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	CurrentStock int64     `json:"current_stock"`
	Threshold    int64     `json:"threshold"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(p Product, threshold int64, at time.Time) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeProduct, p.ID, at),
		ProductID:       p.ID,
		ProductName:     p.Name,
		CurrentStock:    p.Stock,
		Threshold:       threshold,
	}
}
