// Package ledger is the append-only record of stock movements.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/mystock/warehouse/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of stock movement
type TransactionType string

const (
	// TransactionTypeReceipt represents goods coming in
	TransactionTypeReceipt TransactionType = "RECEIPT"
	// TransactionTypeIssue represents goods going out
	TransactionTypeIssue TransactionType = "ISSUE"
	// TransactionTypeAdjustmentIncrease represents a positive audit correction
	TransactionTypeAdjustmentIncrease TransactionType = "ADJUSTMENT_INCREASE"
	// TransactionTypeAdjustmentDecrease represents a negative audit correction
	TransactionTypeAdjustmentDecrease TransactionType = "ADJUSTMENT_DECREASE"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeReceipt,
		TransactionTypeIssue,
		TransactionTypeAdjustmentIncrease,
		TransactionTypeAdjustmentDecrease:
		return true
	}
	return false
}

// IsIncrease returns true if this transaction type increases stock
func (t TransactionType) IsIncrease() bool {
	return t == TransactionTypeReceipt || t == TransactionTypeAdjustmentIncrease
}

// IsAdjustment returns true for audit corrections
func (t TransactionType) IsAdjustment() bool {
	return t == TransactionTypeAdjustmentIncrease || t == TransactionTypeAdjustmentDecrease
}

// Sign returns +1 for increasing types and -1 for decreasing ones
func (t TransactionType) Sign() int64 {
	if t.IsIncrease() {
		return 1
	}
	return -1
}

// Transaction is an immutable stock movement record.
// ProductName is denormalized so history survives product removal.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	Seq           uint64          `json:"seq"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Type          TransactionType `json:"type"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalValue    decimal.Decimal `json:"total_value"`
	BalanceBefore int64           `json:"balance_before"`
	BalanceAfter  int64           `json:"balance_after"`
	Timestamp     time.Time       `json:"timestamp"`
	Reason        string          `json:"reason,omitempty"`
}

// SignedQuantity returns the quantity with the direction applied
func (t Transaction) SignedQuantity() int64 {
	return t.Type.Sign() * t.Quantity
}

// Validate checks the invariants a restored transaction must satisfy
func (t Transaction) Validate() error {
	if t.ID == uuid.Nil {
		return shared.NewValidationError("Transaction ID cannot be empty")
	}
	if t.Seq == 0 {
		return shared.NewValidationError("Transaction %s has no sequence number", t.ID)
	}
	if t.ProductID == uuid.Nil {
		return shared.NewValidationError("Transaction %s has no product ID", t.ID)
	}
	if !t.Type.IsValid() {
		return shared.NewValidationError("Transaction %s has invalid type %q", t.ID, t.Type)
	}
	if t.Quantity <= 0 {
		return shared.NewValidationError("Transaction %s has non-positive quantity %d", t.ID, t.Quantity)
	}
	if t.UnitPrice.IsNegative() {
		return shared.NewValidationError("Transaction %s has a negative unit price", t.ID)
	}
	if !t.TotalValue.Equal(t.UnitPrice.Mul(decimal.NewFromInt(t.Quantity))) {
		return shared.NewValidationError("Transaction %s total value does not match quantity times unit price", t.ID)
	}
	return nil
}
