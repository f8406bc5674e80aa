package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/mystock/warehouse/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// SnapshotMetaID is the primary key of the single snapshot_meta row
const SnapshotMetaID = 1

// ProductModel is the persistence model for catalog.Product.
// Position keeps the catalog order across reloads. Prices are stored as
// decimal text so any scale and magnitude survives a reload exactly.
type ProductModel struct {
	BaseModel
	Position      int             `gorm:"not null;index"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Category      string          `gorm:"type:varchar(100);not null;index"`
	UnitPrice     decimal.Decimal `gorm:"type:text;not null;default:'0'"`
	Stock         int64           `gorm:"not null;default:0"`
	BaselineStock int64           `gorm:"not null;default:0"`
	BaselineSeq   uint64          `gorm:"not null;default:0"`
	LastAuditedAt *time.Time
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() catalog.Product {
	p := catalog.Product{
		BaseEntity:    m.BaseModel.ToDomain(),
		Name:          m.Name,
		Category:      m.Category,
		UnitPrice:     m.UnitPrice,
		Stock:         m.Stock,
		BaselineStock: m.BaselineStock,
		BaselineSeq:   m.BaselineSeq,
	}
	if m.LastAuditedAt != nil {
		at := m.LastAuditedAt.UTC()
		p.LastAuditedAt = &at
	}
	return p
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p catalog.Product, position int) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Position = position
	m.Name = p.Name
	m.Category = p.Category
	m.UnitPrice = p.UnitPrice
	m.Stock = p.Stock
	m.BaselineStock = p.BaselineStock
	m.BaselineSeq = p.BaselineSeq
	m.LastAuditedAt = p.LastAuditedAt
}

// TransactionModel is the persistence model for ledger.Transaction.
// ProductID has no foreign key: history outlives removed products.
// UnitPrice and TotalValue use the same decimal text encoding as products.
type TransactionModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Seq           uint64          `gorm:"not null;uniqueIndex"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName   string          `gorm:"type:varchar(200);not null"`
	Type          string          `gorm:"type:varchar(32);not null"`
	Quantity      int64           `gorm:"not null"`
	UnitPrice     decimal.Decimal `gorm:"type:text;not null;default:'0'"`
	TotalValue    decimal.Decimal `gorm:"type:text;not null;default:'0'"`
	BalanceBefore int64           `gorm:"not null"`
	BalanceAfter  int64           `gorm:"not null"`
	Timestamp     time.Time       `gorm:"not null;index"`
	Reason        string          `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TransactionModel) ToDomain() ledger.Transaction {
	return ledger.Transaction{
		ID:            m.ID,
		Seq:           m.Seq,
		ProductID:     m.ProductID,
		ProductName:   m.ProductName,
		Type:          ledger.TransactionType(m.Type),
		Quantity:      m.Quantity,
		UnitPrice:     m.UnitPrice,
		TotalValue:    m.TotalValue,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Timestamp:     m.Timestamp.UTC(),
		Reason:        m.Reason,
	}
}

// FromDomain populates the persistence model from a domain Transaction
func (m *TransactionModel) FromDomain(tx ledger.Transaction) {
	m.ID = tx.ID
	m.Seq = tx.Seq
	m.ProductID = tx.ProductID
	m.ProductName = tx.ProductName
	m.Type = tx.Type.String()
	m.Quantity = tx.Quantity
	m.UnitPrice = tx.UnitPrice
	m.TotalValue = tx.TotalValue
	m.BalanceBefore = tx.BalanceBefore
	m.BalanceAfter = tx.BalanceAfter
	m.Timestamp = tx.Timestamp
	m.Reason = tx.Reason
}

// SnapshotMetaModel records the engine version of the stored snapshot.
// Its presence marks that a snapshot has been saved.
type SnapshotMetaModel struct {
	ID      int       `gorm:"primaryKey;autoIncrement:false"`
	Version uint64    `gorm:"not null"`
	TakenAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SnapshotMetaModel) TableName() string {
	return "snapshot_meta"
}

// All returns every model for auto-migration
func All() []any {
	return []any{
		&ProductModel{},
		&TransactionModel{},
		&SnapshotMetaModel{},
	}
}
