package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/mystock/warehouse/internal/application/inventory"
	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/mystock/warehouse/internal/domain/ledger"
	"github.com/mystock/warehouse/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const insertBatchSize = 500

// GormStore keeps the snapshot in the products, transactions and
// snapshot_meta tables. Save replaces all three inside one transaction.
type GormStore struct {
	db *gorm.DB
}

var _ inventory.SnapshotStore = (*GormStore)(nil)

// NewGormStore creates a store on an open, migrated database
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Load reads the stored snapshot
func (s *GormStore) Load(ctx context.Context) (inventory.Snapshot, error) {
	db := s.db.WithContext(ctx)

	var meta models.SnapshotMetaModel
	if err := db.Where("id = ?", models.SnapshotMetaID).Take(&meta).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return inventory.Snapshot{}, inventory.ErrSnapshotNotFound
		}
		return inventory.Snapshot{}, fmt.Errorf("load snapshot meta: %w", err)
	}

	var productRows []models.ProductModel
	if err := db.Order("position ASC").Find(&productRows).Error; err != nil {
		return inventory.Snapshot{}, fmt.Errorf("load products: %w", err)
	}
	var txRows []models.TransactionModel
	if err := db.Order("seq ASC").Find(&txRows).Error; err != nil {
		return inventory.Snapshot{}, fmt.Errorf("load transactions: %w", err)
	}

	snapshot := inventory.Snapshot{
		Products:     make([]catalog.Product, 0, len(productRows)),
		Transactions: make([]ledger.Transaction, 0, len(txRows)),
		Version:      meta.Version,
		TakenAt:      meta.TakenAt.UTC(),
	}
	for i := range productRows {
		snapshot.Products = append(snapshot.Products, productRows[i].ToDomain())
	}
	for i := range txRows {
		snapshot.Transactions = append(snapshot.Transactions, txRows[i].ToDomain())
	}
	return snapshot, nil
}

// Save replaces the stored snapshot. Either every table is replaced or none is.
func (s *GormStore) Save(ctx context.Context, snapshot inventory.Snapshot) error {
	productRows := make([]models.ProductModel, len(snapshot.Products))
	for i, p := range snapshot.Products {
		productRows[i].FromDomain(p, i)
	}
	txRows := make([]models.TransactionModel, len(snapshot.Transactions))
	for i, tx := range snapshot.Transactions {
		txRows[i].FromDomain(tx)
	}
	meta := models.SnapshotMetaModel{
		ID:      models.SnapshotMetaID,
		Version: snapshot.Version,
		TakenAt: snapshot.TakenAt,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&models.TransactionModel{}).Error; err != nil {
			return fmt.Errorf("clear transactions: %w", err)
		}
		if err := all.Delete(&models.ProductModel{}).Error; err != nil {
			return fmt.Errorf("clear products: %w", err)
		}
		if len(productRows) > 0 {
			if err := tx.CreateInBatches(productRows, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert products: %w", err)
			}
		}
		if len(txRows) > 0 {
			if err := tx.CreateInBatches(txRows, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert transactions: %w", err)
			}
		}
		if err := tx.Save(&meta).Error; err != nil {
			return fmt.Errorf("save snapshot meta: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
