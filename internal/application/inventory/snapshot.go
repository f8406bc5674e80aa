package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/mystock/warehouse/internal/domain/ledger"
	"github.com/mystock/warehouse/internal/domain/report"
	"go.uber.org/zap"
)

var (
	// ErrSnapshotNotFound is returned by a SnapshotStore that holds no state yet
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrInconsistentState is returned when stock does not reconcile with the ledger
	ErrInconsistentState = errors.New("inventory state is inconsistent")
)

// Snapshot is a consistent copy of the catalog and the ledger.
// Products are in catalog order; transactions are in chronological order.
type Snapshot struct {
	Products     []catalog.Product    `json:"products"`
	Transactions []ledger.Transaction `json:"transactions"`
	Version      uint64               `json:"version"`
	TakenAt      time.Time            `json:"taken_at"`
}

// IsEmpty reports whether the snapshot holds no products and no transactions
func (s Snapshot) IsEmpty() bool {
	return len(s.Products) == 0 && len(s.Transactions) == 0
}

// SnapshotStore loads and saves engine snapshots.
// Load returns ErrSnapshotNotFound when nothing has been saved yet.
type SnapshotStore interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
}

// Snapshot returns a consistent copy of the current state
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Snapshot{
		Products:     make([]catalog.Product, 0, e.catalog.Len()),
		Transactions: make([]ledger.Transaction, 0, e.ledger.Len()),
		Version:      e.version,
		TakenAt:      e.clock(),
	}
	for p := range e.catalog.List() {
		s.Products = append(s.Products, p)
	}
	for tx := range e.ledger.Chronological() {
		s.Transactions = append(s.Transactions, tx)
	}
	return s
}

// Restore replaces the engine state with a snapshot. The snapshot must satisfy
// every invariant; on error the current state is kept. No events are published.
func (e *Engine) Restore(s Snapshot) error {
	c, l := e.emptyState()
	if err := c.Restore(s.Products); err != nil {
		return fmt.Errorf("restore products: %w", err)
	}
	if err := l.Restore(s.Transactions); err != nil {
		return fmt.Errorf("restore transactions: %w", err)
	}
	for p := range c.List() {
		if p.BaselineSeq > l.LastSeq() {
			return fmt.Errorf("%w: product %s baseline %d is beyond the ledger end %d",
				ErrInconsistentState, p.ID, p.BaselineSeq, l.LastSeq())
		}
	}
	if rep := checkConsistency(c, l); !rep.Consistent {
		return inconsistencyError(rep)
	}

	e.mu.Lock()
	e.catalog = c
	e.ledger = l
	e.version++
	e.mu.Unlock()
	return nil
}

// ConsistencyReport reconciles every product's stock with its baseline plus
// the signed ledger entries recorded after that baseline
func (e *Engine) ConsistencyReport() report.ConsistencyReport {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return checkConsistency(e.catalog, e.ledger)
}

// VerifyConsistency returns ErrInconsistentState when any product fails to reconcile
func (e *Engine) VerifyConsistency() error {
	if rep := e.ConsistencyReport(); !rep.Consistent {
		return inconsistencyError(rep)
	}
	return nil
}

func checkConsistency(c *catalog.Catalog, l *ledger.Ledger) report.ConsistencyReport {
	rep := report.ConsistencyReport{
		Consistent: true,
		Issues:     make([]report.ConsistencyIssue, 0),
	}
	for p := range c.List() {
		rep.ProductsChecked++
		delta := l.SignedQuantitySince(p.ID, p.BaselineSeq)
		expected := p.BaselineStock + delta
		if expected == p.Stock && p.Stock >= 0 {
			continue
		}
		rep.Consistent = false
		rep.Issues = append(rep.Issues, report.ConsistencyIssue{
			ProductID:     p.ID,
			ProductName:   p.Name,
			BaselineStock: p.BaselineStock,
			LedgerDelta:   delta,
			ExpectedStock: expected,
			ActualStock:   p.Stock,
		})
	}
	return rep
}

func inconsistencyError(rep report.ConsistencyReport) error {
	first := rep.Issues[0]
	return fmt.Errorf("%w: %d product(s) do not reconcile, first %s expected %d got %d",
		ErrInconsistentState, len(rep.Issues), first.ProductName, first.ExpectedStock, first.ActualStock)
}

// LoadState restores the engine from the store. Absent, unreadable or
// invalid state leaves the engine empty; only a warning is logged.
// It reports whether stored state was restored.
func LoadState(ctx context.Context, store SnapshotStore, engine *Engine, logger *zap.Logger) bool {
	s, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			logger.Info("no stored inventory state, starting empty")
		} else {
			logger.Warn("failed to load inventory state, starting empty", zap.Error(err))
		}
		_ = engine.Restore(Snapshot{})
		return false
	}
	if err := engine.Restore(s); err != nil {
		logger.Warn("stored inventory state is invalid, starting empty", zap.Error(err))
		_ = engine.Restore(Snapshot{})
		return false
	}
	logger.Info("inventory state restored",
		zap.Int("products", len(s.Products)),
		zap.Int("transactions", len(s.Transactions)),
	)
	return true
}
