// Package inventory couples the product catalog and the transaction ledger.
// Engine is the only writer of either; every mutation path keeps stock levels,
// ledger entries and audit corrections consistent.
package inventory

import (
	"context"
	"iter"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/mystock/warehouse/internal/domain/ledger"
	"github.com/mystock/warehouse/internal/domain/report"
	"github.com/mystock/warehouse/internal/domain/shared"
	"github.com/mystock/warehouse/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AuditAdjustmentReason is recorded on ledger entries created by audits
const AuditAdjustmentReason = "stock audit"

// Engine owns one catalog and one ledger. Commands run one at a time;
// domain events are published after the command has committed.
type Engine struct {
	mu      sync.RWMutex
	catalog *catalog.Catalog
	ledger  *ledger.Ledger
	version uint64

	clock                  shared.Clock
	publisher              shared.EventPublisher
	logger                 *zap.Logger
	lowStockThreshold      int64
	recordAuditAdjustments bool
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the clock used for product and transaction timestamps
func WithClock(clock shared.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithEventPublisher sets the publisher that receives committed domain events
func WithEventPublisher(publisher shared.EventPublisher) Option {
	return func(e *Engine) {
		e.publisher = publisher
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLowStockThreshold sets the stock level below which StockBelowThreshold is raised
func WithLowStockThreshold(threshold int64) Option {
	return func(e *Engine) {
		e.lowStockThreshold = threshold
	}
}

// WithAuditAdjustments makes audits append ADJUSTMENT_INCREASE/ADJUSTMENT_DECREASE
// ledger entries for non-zero differences
func WithAuditAdjustments(enabled bool) Option {
	return func(e *Engine) {
		e.recordAuditAdjustments = enabled
	}
}

// NewEngine creates an engine with an empty catalog and ledger
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		clock:             shared.SystemClock,
		logger:            zap.NewNop(),
		lowStockThreshold: report.DefaultLowStockThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.catalog, e.ledger = e.emptyState()
	return e
}

func (e *Engine) emptyState() (*catalog.Catalog, *ledger.Ledger) {
	return catalog.New(catalog.WithClock(e.clock)), ledger.New(ledger.WithClock(e.clock))
}

// LowStockThreshold returns the configured low-stock threshold
func (e *Engine) LowStockThreshold() int64 {
	return e.lowStockThreshold
}

// AuditAdjustmentsEnabled reports whether audits append ledger entries
func (e *Engine) AuditAdjustmentsEnabled() bool {
	return e.recordAuditAdjustments
}

// execute runs fn under the write lock. The version is bumped and the returned
// events are published only when fn succeeds.
func (e *Engine) execute(ctx context.Context, op string, fn func(now time.Time) ([]shared.DomainEvent, error)) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", op)
	defer span.End()

	e.mu.Lock()
	events, err := fn(e.clock())
	if err == nil {
		e.version++
	}
	e.mu.Unlock()

	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	e.publish(ctx, events)
	return nil
}

func (e *Engine) publish(ctx context.Context, events []shared.DomainEvent) {
	if e.publisher == nil || len(events) == 0 {
		return
	}
	// handler errors are logged by the event bus, not propagated
	if err := e.publisher.Publish(ctx, events...); err != nil {
		e.logger.Warn("failed to publish domain events",
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}

func (e *Engine) thresholdEvent(p catalog.Product, now time.Time) []shared.DomainEvent {
	if !p.IsBelow(e.lowStockThreshold) {
		return nil
	}
	return []shared.DomainEvent{catalog.NewStockBelowThresholdEvent(p, e.lowStockThreshold, now)}
}

// AddProduct creates a product. Its initial stock is the baseline for later reconciliation.
func (e *Engine) AddProduct(ctx context.Context, cmd AddProductCommand) (catalog.Product, error) {
	if err := validateCommand(cmd); err != nil {
		return catalog.Product{}, err
	}

	var created catalog.Product
	err := e.execute(ctx, "add_product", func(now time.Time) ([]shared.DomainEvent, error) {
		p, err := e.catalog.Add(cmd.Name, cmd.Category, cmd.UnitPrice, cmd.InitialStock)
		if err != nil {
			return nil, err
		}
		if err := e.catalog.SetBaseline(p.ID, p.Stock, e.ledger.LastSeq(), nil); err != nil {
			_ = e.catalog.Remove(p.ID)
			return nil, err
		}
		created, _ = e.catalog.Get(p.ID)
		events := []shared.DomainEvent{catalog.NewProductAddedEvent(created, now)}
		return append(events, e.thresholdEvent(created, now)...), nil
	})
	if err != nil {
		return catalog.Product{}, err
	}

	e.logger.Info("product added",
		zap.String("product_id", created.ID.String()),
		zap.String("name", created.Name),
		zap.Int64("stock", created.Stock),
	)
	return created, nil
}

// Receive adds stock and records a RECEIPT
func (e *Engine) Receive(ctx context.Context, cmd StockMovementCommand) (*MovementResult, error) {
	return e.move(ctx, ledger.TransactionTypeReceipt, cmd)
}

// Issue removes stock and records an ISSUE. Issuing more than the stock on
// hand fails with InsufficientStockError and changes nothing.
func (e *Engine) Issue(ctx context.Context, cmd StockMovementCommand) (*MovementResult, error) {
	return e.move(ctx, ledger.TransactionTypeIssue, cmd)
}

func (e *Engine) move(ctx context.Context, txType ledger.TransactionType, cmd StockMovementCommand) (*MovementResult, error) {
	var result MovementResult
	op := "receive"
	if txType == ledger.TransactionTypeIssue {
		op = "issue"
	}
	err := e.execute(ctx, op, func(now time.Time) ([]shared.DomainEvent, error) {
		p, err := e.catalog.Get(cmd.ProductID)
		if err != nil {
			return nil, err
		}
		if err := validateCommand(cmd); err != nil {
			return nil, err
		}

		var newStock int64
		switch txType {
		case ledger.TransactionTypeIssue:
			if !p.CanIssue(cmd.Quantity) {
				return nil, shared.NewInsufficientStockError(p.Name, cmd.Quantity, p.Stock)
			}
			newStock = p.Stock - cmd.Quantity
		default:
			if p.Stock > math.MaxInt64-cmd.Quantity || !e.catalog.Fits(p.Stock, p.Stock+cmd.Quantity) {
				return nil, shared.NewValidationError("Receiving %d units of %s would overflow the warehouse stock", cmd.Quantity, p.Name)
			}
			newStock = p.Stock + cmd.Quantity
		}

		tx, err := e.ledger.Prepare(ledger.Entry{
			ProductID:     p.ID,
			ProductName:   p.Name,
			Type:          txType,
			Quantity:      cmd.Quantity,
			UnitPrice:     p.UnitPrice,
			BalanceBefore: p.Stock,
			BalanceAfter:  newStock,
			Reason:        cmd.Reason,
		})
		if err != nil {
			return nil, err
		}
		if err := e.applyStock(p, newStock, tx); err != nil {
			return nil, err
		}

		updated, _ := e.catalog.Get(p.ID)
		result = MovementResult{Product: updated, Transaction: tx}

		var moved shared.DomainEvent
		if txType == ledger.TransactionTypeIssue {
			moved = catalog.NewStockIssuedEvent(p.ID, tx.ID, tx.Quantity, p.Stock, newStock, now)
		} else {
			moved = catalog.NewStockReceivedEvent(p.ID, tx.ID, tx.Quantity, p.Stock, newStock, now)
		}
		return append([]shared.DomainEvent{moved}, e.thresholdEvent(updated, now)...), nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("stock moved",
		zap.String("type", txType.String()),
		zap.String("product_id", result.Product.ID.String()),
		zap.Int64("quantity", result.Transaction.Quantity),
		zap.Int64("stock", result.Product.Stock),
	)
	return &result, nil
}

// applyStock sets the new stock and commits the prepared ledger entry.
// The stock change is reverted when the ledger refuses the entry.
func (e *Engine) applyStock(p catalog.Product, newStock int64, tx ledger.Transaction) error {
	if err := e.catalog.SetStock(p.ID, newStock); err != nil {
		return err
	}
	if err := e.ledger.Commit(tx); err != nil {
		_ = e.catalog.SetStock(p.ID, p.Stock)
		return err
	}
	return nil
}

// ReconcileAudit overwrites the recorded stock with a physical count and
// resets the product's reconciliation baseline. A ledger entry is appended
// only when audit adjustments are enabled and the count differs.
func (e *Engine) ReconcileAudit(ctx context.Context, cmd AuditCommand) (catalog.Product, error) {
	products, err := e.ReconcileCount(ctx, []AuditCommand{cmd})
	if err != nil {
		return catalog.Product{}, err
	}
	return products[0], nil
}

// ReconcileCount applies a physical-count session over several products.
// Every count is checked before any is applied; the session is all-or-nothing.
func (e *Engine) ReconcileCount(ctx context.Context, cmds []AuditCommand) ([]catalog.Product, error) {
	if len(cmds) == 0 {
		return nil, shared.NewValidationError("At least one count is required")
	}

	var audited []catalog.Product
	err := e.execute(ctx, "reconcile_count", func(now time.Time) ([]shared.DomainEvent, error) {
		targets := make([]catalog.Product, 0, len(cmds))
		seen := make(map[uuid.UUID]struct{}, len(cmds))
		total := e.catalog.TotalStock()
		for _, cmd := range cmds {
			p, err := e.catalog.Get(cmd.ProductID)
			if err != nil {
				return nil, err
			}
			if err := validateCommand(cmd); err != nil {
				return nil, err
			}
			if _, dup := seen[p.ID]; dup {
				return nil, shared.NewValidationError("Product %s is counted more than once", p.ID)
			}
			seen[p.ID] = struct{}{}
			total -= p.Stock
			if cmd.CountedStock > math.MaxInt64-total {
				return nil, shared.NewValidationError("Counted stock of %s would overflow the warehouse stock", p.Name)
			}
			total += cmd.CountedStock
			targets = append(targets, p)
		}

		var events []shared.DomainEvent
		audited = make([]catalog.Product, 0, len(cmds))
		for i, p := range targets {
			updated, err := e.applyAudit(p, cmds[i].CountedStock, now)
			if err != nil {
				return nil, err
			}
			audited = append(audited, updated)
			events = append(events, catalog.NewStockAuditedEvent(p.ID, p.Stock, updated.Stock, now))
			events = append(events, e.thresholdEvent(updated, now)...)
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}

	for i, p := range audited {
		e.logger.Info("stock audited",
			zap.String("product_id", p.ID.String()),
			zap.Int64("counted_stock", cmds[i].CountedStock),
		)
	}
	return audited, nil
}

func (e *Engine) applyAudit(p catalog.Product, counted int64, now time.Time) (catalog.Product, error) {
	diff := counted - p.Stock
	if e.recordAuditAdjustments && diff != 0 {
		txType := ledger.TransactionTypeAdjustmentIncrease
		quantity := diff
		if diff < 0 {
			txType = ledger.TransactionTypeAdjustmentDecrease
			quantity = -diff
		}
		tx, err := e.ledger.Prepare(ledger.Entry{
			ProductID:     p.ID,
			ProductName:   p.Name,
			Type:          txType,
			Quantity:      quantity,
			UnitPrice:     p.UnitPrice,
			BalanceBefore: p.Stock,
			BalanceAfter:  counted,
			Reason:        AuditAdjustmentReason,
		})
		if err != nil {
			return catalog.Product{}, err
		}
		if err := e.applyStock(p, counted, tx); err != nil {
			return catalog.Product{}, err
		}
	} else if err := e.catalog.SetStock(p.ID, counted); err != nil {
		return catalog.Product{}, err
	}

	if err := e.catalog.SetBaseline(p.ID, counted, e.ledger.LastSeq(), &now); err != nil {
		return catalog.Product{}, err
	}
	return e.catalog.Get(p.ID)
}

// RemoveProduct deletes a product. Its ledger history is kept.
func (e *Engine) RemoveProduct(ctx context.Context, id uuid.UUID) error {
	err := e.execute(ctx, "remove_product", func(now time.Time) ([]shared.DomainEvent, error) {
		p, err := e.catalog.Get(id)
		if err != nil {
			return nil, err
		}
		if err := e.catalog.Remove(id); err != nil {
			return nil, err
		}
		return []shared.DomainEvent{catalog.NewProductRemovedEvent(p, now)}, nil
	})
	if err != nil {
		return err
	}
	e.logger.Info("product removed", zap.String("product_id", id.String()))
	return nil
}

// Product returns a copy of one product
func (e *Engine) Product(id uuid.UUID) (catalog.Product, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.Get(id)
}

// Products yields the current products in catalog order.
// Each iteration reads a fresh copy of the catalog.
func (e *Engine) Products() iter.Seq[catalog.Product] {
	return func(yield func(catalog.Product) bool) {
		for _, p := range e.productSlice() {
			if !yield(p) {
				return
			}
		}
	}
}

func (e *Engine) productSlice() []catalog.Product {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]catalog.Product, 0, e.catalog.Len())
	for p := range e.catalog.List() {
		out = append(out, p)
	}
	return out
}

// Transactions yields the ledger most-recent-first.
// Each iteration reads a fresh copy of the ledger.
func (e *Engine) Transactions() iter.Seq[ledger.Transaction] {
	return func(yield func(ledger.Transaction) bool) {
		for _, tx := range e.transactionSlice() {
			if !yield(tx) {
				return
			}
		}
	}
}

func (e *Engine) transactionSlice() []ledger.Transaction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]ledger.Transaction, 0, e.ledger.Len())
	for tx := range e.ledger.List() {
		out = append(out, tx)
	}
	return out
}

// ProductTransactions returns the ledger entries of one product, most-recent-first.
// Removed products keep their history.
func (e *Engine) ProductTransactions(id uuid.UUID) []ledger.Transaction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]ledger.Transaction, 0)
	for tx := range e.ledger.ForProduct(id) {
		out = append(out, tx)
	}
	return out
}

// RecentTransactions returns the n most recent ledger entries
func (e *Engine) RecentTransactions(n int) []ledger.Transaction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Recent(n)
}

// TransactionCount returns the number of ledger entries
func (e *Engine) TransactionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Len()
}

// Version increases on every committed mutation and on Restore
func (e *Engine) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}
