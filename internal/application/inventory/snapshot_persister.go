package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/mystock/warehouse/internal/domain/shared"
	"go.uber.org/zap"
)

// SnapshotSource provides consistent copies of the engine state
type SnapshotSource interface {
	Snapshot() Snapshot
}

// SnapshotPersister saves the combined catalog and ledger snapshot after
// every committed command. Snapshots that are not newer than the last saved
// one are skipped, so a command raising several events is saved once.
type SnapshotPersister struct {
	source SnapshotSource
	store  SnapshotStore
	logger *zap.Logger

	mu        sync.Mutex
	saved     bool
	lastSaved uint64
}

// NewSnapshotPersister creates a persister for the given engine and store
func NewSnapshotPersister(source SnapshotSource, store SnapshotStore, logger *zap.Logger) *SnapshotPersister {
	return &SnapshotPersister{
		source: source,
		store:  store,
		logger: logger,
	}
}

// EventTypes returns the event types emitted by committed commands
func (p *SnapshotPersister) EventTypes() []string {
	return []string{
		catalog.EventTypeProductAdded,
		catalog.EventTypeProductRemoved,
		catalog.EventTypeStockReceived,
		catalog.EventTypeStockIssued,
		catalog.EventTypeStockAudited,
	}
}

// Handle saves the current snapshot
func (p *SnapshotPersister) Handle(ctx context.Context, event shared.DomainEvent) error {
	return p.save(ctx, false)
}

// Flush saves the current snapshot even when it was already saved
func (p *SnapshotPersister) Flush(ctx context.Context) error {
	return p.save(ctx, true)
}

func (p *SnapshotPersister) save(ctx context.Context, force bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := p.source.Snapshot()
	if !force && p.saved && snapshot.Version <= p.lastSaved {
		return nil
	}
	if err := p.store.Save(ctx, snapshot); err != nil {
		p.logger.Error("failed to persist inventory snapshot",
			zap.Uint64("version", snapshot.Version),
			zap.Error(err),
		)
		return fmt.Errorf("save snapshot: %w", err)
	}
	p.saved = true
	p.lastSaved = snapshot.Version
	p.logger.Debug("inventory snapshot persisted",
		zap.Uint64("version", snapshot.Version),
		zap.Int("products", len(snapshot.Products)),
		zap.Int("transactions", len(snapshot.Transactions)),
	)
	return nil
}

var _ shared.EventHandler = (*SnapshotPersister)(nil)
