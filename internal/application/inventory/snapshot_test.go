package inventory

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/mystock/warehouse/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockSnapshotStore is a mock implementation of SnapshotStore
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Load(ctx context.Context) (Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(Snapshot), args.Error(1)
}

func (m *MockSnapshotStore) Save(ctx context.Context, snapshot Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func populatedEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()
	e, _ := newTestEngine(t)
	p := addBread(t, e)
	_, err := e.Issue(ctx, StockMovementCommand{ProductID: p.ID, Quantity: 20})
	require.NoError(t, err)
	_, err = e.ReconcileAudit(ctx, AuditCommand{ProductID: p.ID, CountedStock: 33})
	require.NoError(t, err)
	_, err = e.Receive(ctx, StockMovementCommand{ProductID: p.ID, Quantity: 4})
	require.NoError(t, err)
	return e
}

func TestEngine_SnapshotRestore(t *testing.T) {
	t.Run("round trip keeps state", func(t *testing.T) {
		src := populatedEngine(t)
		snap := src.Snapshot()

		dst, _ := newTestEngine(t)
		require.NoError(t, dst.Restore(snap))

		assert.Equal(t, slices.Collect(src.Products()), slices.Collect(dst.Products()))
		assert.Equal(t, slices.Collect(src.Transactions()), slices.Collect(dst.Transactions()))
		assert.NoError(t, dst.VerifyConsistency())
	})

	t.Run("snapshot transactions are chronological", func(t *testing.T) {
		snap := populatedEngine(t).Snapshot()

		require.Len(t, snap.Transactions, 2)
		assert.Equal(t, ledger.TransactionTypeIssue, snap.Transactions[0].Type)
		assert.Equal(t, ledger.TransactionTypeReceipt, snap.Transactions[1].Type)
	})

	t.Run("rejects state that does not reconcile", func(t *testing.T) {
		snap := populatedEngine(t).Snapshot()
		snap.Products[0].Stock += 1

		dst, _ := newTestEngine(t)
		existing := addBread(t, dst)
		err := dst.Restore(snap)

		assert.True(t, errors.Is(err, ErrInconsistentState))
		got, gerr := dst.Product(existing.ID)
		require.NoError(t, gerr)
		assert.Equal(t, existing.ID, got.ID)
	})

	t.Run("rejects negative stock", func(t *testing.T) {
		snap := populatedEngine(t).Snapshot()
		snap.Products[0].Stock = -1

		dst, _ := newTestEngine(t)
		assert.Error(t, dst.Restore(snap))
	})
}

func TestEngine_ConsistencyReport(t *testing.T) {
	e := populatedEngine(t)

	rep := e.ConsistencyReport()

	assert.True(t, rep.Consistent)
	assert.Equal(t, 1, rep.ProductsChecked)
	assert.Empty(t, rep.Issues)
}

func TestLoadState(t *testing.T) {
	ctx := context.Background()

	t.Run("restores stored snapshot", func(t *testing.T) {
		snap := populatedEngine(t).Snapshot()
		store := new(MockSnapshotStore)
		store.On("Load", ctx).Return(snap, nil)
		e, _ := newTestEngine(t)

		loaded := LoadState(ctx, store, e, zaptest.NewLogger(t))

		assert.True(t, loaded)
		assert.Len(t, slices.Collect(e.Products()), 1)
		store.AssertExpectations(t)
	})

	t.Run("missing state starts empty", func(t *testing.T) {
		store := new(MockSnapshotStore)
		store.On("Load", ctx).Return(Snapshot{}, ErrSnapshotNotFound)
		e, _ := newTestEngine(t)

		assert.False(t, LoadState(ctx, store, e, zaptest.NewLogger(t)))
		assert.Empty(t, slices.Collect(e.Products()))
	})

	t.Run("unreadable state starts empty", func(t *testing.T) {
		store := new(MockSnapshotStore)
		store.On("Load", ctx).Return(Snapshot{}, errors.New("unexpected end of JSON input"))
		e, _ := newTestEngine(t)

		assert.False(t, LoadState(ctx, store, e, zaptest.NewLogger(t)))
		assert.Empty(t, slices.Collect(e.Products()))
	})

	t.Run("invalid state starts empty", func(t *testing.T) {
		snap := populatedEngine(t).Snapshot()
		snap.Transactions[0].Quantity = 0
		store := new(MockSnapshotStore)
		store.On("Load", ctx).Return(snap, nil)
		e, _ := newTestEngine(t)

		assert.False(t, LoadState(ctx, store, e, zaptest.NewLogger(t)))
		assert.Empty(t, slices.Collect(e.Products()))
		assert.Empty(t, slices.Collect(e.Transactions()))
	})
}

func TestSnapshotPersister(t *testing.T) {
	ctx := context.Background()

	t.Run("saves once per version", func(t *testing.T) {
		e, _ := newTestEngine(t)
		store := new(MockSnapshotStore)
		store.On("Save", ctx, mock.AnythingOfType("inventory.Snapshot")).Return(nil)
		persister := NewSnapshotPersister(e, store, zaptest.NewLogger(t))

		_, err := e.AddProduct(ctx, AddProductCommand{Name: "Tea", Category: "Drinks", UnitPrice: decimal.NewFromInt(3), InitialStock: 20})
		require.NoError(t, err)
		event := catalog.NewProductAddedEvent(catalog.Product{}, testNow)

		require.NoError(t, persister.Handle(ctx, event))
		require.NoError(t, persister.Handle(ctx, event))

		store.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("flush always saves", func(t *testing.T) {
		e, _ := newTestEngine(t)
		store := new(MockSnapshotStore)
		store.On("Save", ctx, mock.Anything).Return(nil)
		persister := NewSnapshotPersister(e, store, zaptest.NewLogger(t))

		require.NoError(t, persister.Flush(ctx))
		require.NoError(t, persister.Flush(ctx))

		store.AssertNumberOfCalls(t, "Save", 2)
	})

	t.Run("save failure is returned", func(t *testing.T) {
		e, _ := newTestEngine(t)
		store := new(MockSnapshotStore)
		store.On("Save", ctx, mock.Anything).Return(errors.New("disk full"))
		persister := NewSnapshotPersister(e, store, zaptest.NewLogger(t))

		err := persister.Handle(ctx, catalog.NewProductAddedEvent(catalog.Product{}, testNow))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})
}
