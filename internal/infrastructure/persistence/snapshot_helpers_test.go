package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/mystock/warehouse/internal/application/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var snapshotNow = time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)

// sampleSnapshot runs a short session through a real engine: two products,
// movements on both, an audit and a removal.
func sampleSnapshot(t *testing.T) inventory.Snapshot {
	t.Helper()
	ctx := context.Background()
	e := inventory.NewEngine(
		inventory.WithClock(func() time.Time { return snapshotNow }),
		inventory.WithAuditAdjustments(true),
	)

	bread, err := e.AddProduct(ctx, inventory.AddProductCommand{
		Name: "Bread", Category: "Food", UnitPrice: decimal.NewFromInt(1000), InitialStock: 50,
	})
	require.NoError(t, err)
	milk, err := e.AddProduct(ctx, inventory.AddProductCommand{
		Name: "Milk", Category: "Dairy", UnitPrice: decimal.RequireFromString("2.35"), InitialStock: 4,
	})
	require.NoError(t, err)
	salt, err := e.AddProduct(ctx, inventory.AddProductCommand{
		Name: "Salt", Category: "Food", UnitPrice: decimal.RequireFromString("0.99"), InitialStock: 1,
	})
	require.NoError(t, err)

	_, err = e.Issue(ctx, inventory.StockMovementCommand{ProductID: bread.ID, Quantity: 20})
	require.NoError(t, err)
	_, err = e.Receive(ctx, inventory.StockMovementCommand{ProductID: milk.ID, Quantity: 6})
	require.NoError(t, err)
	_, err = e.ReconcileAudit(ctx, inventory.AuditCommand{ProductID: bread.ID, CountedStock: 28})
	require.NoError(t, err)
	_, err = e.Receive(ctx, inventory.StockMovementCommand{ProductID: salt.ID, Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, e.RemoveProduct(ctx, salt.ID))

	return e.Snapshot()
}

// assertRestores checks that a loaded snapshot matches the saved one and
// restores into a consistent engine
func assertRestores(t *testing.T, want, got inventory.Snapshot) {
	t.Helper()

	assert.Equal(t, want.Version, got.Version)
	assert.True(t, want.TakenAt.Equal(got.TakenAt))

	require.Len(t, got.Products, len(want.Products))
	for i, w := range want.Products {
		g := got.Products[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Name, g.Name)
		assert.Equal(t, w.Category, g.Category)
		assert.True(t, w.UnitPrice.Equal(g.UnitPrice), "unit price %s != %s", w.UnitPrice, g.UnitPrice)
		assert.Equal(t, w.Stock, g.Stock)
		assert.Equal(t, w.BaselineStock, g.BaselineStock)
		assert.Equal(t, w.BaselineSeq, g.BaselineSeq)
		assert.Equal(t, w.LastAuditedAt == nil, g.LastAuditedAt == nil)
	}

	require.Len(t, got.Transactions, len(want.Transactions))
	for i, w := range want.Transactions {
		g := got.Transactions[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Seq, g.Seq)
		assert.Equal(t, w.ProductID, g.ProductID)
		assert.Equal(t, w.Type, g.Type)
		assert.Equal(t, w.Quantity, g.Quantity)
		assert.True(t, w.TotalValue.Equal(g.TotalValue))
		assert.Equal(t, w.BalanceAfter, g.BalanceAfter)
		assert.True(t, w.Timestamp.Equal(g.Timestamp))
		assert.Equal(t, w.Reason, g.Reason)
	}

	restored := inventory.NewEngine()
	require.NoError(t, restored.Restore(got))
	assert.NoError(t, restored.VerifyConsistency())
}
