package ledger

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mystock/warehouse/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestLedger() *Ledger {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func TestTransactionType(t *testing.T) {
	assert.True(t, TransactionTypeReceipt.IsValid())
	assert.True(t, TransactionTypeAdjustmentDecrease.IsValid())
	assert.False(t, TransactionType("TRANSFER").IsValid())

	assert.Equal(t, int64(1), TransactionTypeReceipt.Sign())
	assert.Equal(t, int64(1), TransactionTypeAdjustmentIncrease.Sign())
	assert.Equal(t, int64(-1), TransactionTypeIssue.Sign())
	assert.Equal(t, int64(-1), TransactionTypeAdjustmentDecrease.Sign())

	assert.True(t, TransactionTypeAdjustmentIncrease.IsAdjustment())
	assert.False(t, TransactionTypeReceipt.IsAdjustment())
}

func TestLedger_Append(t *testing.T) {
	productID := uuid.New()

	t.Run("captures total value at creation", func(t *testing.T) {
		l := newTestLedger()

		tx, err := l.Append(productID, "Bread", TransactionTypeIssue, 20, decimal.NewFromInt(1000))

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, tx.ID)
		assert.Equal(t, uint64(1), tx.Seq)
		assert.Equal(t, "Bread", tx.ProductName)
		assert.Equal(t, TransactionTypeIssue, tx.Type)
		assert.Equal(t, int64(20), tx.Quantity)
		assert.True(t, decimal.NewFromInt(20000).Equal(tx.TotalValue))
		assert.Equal(t, fixedNow, tx.Timestamp)
		assert.Equal(t, 1, l.Len())
	})

	t.Run("assigns increasing sequence numbers", func(t *testing.T) {
		l := newTestLedger()
		for i := 1; i <= 3; i++ {
			tx, err := l.Append(productID, "Bread", TransactionTypeReceipt, 1, decimal.Zero)
			require.NoError(t, err)
			assert.Equal(t, uint64(i), tx.Seq)
		}
		assert.Equal(t, uint64(3), l.LastSeq())
	})

	tests := []struct {
		name     string
		quantity int64
		txType   TransactionType
	}{
		{"zero quantity", 0, TransactionTypeReceipt},
		{"negative quantity", -5, TransactionTypeIssue},
		{"unknown type", 1, TransactionType("LOCK")},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			l := newTestLedger()

			_, err := l.Append(productID, "Bread", tt.txType, tt.quantity, decimal.NewFromInt(1))

			assert.True(t, errors.Is(err, shared.ErrValidation))
			assert.Equal(t, 0, l.Len())
		})
	}
}

func TestLedger_PrepareCommit(t *testing.T) {
	productID := uuid.New()

	t.Run("prepare does not record", func(t *testing.T) {
		l := newTestLedger()

		tx, err := l.Prepare(Entry{ProductID: productID, Type: TransactionTypeReceipt, Quantity: 2, UnitPrice: decimal.NewFromInt(3), BalanceBefore: 1, BalanceAfter: 3})

		require.NoError(t, err)
		assert.Equal(t, 0, l.Len())
		assert.Equal(t, int64(3), tx.BalanceAfter)

		require.NoError(t, l.Commit(tx))
		assert.Equal(t, 1, l.Len())
	})

	t.Run("stale prepared transaction is rejected", func(t *testing.T) {
		l := newTestLedger()
		first, err := l.Prepare(Entry{ProductID: productID, Type: TransactionTypeReceipt, Quantity: 1})
		require.NoError(t, err)
		second, err := l.Prepare(Entry{ProductID: productID, Type: TransactionTypeReceipt, Quantity: 1})
		require.NoError(t, err)

		require.NoError(t, l.Commit(first))
		err = l.Commit(second)

		assert.True(t, errors.Is(err, shared.ErrValidation))
		assert.Equal(t, 1, l.Len())
	})
}

func TestLedger_Order(t *testing.T) {
	l := newTestLedger()
	productID := uuid.New()
	for _, q := range []int64{1, 2, 3, 4} {
		_, err := l.Append(productID, "P", TransactionTypeReceipt, q, decimal.Zero)
		require.NoError(t, err)
	}

	quantities := func(txs []Transaction) []int64 {
		out := make([]int64, 0, len(txs))
		for _, tx := range txs {
			out = append(out, tx.Quantity)
		}
		return out
	}

	t.Run("list is most recent first", func(t *testing.T) {
		assert.Equal(t, []int64{4, 3, 2, 1}, quantities(slices.Collect(l.List())))
	})

	t.Run("chronological keeps insertion order", func(t *testing.T) {
		assert.Equal(t, []int64{1, 2, 3, 4}, quantities(slices.Collect(l.Chronological())))
	})

	t.Run("list is restartable", func(t *testing.T) {
		assert.Equal(t, slices.Collect(l.List()), slices.Collect(l.List()))
	})

	t.Run("recent", func(t *testing.T) {
		assert.Equal(t, []int64{4, 3}, quantities(l.Recent(2)))
		assert.Len(t, l.Recent(10), 4)
		assert.Empty(t, l.Recent(0))
		assert.Empty(t, l.Recent(-1))
	})
}

func TestLedger_SignedQuantitySince(t *testing.T) {
	l := newTestLedger()
	bread := uuid.New()
	milk := uuid.New()

	_, _ = l.Append(bread, "Bread", TransactionTypeIssue, 20, decimal.Zero)
	_, _ = l.Append(milk, "Milk", TransactionTypeReceipt, 7, decimal.Zero)
	_, _ = l.Append(bread, "Bread", TransactionTypeReceipt, 5, decimal.Zero)
	_, _ = l.Append(bread, "Bread", TransactionTypeAdjustmentDecrease, 2, decimal.Zero)

	assert.Equal(t, int64(-17), l.SignedQuantitySince(bread, 0))
	assert.Equal(t, int64(3), l.SignedQuantitySince(bread, 1))
	assert.Equal(t, int64(0), l.SignedQuantitySince(bread, 4))
	assert.Equal(t, int64(7), l.SignedQuantitySince(milk, 0))

	assert.Len(t, slices.Collect(l.ForProduct(bread)), 3)
}

func TestLedger_Restore(t *testing.T) {
	src := newTestLedger()
	productID := uuid.New()
	a, _ := src.Append(productID, "P", TransactionTypeReceipt, 1, decimal.Zero)
	b, _ := src.Append(productID, "P", TransactionTypeIssue, 1, decimal.Zero)

	t.Run("accepts most recent first input", func(t *testing.T) {
		l := newTestLedger()

		require.NoError(t, l.Restore([]Transaction{b, a}))

		assert.Equal(t, []Transaction{a, b}, slices.Collect(l.Chronological()))
		next, err := l.Append(productID, "P", TransactionTypeReceipt, 1, decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), next.Seq)
	})

	t.Run("rejects duplicate sequence", func(t *testing.T) {
		l := newTestLedger()
		dup := b
		dup.ID = uuid.New()
		dup.Seq = a.Seq

		err := l.Restore([]Transaction{a, dup})

		assert.True(t, errors.Is(err, shared.ErrValidation))
		assert.Equal(t, 0, l.Len())
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		bad := a
		bad.Quantity = 0
		err := newTestLedger().Restore([]Transaction{bad})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("rejects a total value that lost precision", func(t *testing.T) {
		l := newTestLedger()
		priced, err := l.Append(productID, "P", TransactionTypeReceipt, 3, decimal.RequireFromString("12345678901234.56789"))
		require.NoError(t, err)
		rounded := priced
		rounded.TotalValue = priced.TotalValue.Round(2)

		err = newTestLedger().Restore([]Transaction{rounded})

		assert.True(t, errors.Is(err, shared.ErrValidation))
		require.NoError(t, newTestLedger().Restore([]Transaction{priced}))
	})
}
