package ledger

import (
	"iter"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/mystock/warehouse/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Entry is the input for a new ledger transaction
type Entry struct {
	ProductID     uuid.UUID
	ProductName   string
	Type          TransactionType
	Quantity      int64
	UnitPrice     decimal.Decimal
	BalanceBefore int64
	BalanceAfter  int64
	Reason        string
}

// Ledger is an append-only sequence of transactions kept in chronological order.
// Display order (List) is most-recent-first.
// It is not safe for concurrent use; the inventory engine serializes access.
type Ledger struct {
	entries []Transaction
	ids     map[uuid.UUID]struct{}
	clock   shared.Clock
}

// Option configures a Ledger
type Option func(*Ledger)

// WithClock sets the clock used for transaction timestamps
func WithClock(clock shared.Clock) Option {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// New creates an empty ledger
func New(opts ...Option) *Ledger {
	l := &Ledger{
		entries: make([]Transaction, 0),
		ids:     make(map[uuid.UUID]struct{}),
		clock:   shared.SystemClock,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records a movement without balance information
func (l *Ledger) Append(productID uuid.UUID, productName string, txType TransactionType, quantity int64, unitPrice decimal.Decimal) (Transaction, error) {
	return l.AppendEntry(Entry{
		ProductID:   productID,
		ProductName: productName,
		Type:        txType,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	})
}

// AppendEntry validates and records a movement
func (l *Ledger) AppendEntry(e Entry) (Transaction, error) {
	tx, err := l.Prepare(e)
	if err != nil {
		return Transaction{}, err
	}
	if err := l.Commit(tx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Prepare builds the next transaction without recording it.
// The result must be passed to Commit before any other append.
func (l *Ledger) Prepare(e Entry) (Transaction, error) {
	if e.ProductID == uuid.Nil {
		return Transaction{}, shared.NewValidationError("Product ID is required")
	}
	if !e.Type.IsValid() {
		return Transaction{}, shared.NewValidationError("Invalid transaction type %q", e.Type)
	}
	if e.Quantity <= 0 {
		return Transaction{}, shared.NewValidationError("Quantity must be a positive integer, got %d", e.Quantity)
	}
	if e.UnitPrice.IsNegative() {
		return Transaction{}, shared.NewValidationError("Unit price cannot be negative")
	}

	id := uuid.New()
	for l.hasID(id) {
		id = uuid.New()
	}
	return Transaction{
		ID:            id,
		Seq:           l.LastSeq() + 1,
		ProductID:     e.ProductID,
		ProductName:   strings.TrimSpace(e.ProductName),
		Type:          e.Type,
		Quantity:      e.Quantity,
		UnitPrice:     e.UnitPrice,
		TotalValue:    e.UnitPrice.Mul(decimal.NewFromInt(e.Quantity)),
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		Timestamp:     l.clock(),
		Reason:        e.Reason,
	}, nil
}

// Commit appends a prepared transaction. It fails if another transaction
// was committed since Prepare.
func (l *Ledger) Commit(tx Transaction) error {
	if tx.Seq != l.LastSeq()+1 {
		return shared.NewValidationError("Transaction sequence %d is stale, ledger is at %d", tx.Seq, l.LastSeq())
	}
	if l.hasID(tx.ID) {
		return shared.NewValidationError("Duplicate transaction ID %s", tx.ID)
	}
	l.entries = append(l.entries, tx)
	l.ids[tx.ID] = struct{}{}
	return nil
}

// List yields transactions most-recent-first
func (l *Ledger) List() iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		for i := len(l.entries) - 1; i >= 0; i-- {
			if !yield(l.entries[i]) {
				return
			}
		}
	}
}

// Chronological yields transactions in insertion order
func (l *Ledger) Chronological() iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		for _, tx := range l.entries {
			if !yield(tx) {
				return
			}
		}
	}
}

// Recent returns the first n transactions of List
func (l *Ledger) Recent(n int) []Transaction {
	if n <= 0 {
		return []Transaction{}
	}
	n = min(n, len(l.entries))
	out := make([]Transaction, 0, n)
	for tx := range l.List() {
		if len(out) == n {
			break
		}
		out = append(out, tx)
	}
	return out
}

// ForProduct yields the transactions of one product, most-recent-first
func (l *Ledger) ForProduct(productID uuid.UUID) iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		for tx := range l.List() {
			if tx.ProductID != productID {
				continue
			}
			if !yield(tx) {
				return
			}
		}
	}
}

// SignedQuantitySince sums the signed quantities of a product's transactions after seq
func (l *Ledger) SignedQuantitySince(productID uuid.UUID, seq uint64) int64 {
	var sum int64
	for _, tx := range l.entries {
		if tx.ProductID == productID && tx.Seq > seq {
			sum += tx.SignedQuantity()
		}
	}
	return sum
}

// Len returns the number of transactions
func (l *Ledger) Len() int {
	return len(l.entries)
}

// LastSeq returns the sequence number of the newest transaction, 0 when empty
func (l *Ledger) LastSeq() uint64 {
	if len(l.entries) == 0 {
		return 0
	}
	return l.entries[len(l.entries)-1].Seq
}

// Restore replaces the ledger content. Transactions may come in any order;
// they are sorted by sequence. The ledger is left untouched on error.
func (l *Ledger) Restore(transactions []Transaction) error {
	entries := slices.Clone(transactions)
	slices.SortFunc(entries, func(a, b Transaction) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})

	ids := make(map[uuid.UUID]struct{}, len(entries))
	var prev uint64
	for _, tx := range entries {
		if err := tx.Validate(); err != nil {
			return err
		}
		if tx.Seq == prev {
			return shared.NewValidationError("Duplicate transaction sequence %d", tx.Seq)
		}
		if _, dup := ids[tx.ID]; dup {
			return shared.NewValidationError("Duplicate transaction ID %s", tx.ID)
		}
		ids[tx.ID] = struct{}{}
		prev = tx.Seq
	}
	if entries == nil {
		entries = make([]Transaction, 0)
	}
	l.entries = entries
	l.ids = ids
	return nil
}

func (l *Ledger) hasID(id uuid.UUID) bool {
	_, ok := l.ids[id]
	return ok
}
