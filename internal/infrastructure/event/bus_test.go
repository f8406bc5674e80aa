package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mystock/warehouse/internal/application/inventory"
	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/mystock/warehouse/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingHandler struct {
	eventTypes []string
	err        error
	panics     bool

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *recordingHandler) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.handled))
	for _, e := range h.handled {
		out = append(out, e.EventType())
	}
	return out
}

func testEvents() (*catalog.ProductAddedEvent, *catalog.StockMovedEvent) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	p, _ := catalog.NewProduct("Bread", "Food", decimal.NewFromInt(2), 5, now)
	return catalog.NewProductAddedEvent(*p, now),
		catalog.NewStockReceivedEvent(p.ID, uuid.New(), 3, 5, 8, now)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()
	added, received := testEvents()

	t.Run("routes by event type", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		stock := &recordingHandler{eventTypes: []string{catalog.EventTypeStockReceived}}
		all := &recordingHandler{}
		bus.Subscribe(stock)
		bus.Subscribe(all)

		require.NoError(t, bus.Publish(ctx, added, received))

		assert.Equal(t, []string{catalog.EventTypeStockReceived}, stock.types())
		assert.Equal(t, []string{catalog.EventTypeProductAdded, catalog.EventTypeStockReceived}, all.types())
	})

	t.Run("explicit event types override the handler's", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		h := &recordingHandler{eventTypes: []string{catalog.EventTypeStockReceived}}
		bus.Subscribe(h, catalog.EventTypeProductAdded)

		require.NoError(t, bus.Publish(ctx, added, received))

		assert.Equal(t, []string{catalog.EventTypeProductAdded}, h.types())
	})

	t.Run("failing and panicking handlers do not stop delivery", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		bus := NewInMemoryEventBus(zap.New(core))
		failing := &recordingHandler{err: errors.New("disk full")}
		panicking := &recordingHandler{panics: true}
		healthy := &recordingHandler{}
		bus.Subscribe(failing)
		bus.Subscribe(panicking)
		bus.Subscribe(healthy)

		require.NoError(t, bus.Publish(ctx, received))

		assert.Len(t, healthy.types(), 1)
		assert.Equal(t, uint64(2), bus.Failures())
		assert.Equal(t, 2, logs.FilterMessage("handler failed to process event").Len())
	})

	t.Run("unsubscribed handler stops receiving", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		h := &recordingHandler{}
		bus.Subscribe(h)
		bus.Unsubscribe(h)

		require.NoError(t, bus.Publish(ctx, added))

		assert.Empty(t, h.types())
	})

	t.Run("stopped bus rejects events", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		require.NoError(t, bus.Start(ctx))
		require.NoError(t, bus.Stop(ctx))

		assert.ErrorIs(t, bus.Publish(ctx, added), ErrBusStopped)

		require.NoError(t, bus.Start(ctx))
		assert.NoError(t, bus.Publish(ctx, added))
	})
}

func TestInMemoryEventBus_CarriesEngineEvents(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{eventTypes: []string{catalog.EventTypeProductAdded, catalog.EventTypeStockIssued}}
	bus.Subscribe(h)
	e := inventory.NewEngine(inventory.WithEventPublisher(bus))

	p, err := e.AddProduct(ctx, inventory.AddProductCommand{Name: "Bread", Category: "Food", UnitPrice: decimal.NewFromInt(2), InitialStock: 20})
	require.NoError(t, err)
	_, err = e.Receive(ctx, inventory.StockMovementCommand{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = e.Issue(ctx, inventory.StockMovementCommand{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{catalog.EventTypeProductAdded, catalog.EventTypeStockIssued}, h.types())

	require.NoError(t, bus.Stop(ctx))
	_, err = e.Issue(ctx, inventory.StockMovementCommand{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	got, _ := e.Product(p.ID)
	assert.Equal(t, int64(18), got.Stock)
	assert.Len(t, h.types(), 2)
}

func TestHandlerRegistry(t *testing.T) {
	r := NewHandlerRegistry()
	a := &recordingHandler{}
	b := &recordingHandler{}

	r.Register(a, catalog.EventTypeStockIssued, catalog.EventTypeStockReceived)
	r.Register(a, catalog.EventTypeStockIssued)
	r.Register(b)

	issued := r.GetHandlers(catalog.EventTypeStockIssued)
	require.Len(t, issued, 2)
	assert.Same(t, a, issued[0])
	assert.Same(t, b, issued[1])
	assert.Equal(t, 2, r.Len())

	r.Unregister(a)
	assert.Len(t, r.GetHandlers(catalog.EventTypeStockIssued), 1)
	assert.Len(t, r.GetHandlers(catalog.EventTypeStockReceived), 1)
	assert.Equal(t, 1, r.Len())
}
