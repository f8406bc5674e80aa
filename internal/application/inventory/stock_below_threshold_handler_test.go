package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// MockStockAlertNotifier is a mock notifier for testing
type MockStockAlertNotifier struct {
	mu     sync.Mutex
	alerts []StockAlert
	err    error
}

func NewMockStockAlertNotifier() *MockStockAlertNotifier {
	return &MockStockAlertNotifier{
		alerts: make([]StockAlert, 0),
	}
}

func (n *MockStockAlertNotifier) SendAlert(ctx context.Context, alert StockAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return n.err
}

func (n *MockStockAlertNotifier) GetAlerts() []StockAlert {
	n.mu.Lock()
	defer n.mu.Unlock()
	result := make([]StockAlert, len(n.alerts))
	copy(result, n.alerts)
	return result
}

func (n *MockStockAlertNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = make([]StockAlert, 0)
	n.err = nil
}

func TestStockBelowThresholdHandler_Handle(t *testing.T) {
	logger := zaptest.NewLogger(t)
	notifier := NewMockStockAlertNotifier()

	handler := NewStockBelowThresholdHandler(logger).
		WithNotifier(notifier)

	product := catalog.Product{Name: "Bread", Stock: 5}
	product.ID = uuid.New()
	now := time.Now()

	t.Run("handles low stock event", func(t *testing.T) {
		notifier.Reset()

		err := handler.Handle(context.Background(), catalog.NewStockBelowThresholdEvent(product, 10, now))
		require.NoError(t, err)

		alerts := notifier.GetAlerts()
		require.Len(t, alerts, 1)
		assert.Equal(t, AlertTypeLowStock, alerts[0].AlertType)
		assert.Equal(t, product.ID.String(), alerts[0].ProductID)
		assert.Equal(t, "Bread", alerts[0].ProductName)
		assert.Equal(t, int64(5), alerts[0].CurrentStock)
		assert.Equal(t, int64(10), alerts[0].Threshold)
	})

	t.Run("handles out of stock event", func(t *testing.T) {
		notifier.Reset()
		empty := product
		empty.Stock = 0

		err := handler.Handle(context.Background(), catalog.NewStockBelowThresholdEvent(empty, 10, now))
		require.NoError(t, err)

		alerts := notifier.GetAlerts()
		require.Len(t, alerts, 1)
		assert.Equal(t, AlertTypeOutOfStock, alerts[0].AlertType)
	})

	t.Run("notifier failure does not fail handling", func(t *testing.T) {
		notifier.Reset()
		notifier.err = errors.New("smtp down")

		err := handler.Handle(context.Background(), catalog.NewStockBelowThresholdEvent(product, 10, now))
		assert.NoError(t, err)
	})

	t.Run("returns error for wrong event type", func(t *testing.T) {
		wrongEvent := catalog.NewProductAddedEvent(catalog.Product{UnitPrice: decimal.Zero}, now)

		err := handler.Handle(context.Background(), wrongEvent)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected event type")
	})
}

func TestStockBelowThresholdHandler_EventTypes(t *testing.T) {
	handler := NewStockBelowThresholdHandler(zap.NewNop())

	eventTypes := handler.EventTypes()
	assert.Len(t, eventTypes, 1)
	assert.Equal(t, catalog.EventTypeStockBelowThreshold, eventTypes[0])
}

func TestLoggingStockAlertNotifier_SendAlert(t *testing.T) {
	logger := zaptest.NewLogger(t)
	notifier := NewLoggingStockAlertNotifier(logger)

	alert := StockAlert{
		ProductID:    uuid.New().String(),
		ProductName:  "Milk",
		CurrentStock: 3,
		Threshold:    10,
		AlertType:    AlertTypeLowStock,
	}

	err := notifier.SendAlert(context.Background(), alert)
	assert.NoError(t, err)
}
