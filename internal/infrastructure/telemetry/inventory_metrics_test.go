package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/mystock/warehouse/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

type fixedLevels struct {
	stock int64
	value decimal.Decimal
	low   []catalog.Product
}

func (f fixedLevels) TotalStock() int64                  { return f.stock }
func (f fixedLevels) TotalValue() decimal.Decimal        { return f.value }
func (f fixedLevels) LowStockDefault() []catalog.Product { return f.low }

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumInt64(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewInventoryMetrics_NilMeter(t *testing.T) {
	m, err := NewInventoryMetrics(nil, nil, zap.NewNop())

	require.ErrorIs(t, err, ErrMeterNil)
	assert.Nil(t, m)
}

func TestInventoryMetrics_NoopMeter(t *testing.T) {
	m, err := NewInventoryMetrics(noop.NewMeterProvider().Meter("test"), fixedLevels{}, nil)
	require.NoError(t, err)

	at := time.Now()
	id := uuid.New()
	require.NoError(t, m.Handle(context.Background(), catalog.NewStockIssuedEvent(id, uuid.New(), 3, 10, 7, at)))
	assert.NoError(t, m.Close())
}

func TestInventoryMetrics_Handle(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	m, err := NewInventoryMetrics(provider.Meter("test"), nil, zap.NewNop())
	require.NoError(t, err)

	at := time.Now()
	id := uuid.New()
	product := catalog.Product{Name: "Bread", Stock: 3}
	product.ID = id

	events := []shared.DomainEvent{
		catalog.NewProductAddedEvent(product, at),
		catalog.NewStockReceivedEvent(id, uuid.New(), 5, 50, 55, at),
		catalog.NewStockIssuedEvent(id, uuid.New(), 20, 55, 35, at),
		catalog.NewStockAuditedEvent(id, 35, 40, at),
		catalog.NewStockBelowThresholdEvent(product, 10, at),
		catalog.NewProductRemovedEvent(product, at),
	}
	for _, e := range events {
		require.NoError(t, m.Handle(ctx, e))
	}

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumInt64(t, data["warehouse_stock_movements_total"]))
	assert.Equal(t, int64(25), sumInt64(t, data["warehouse_stock_units_moved_total"]))
	assert.Equal(t, int64(1), sumInt64(t, data["warehouse_stock_audits_total"]))
	assert.Equal(t, int64(1), sumInt64(t, data["warehouse_products_added_total"]))
	assert.Equal(t, int64(1), sumInt64(t, data["warehouse_products_removed_total"]))
	assert.Equal(t, int64(1), sumInt64(t, data["warehouse_low_stock_alerts_total"]))

	drift, ok := data["warehouse_stock_audit_difference"].(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, drift.DataPoints, 1)
	assert.Equal(t, int64(5), drift.DataPoints[0].Sum)
}

func TestInventoryMetrics_ObservesStockLevels(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	levels := fixedLevels{
		stock: 64,
		value: decimal.RequireFromString("50019.9"),
		low:   []catalog.Product{{Name: "Milk"}},
	}
	m, err := NewInventoryMetrics(provider.Meter("test"), levels, zap.NewNop())
	require.NoError(t, err)

	data := collect(t, reader)

	units, ok := data["warehouse_stock_units"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, units.DataPoints, 1)
	assert.Equal(t, int64(64), units.DataPoints[0].Value)

	value, ok := data["warehouse_stock_value"].(metricdata.Gauge[float64])
	require.True(t, ok)
	assert.InDelta(t, 50019.9, value.DataPoints[0].Value, 0.001)

	low, ok := data["warehouse_low_stock_products"].(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), low.DataPoints[0].Value)

	assert.NoError(t, m.Close())
}
