package telemetry

import (
	"context"
	"errors"

	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/mystock/warehouse/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when metrics are created without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// StockLevels exposes the current inventory totals observed by the gauges
type StockLevels interface {
	TotalStock() int64
	TotalValue() decimal.Decimal
	LowStockDefault() []catalog.Product
}

// InventoryMetrics counts committed inventory events and observes stock levels.
// It is subscribed to the event bus like any other handler.
type InventoryMetrics struct {
	logger *zap.Logger

	movements     *Counter
	unitsMoved    *Counter
	audits        *Counter
	productsAdded *Counter
	productsGone  *Counter
	alerts        *Counter
	movementSize  *Histogram
	auditDrift    *Histogram

	registration metric.Registration
}

// NewInventoryMetrics registers the inventory instruments on meter.
// levels may be nil, in which case no gauges are observed.
func NewInventoryMetrics(meter metric.Meter, levels StockLevels, logger *zap.Logger) (*InventoryMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &InventoryMetrics{logger: logger}
	var err error

	if m.movements, err = NewCounter(meter, "warehouse_stock_movements_total",
		"Committed receipts and issues", "{movements}"); err != nil {
		return nil, err
	}
	if m.unitsMoved, err = NewCounter(meter, "warehouse_stock_units_moved_total",
		"Units received or issued", "{units}"); err != nil {
		return nil, err
	}
	if m.audits, err = NewCounter(meter, "warehouse_stock_audits_total",
		"Physical counts applied", "{audits}"); err != nil {
		return nil, err
	}
	if m.productsAdded, err = NewCounter(meter, "warehouse_products_added_total",
		"Products added to the catalog", "{products}"); err != nil {
		return nil, err
	}
	if m.productsGone, err = NewCounter(meter, "warehouse_products_removed_total",
		"Products removed from the catalog", "{products}"); err != nil {
		return nil, err
	}
	if m.alerts, err = NewCounter(meter, "warehouse_low_stock_alerts_total",
		"Stock below threshold alerts raised", "{alerts}"); err != nil {
		return nil, err
	}
	if m.movementSize, err = NewHistogram(meter, "warehouse_stock_movement_size",
		"Units per receipt or issue", "{units}", QuantityBuckets...); err != nil {
		return nil, err
	}
	if m.auditDrift, err = NewHistogram(meter, "warehouse_stock_audit_difference",
		"Absolute difference between recorded and counted stock", "{units}", QuantityBuckets...); err != nil {
		return nil, err
	}

	if levels != nil {
		if err := m.observe(meter, levels); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *InventoryMetrics) observe(meter metric.Meter, levels StockLevels) error {
	totalStock, err := meter.Int64ObservableGauge("warehouse_stock_units",
		metric.WithDescription("Units on hand across all products"),
		metric.WithUnit("{units}"))
	if err != nil {
		return err
	}
	totalValue, err := meter.Float64ObservableGauge("warehouse_stock_value",
		metric.WithDescription("Stock value across all products"))
	if err != nil {
		return err
	}
	lowStock, err := meter.Int64ObservableGauge("warehouse_low_stock_products",
		metric.WithDescription("Products below the low-stock threshold"),
		metric.WithUnit("{products}"))
	if err != nil {
		return err
	}

	m.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(totalStock, levels.TotalStock())
		o.ObserveFloat64(totalValue, levels.TotalValue().InexactFloat64())
		o.ObserveInt64(lowStock, int64(len(levels.LowStockDefault())))
		return nil
	}, totalStock, totalValue, lowStock)
	return err
}

// EventTypes returns the event types this handler is interested in
func (m *InventoryMetrics) EventTypes() []string {
	return []string{
		catalog.EventTypeProductAdded,
		catalog.EventTypeProductRemoved,
		catalog.EventTypeStockReceived,
		catalog.EventTypeStockIssued,
		catalog.EventTypeStockAudited,
		catalog.EventTypeStockBelowThreshold,
	}
}

// Handle records one committed event
func (m *InventoryMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *catalog.StockMovedEvent:
		kind := AttrMovementType.String(e.EventType())
		m.movements.Inc(ctx, kind)
		m.unitsMoved.Add(ctx, e.Quantity, kind)
		m.movementSize.Record(ctx, e.Quantity, kind)
	case *catalog.StockAuditedEvent:
		direction := "none"
		diff := e.Difference
		switch {
		case diff > 0:
			direction = "increase"
		case diff < 0:
			direction = "decrease"
			diff = -diff
		}
		m.audits.Inc(ctx, AttrDirection.String(direction))
		m.auditDrift.Record(ctx, diff, AttrDirection.String(direction))
	case *catalog.ProductAddedEvent:
		m.productsAdded.Inc(ctx)
	case *catalog.ProductRemovedEvent:
		m.productsGone.Inc(ctx)
	case *catalog.StockBelowThresholdEvent:
		m.alerts.Inc(ctx)
	default:
		m.logger.Debug("ignoring event", zap.String("event_type", event.EventType()))
	}
	return nil
}

// Close stops observing stock levels
func (m *InventoryMetrics) Close() error {
	if m.registration == nil {
		return nil
	}
	return m.registration.Unregister()
}
