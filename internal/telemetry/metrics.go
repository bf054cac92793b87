package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeterProvider installs a global MeterProvider backed by the Prometheus
// exporter and returns the /metrics handler with its shutdown func.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(newResource(serviceName, serviceVersion)),
	)
	otel.SetMeterProvider(mp)

	return promhttp.Handler(), mp.Shutdown, nil
}

// Metrics holds the marketplace business counters. A nil *Metrics records
// nothing.
type Metrics struct {
	ordersCreated   metric.Int64Counter
	statusChanges   metric.Int64Counter
	reviewsCreated  metric.Int64Counter
	stockRejections metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var err error

	if m.ordersCreated, err = meter.Int64Counter("marketplace.orders.created",
		metric.WithDescription("Orders placed"),
		metric.WithUnit("{order}"),
	); err != nil {
		return nil, err
	}

	if m.statusChanges, err = meter.Int64Counter("marketplace.orders.status_changes",
		metric.WithDescription("Order status transitions by target status"),
		metric.WithUnit("{transition}"),
	); err != nil {
		return nil, err
	}

	if m.reviewsCreated, err = meter.Int64Counter("marketplace.reviews.created",
		metric.WithDescription("Seller reviews submitted"),
		metric.WithUnit("{review}"),
	); err != nil {
		return nil, err
	}

	if m.stockRejections, err = meter.Int64Counter("marketplace.orders.stock_rejections",
		metric.WithDescription("Orders rejected for insufficient stock"),
		metric.WithUnit("{order}"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

func (m *Metrics) OrderCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.ordersCreated.Add(ctx, 1)
}

func (m *Metrics) StatusChanged(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.statusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *Metrics) ReviewCreated(ctx context.Context, rating int) {
	if m == nil {
		return
	}
	m.reviewsCreated.Add(ctx, 1, metric.WithAttributes(attribute.Int("rating", rating)))
}

func (m *Metrics) StockRejected(ctx context.Context) {
	if m == nil {
		return
	}
	m.stockRejections.Add(ctx, 1)
}
