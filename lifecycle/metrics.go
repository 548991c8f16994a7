package lifecycle

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/midbel/crimeviz/lifecycle"

// Metrics counts the layout passes of all the instances of a controller.
type Metrics struct {
	layouts  metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

// NewMetrics creates the instruments on the given provider, or on the global
// one when provider is nil.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	var (
		m   Metrics
		err error
	)
	m.layouts, err = meter.Int64Counter(
		"crimeviz.layout.passes",
		metric.WithDescription("Number of completed layout passes"),
		metric.WithUnit("{pass}"),
	)
	if err != nil {
		return nil, err
	}
	m.failures, err = meter.Int64Counter(
		"crimeviz.layout.degraded",
		metric.WithDescription("Number of layout passes rendered as a message"),
		metric.WithUnit("{pass}"),
	)
	if err != nil {
		return nil, err
	}
	m.duration, err = meter.Float64Histogram(
		"crimeviz.layout.duration",
		metric.WithDescription("Duration of layout passes"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	m.active, err = meter.Int64UpDownCounter(
		"crimeviz.instances.active",
		metric.WithDescription("Number of attached chart instances"),
		metric.WithUnit("{instance}"),
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) recordLayout(ctx context.Context, kind string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("chart", kind))
	if err != nil {
		m.failures.Add(ctx, 1, attrs)
	} else {
		m.layouts.Add(ctx, 1, attrs)
	}
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

func (m *Metrics) recordActive(ctx context.Context, kind string, delta int64) {
	if m == nil {
		return
	}
	m.active.Add(ctx, delta, metric.WithAttributes(attribute.String("chart", kind)))
}
