package session

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/auracast/auracast/internal/session"

// Metrics holds the OpenTelemetry instruments for session activity.
// A nil *Metrics records nothing.
type Metrics struct {
	lookups        metric.Int64Counter
	ticks          metric.Int64Counter
	staleTicks     metric.Int64Counter
	droppedUpdates metric.Int64Counter
	activeSessions metric.Int64UpDownCounter
	overallAQI     metric.Float64Histogram
}

// NewMetrics creates session instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	lookups, err := meter.Int64Counter(
		"auracast.session.lookups",
		metric.WithDescription("City lookups performed by sessions"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	ticks, err := meter.Int64Counter(
		"auracast.session.ticks",
		metric.WithDescription("Fluctuation ticks applied to session readings"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return nil, err
	}

	staleTicks, err := meter.Int64Counter(
		"auracast.session.stale_ticks",
		metric.WithDescription("Ticks discarded because a newer lookup superseded them"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return nil, err
	}

	droppedUpdates, err := meter.Int64Counter(
		"auracast.session.dropped_updates",
		metric.WithDescription("Readings not delivered to a slow subscriber"),
		metric.WithUnit("{reading}"),
	)
	if err != nil {
		return nil, err
	}

	activeSessions, err := meter.Int64UpDownCounter(
		"auracast.session.active",
		metric.WithDescription("Number of live sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	overallAQI, err := meter.Float64Histogram(
		"auracast.session.overall_aqi",
		metric.WithDescription("Overall AQI of installed readings"),
		metric.WithUnit("{aqi}"),
		metric.WithExplicitBucketBoundaries(50, 100, 150, 200, 300, 500),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		lookups:        lookups,
		ticks:          ticks,
		staleTicks:     staleTicks,
		droppedUpdates: droppedUpdates,
		activeSessions: activeSessions,
		overallAQI:     overallAQI,
	}, nil
}

func (m *Metrics) recordLookup(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) recordReading(ctx context.Context, city, level string, value float64, tick bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("city", city),
		attribute.String("level", level),
	)
	if tick {
		m.ticks.Add(ctx, 1, attrs)
	}
	m.overallAQI.Record(ctx, value, attrs)
}

func (m *Metrics) recordStaleTick(ctx context.Context) {
	if m == nil {
		return
	}
	m.staleTicks.Add(ctx, 1)
}

func (m *Metrics) recordDropped(ctx context.Context) {
	if m == nil {
		return
	}
	m.droppedUpdates.Add(ctx, 1)
}

func (m *Metrics) sessionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

func (m *Metrics) sessionClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}
