// Package observe provides application-wide observability primitives for
// attune: OpenTelemetry metrics and the provider init that bridges them to
// Prometheus.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still
// be scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all attune metrics.
const meterName = "github.com/MrWong99/attune"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// AnalyzerDuration tracks per-utterance analyzer latency. Use with
	// attribute.String("analyzer", ...).
	AnalyzerDuration metric.Float64Histogram

	// HTTPRequestDuration tracks end-to-end HTTP request latency. Use with
	// attribute.String("method", ...) and attribute.String("path", ...).
	HTTPRequestDuration metric.Float64Histogram

	// --- Counters ---

	// Utterances counts ingested speech segments. Use with
	// attribute.String("speaker", ...).
	Utterances metric.Int64Counter

	// LateUtterances counts segments admitted after the jitter window.
	LateUtterances metric.Int64Counter

	// Decisions counts coaching decisions. Use with attributes:
	//   attribute.String("kind", ...), attribute.String("reason", ...)
	Decisions metric.Int64Counter

	// Insights counts auto-flagged insights. Use with
	// attribute.String("source", ...).
	Insights metric.Int64Counter

	// PIIDetections counts proposed PII spans. Use with
	// attribute.String("type", ...).
	PIIDetections metric.Int64Counter

	// DroppedEvents counts boundary payloads that did not coerce into a
	// known event shape.
	DroppedEvents metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live interview sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// in-process text analyzers.
var latencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.AnalyzerDuration, err = m.Float64Histogram("attune.analyzer.duration",
		metric.WithDescription("Per-utterance analyzer latency by analyzer."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("attune.http.request.duration",
		metric.WithDescription("End-to-end HTTP request latency."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if met.Utterances, err = m.Int64Counter("attune.utterances",
		metric.WithDescription("Total ingested utterances by speaker."),
	); err != nil {
		return nil, err
	}
	if met.LateUtterances, err = m.Int64Counter("attune.utterances.late",
		metric.WithDescription("Utterances admitted after the jitter reorder window."),
	); err != nil {
		return nil, err
	}
	if met.Decisions, err = m.Int64Counter("attune.coach.decisions",
		metric.WithDescription("Coaching decisions by kind and suppression reason."),
	); err != nil {
		return nil, err
	}
	if met.Insights, err = m.Int64Counter("attune.insights",
		metric.WithDescription("Auto-flagged insights by source."),
	); err != nil {
		return nil, err
	}
	if met.PIIDetections, err = m.Int64Counter("attune.pii.detections",
		metric.WithDescription("Proposed PII spans by type."),
	); err != nil {
		return nil, err
	}
	if met.DroppedEvents, err = m.Int64Counter("attune.ingest.dropped",
		metric.WithDescription("Boundary payloads that did not coerce into a known event."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("attune.active_sessions",
		metric.WithDescription("Number of live interview sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordDecision records a coaching decision with the standard attribute set.
func (m *Metrics) RecordDecision(ctx context.Context, kind, reason string) {
	m.Decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("reason", reason),
	))
}
