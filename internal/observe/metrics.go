// Package observe provides application-wide observability primitives for
// lexiread: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
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

// meterName is the instrumentation scope name used for all lexiread metrics.
const meterName = "github.com/lexiread/lexiread"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// ASRDuration tracks transcription latency. Use with attributes:
	//   attribute.String("mode", "partial"|"final")
	ASRDuration metric.Float64Histogram

	// ScoreDuration tracks audio scoring latency (transcription plus alignment).
	ScoreDuration metric.Float64Histogram

	// --- Counters ---

	// SegmentsFinalized counts final captions delivered to clients.
	SegmentsFinalized metric.Int64Counter

	// PartialCaptions counts partial captions delivered to clients.
	PartialCaptions metric.Int64Counter

	// ScoreRequests counts reading assessment requests. Use with attribute:
	//   attribute.String("kind", "counts"|"audio")
	ScoreRequests metric.Int64Counter

	// AudioBytes counts PCM bytes received over caption sockets.
	AudioBytes metric.Int64Counter

	// --- Error counters ---

	// ASRErrors counts failed transcriptions. Use with attribute:
	//   attribute.String("mode", "partial"|"final")
	ASRErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live caption sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for transcription latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ASRDuration, err = m.Float64Histogram("lexiread.asr.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ScoreDuration, err = m.Float64Histogram("lexiread.score.duration",
		metric.WithDescription("Latency of audio reading assessment."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.SegmentsFinalized, err = m.Int64Counter("lexiread.caption.segments",
		metric.WithDescription("Total final captions delivered."),
	); err != nil {
		return nil, err
	}
	if met.PartialCaptions, err = m.Int64Counter("lexiread.caption.partials",
		metric.WithDescription("Total partial captions delivered."),
	); err != nil {
		return nil, err
	}
	if met.ScoreRequests, err = m.Int64Counter("lexiread.score.requests",
		metric.WithDescription("Total reading assessment requests by kind."),
	); err != nil {
		return nil, err
	}
	if met.AudioBytes, err = m.Int64Counter("lexiread.caption.audio_bytes",
		metric.WithDescription("Total PCM bytes received over caption sockets."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ASRErrors, err = m.Int64Counter("lexiread.asr.errors",
		metric.WithDescription("Total failed transcriptions by mode."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("lexiread.active_sessions",
		metric.WithDescription("Number of live caption sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("lexiread.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
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

// RecordASR records one transcription with its latency and outcome.
func (m *Metrics) RecordASR(ctx context.Context, mode string, seconds float64, err error) {
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	m.ASRDuration.Record(ctx, seconds, attrs)
	if err != nil {
		m.ASRErrors.Add(ctx, 1, attrs)
	}
}

// RecordScoreRequest counts one reading assessment request.
func (m *Metrics) RecordScoreRequest(ctx context.Context, kind string) {
	m.ScoreRequests.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
