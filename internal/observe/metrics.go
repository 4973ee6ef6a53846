// Package observe provides application-wide observability primitives:
// OpenTelemetry metrics with a Prometheus exporter bridge and an optional
// scrape endpoint.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/translive/translive"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// TranslateDuration tracks translation latency.
	TranslateDuration metric.Float64Histogram

	// --- Counters ---

	// ChunksEmitted counts utterance chunks produced by the accumulator.
	ChunksEmitted metric.Int64Counter

	// ChunksSkipped counts chunks discarded by latest-wins coalescing.
	ChunksSkipped metric.Int64Counter

	// DegradedResults counts pipeline results with a failed transcription or
	// translation. Use with attribute: attribute.String("stage", ...).
	DegradedResults metric.Int64Counter

	// --- Gauges ---

	// ActiveJobs tracks the number of inference jobs currently running.
	// The pipeline invariant keeps this at 0 or 1.
	ActiveJobs metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for speech-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.STTDuration, err = m.Float64Histogram("translive.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranslateDuration, err = m.Float64Histogram("translive.translate.duration",
		metric.WithDescription("Latency of translation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ChunksEmitted, err = m.Int64Counter("translive.chunks.emitted",
		metric.WithDescription("Total utterance chunks emitted by the accumulator."),
	); err != nil {
		return nil, err
	}
	if met.ChunksSkipped, err = m.Int64Counter("translive.chunks.skipped",
		metric.WithDescription("Total chunks discarded by latest-wins coalescing."),
	); err != nil {
		return nil, err
	}
	if met.DegradedResults, err = m.Int64Counter("translive.results.degraded",
		metric.WithDescription("Total degraded results by failed stage."),
	); err != nil {
		return nil, err
	}

	if met.ActiveJobs, err = m.Int64UpDownCounter("translive.jobs.active",
		metric.WithDescription("Number of inference jobs currently running."),
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

// RecordSTT records one transcription with its latency and outcome. Nil-safe
// so callers can run without metrics wired.
func (m *Metrics) RecordSTT(ctx context.Context, d time.Duration, status string) {
	if m == nil {
		return
	}
	m.STTDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordTranslate records one translation with its latency and outcome.
// Nil-safe.
func (m *Metrics) RecordTranslate(ctx context.Context, d time.Duration, status string) {
	if m == nil {
		return
	}
	m.TranslateDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordChunk counts one emitted chunk. Nil-safe.
func (m *Metrics) RecordChunk(ctx context.Context) {
	if m == nil {
		return
	}
	m.ChunksEmitted.Add(ctx, 1)
}

// RecordSkipped counts chunks dropped by coalescing. Nil-safe.
func (m *Metrics) RecordSkipped(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ChunksSkipped.Add(ctx, int64(n))
}

// RecordDegraded counts a degraded result for the given stage ("stt" or
// "translate"). Nil-safe.
func (m *Metrics) RecordDegraded(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.DegradedResults.Add(ctx, 1,
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}

// JobStarted marks an inference job as running. Nil-safe.
func (m *Metrics) JobStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveJobs.Add(ctx, 1)
}

// JobFinished marks an inference job as done. Nil-safe.
func (m *Metrics) JobFinished(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveJobs.Add(ctx, -1)
}
