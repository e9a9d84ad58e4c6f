// Package observe provides the OpenTelemetry metrics of the analysis service
// and the HTTP middleware that records request latency.
//
// Tests should use [NewMetrics] with their own [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/RyanBlaney/sonido-meter/assessment"
)

// meterName is the instrumentation scope name used for all metrics
const meterName = "github.com/RyanBlaney/sonido-meter"

// Ensure Metrics implements assessment.Recorder.
var _ assessment.Recorder = (*Metrics)(nil)

// Metrics holds the metric instruments. All fields are safe for concurrent use.
type Metrics struct {
	// AnalysisDuration tracks end-to-end analysis latency, attribute "status"
	AnalysisDuration metric.Float64Histogram

	// AnalysisRequests counts analyses, attributes "status" and "category"
	AnalysisRequests metric.Int64Counter

	// Inflight tracks analyses holding a worker slot
	Inflight metric.Int64UpDownCounter

	// DecodeDuration tracks audio decoding latency, attribute "format"
	DecodeDuration metric.Float64Histogram

	// HTTPRequestDuration tracks HTTP handling time, attributes "method", "path" and "code"
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are histogram boundaries in seconds for clip-length workloads
var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates every instrument on mp
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.AnalysisDuration, err = m.Float64Histogram("sonido.analysis.duration",
		metric.WithDescription("Latency of a complete speech analysis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DecodeDuration, err = m.Float64Histogram("sonido.decode.duration",
		metric.WithDescription("Latency of audio decoding by container format."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("sonido.http.request.duration",
		metric.WithDescription("Latency of HTTP request handling."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.AnalysisRequests, err = m.Int64Counter("sonido.analysis.requests",
		metric.WithDescription("Total analyses by status and category."),
	); err != nil {
		return nil, err
	}

	if met.Inflight, err = m.Int64UpDownCounter("sonido.analysis.inflight",
		metric.WithDescription("Analyses currently running."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordAnalysis implements assessment.Recorder
func (m *Metrics) RecordAnalysis(ctx context.Context, category, status string, elapsed time.Duration) {
	m.AnalysisDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("status", status)),
	)
	m.AnalysisRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("status", status),
			attribute.String("category", category),
		),
	)
}

// RecordDecode implements assessment.Recorder
func (m *Metrics) RecordDecode(ctx context.Context, format string, elapsed time.Duration) {
	m.DecodeDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("format", format)),
	)
}

// AddInflight implements assessment.Recorder
func (m *Metrics) AddInflight(ctx context.Context, delta int64) {
	m.Inflight.Add(ctx, delta)
}
