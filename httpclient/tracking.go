package httpclient

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	// Instrumentation scope for both tracer and meter
	instrumentationName = "go-openapi/httpclient"

	spanSend = "openapi.send"

	metricAttempts        = "openapi.client.attempts"
	metricAttemptDuration = "openapi.client.attempt.duration"
	metricRetries         = "openapi.client.retries"

	attrHTTPRequestMethod = "http.request.method"
	attrURLPath           = "url.path"
	attrAttempts          = "openapi.attempts"
	attrCode              = "openapi.code"
	attrOutcome           = "openapi.outcome"
	attrErrorType         = "error.type"

	outcomeSuccess = "success"
)

var attemptDurationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10, 30,
}

// instruments holds the lazily created client metrics. A nil field means
// creation failed and the metric is skipped.
type instruments struct {
	attempts        metric.Int64Counter
	attemptDuration metric.Float64Histogram
	retries         metric.Int64Counter
}

var (
	meterMu           sync.Mutex
	clientInstruments *instruments
)

// logMetricError logs a metric initialization error to stderr.
// Metrics failures never break a request.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize client metric %s: %v\n", metricName, err)
	}
}

func newInstruments() *instruments {
	meter := otel.Meter(instrumentationName)
	inst := &instruments{}

	var err error
	inst.attempts, err = meter.Int64Counter(
		metricAttempts,
		metric.WithDescription("Number of request attempts sent to the gateway"),
		metric.WithUnit("{attempt}"),
	)
	logMetricError(metricAttempts, err)

	inst.attemptDuration, err = meter.Float64Histogram(
		metricAttemptDuration,
		metric.WithDescription("Duration of a single request attempt"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(attemptDurationBuckets...),
	)
	logMetricError(metricAttemptDuration, err)

	inst.retries, err = meter.Int64Counter(
		metricRetries,
		metric.WithDescription("Number of retries after rate limiting"),
		metric.WithUnit("{retry}"),
	)
	logMetricError(metricRetries, err)

	return inst
}

// clientMetrics returns the instruments, creating them from the global meter
// provider on first use.
func clientMetrics() *instruments {
	meterMu.Lock()
	defer meterMu.Unlock()

	if clientInstruments == nil {
		clientInstruments = newInstruments()
	}
	return clientInstruments
}

// resetTracking drops the cached instruments so tests can install a fresh
// provider. Sends already holding the old instruments finish on them.
func resetTracking() {
	meterMu.Lock()
	defer meterMu.Unlock()

	clientInstruments = nil
}

func outcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return string(clientErr.Type())
	}
	return "unknown"
}

func recordAttempt(ctx context.Context, method string, duration time.Duration, err error) {
	inst := clientMetrics()

	attrs := metric.WithAttributes(
		attribute.String(attrHTTPRequestMethod, method),
		attribute.String(attrOutcome, outcome(err)),
	)
	if inst.attempts != nil {
		inst.attempts.Add(ctx, 1, attrs)
	}
	if inst.attemptDuration != nil {
		inst.attemptDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

func recordRetry(ctx context.Context, method string) {
	inst := clientMetrics()

	if inst.retries != nil {
		inst.retries.Add(ctx, 1, metric.WithAttributes(attribute.String(attrHTTPRequestMethod, method)))
	}
}

func startSendSpan(ctx context.Context, method, path string) (context.Context, oteltrace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, spanSend,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String(attrHTTPRequestMethod, method),
			attribute.String(attrURLPath, path),
		),
	)
}

func endSendSpan(span oteltrace.Span, attempts int, err error) {
	span.SetAttributes(attribute.Int(attrAttempts, attempts))
	if err != nil {
		span.SetAttributes(attribute.String(attrErrorType, outcome(err)))
		if apiErr, ok := AsOpenAPIError(err); ok {
			span.SetAttributes(attribute.Int64(attrCode, apiErr.Code))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
