package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestRecordHelpers_NilMetrics(t *testing.T) {
	ctx := context.Background()

	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, nil, "GET", "/v1/leads", 200, time.Millisecond)
		RecordDBMetric(ctx, nil, "dashboard_aggregate", time.Millisecond)
		RecordCacheHit(ctx, nil, "dashboard:metrics")
		RecordCacheMiss(ctx, nil, "dashboard:metrics")
		RecordLeadGenerated(ctx, nil, "manual", "qwen2.5:1.5b")
		RecordParseFallback(ctx, nil, "regex")
		RecordLeadTransition(ctx, nil, "open", "contacted")
	})
}

func TestInitMetrics(t *testing.T) {
	metrics, err := InitMetrics()
	require.NoError(t, err)
	require.NotNil(t, metrics)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, metrics, "POST", "/v1/leads/{id}/status", 200, 5*time.Millisecond)
		RecordDBMetric(ctx, metrics, "dashboard_aggregate", 3*time.Millisecond)
		RecordLeadGenerated(ctx, metrics, "summary_pipeline", "llama3.2:1b")
		RecordLeadTransition(ctx, metrics, "open", "in_progress")
	})
}

func TestStartSpan_RecordsError(t *testing.T) {
	_, span := StartSpan(context.Background(), "dashboard.compute")
	defer span.End()

	assert.NotPanics(t, func() {
		RecordError(span, errors.New("store down"))
		RecordError(span, nil)
	})
}

func TestSetup_ReturnsShutdown(t *testing.T) {
	tracerProvider := otel.GetTracerProvider()
	meterProvider := otel.GetMeterProvider()
	propagator := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tracerProvider)
		otel.SetMeterProvider(meterProvider)
		otel.SetTextMapPropagator(propagator)
	})

	shutdown, err := Setup(context.Background(), "triage-test", "0.0.0", "127.0.0.1:4317")
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	// No collector is listening, so the flush error is expected.
	_ = shutdown(ctx)
}
