package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cosmetica/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs an in-memory span recorder as the global provider.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return sr
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestStartSpan_InternalKind(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "catalog_import.resolve")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
	assert.Equal(t, telemetry.TracerName, spans[0].InstrumentationScope().Name)
}

func TestNestedSpans(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, parent := telemetry.StartSpan(context.Background(), "catalog_import.run")
	_, child := telemetry.StartSpan(ctx, "catalog_import.write_page", telemetry.SpanAttrPage, 1)
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "catalog_import.write_page", spans[0].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Equal(t, spans[1].SpanContext().TraceID(), spans[0].SpanContext().TraceID())
}

func TestSetAttributes_Types(t *testing.T) {
	sr := setupTestTracer(t)
	runID := uuid.New()

	_, span := telemetry.StartSpan(context.Background(), "types")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRunID, runID,
		telemetry.SpanAttrKeyCount, int64(250),
		"ratio", 0.5,
		"columns", []string{"name", "barcode"},
		"page_size", struct{ N int }{N: 100},
	)
	span.End()

	attrs := attrMap(sr.Ended()[0].Attributes())
	assert.Equal(t, runID.String(), attrs[telemetry.SpanAttrRunID].AsString())
	assert.Equal(t, int64(250), attrs[telemetry.SpanAttrKeyCount].AsInt64())
	assert.Equal(t, 0.5, attrs["ratio"].AsFloat64())
	assert.Equal(t, []string{"name", "barcode"}, attrs["columns"].AsStringSlice())
	assert.Equal(t, "{100}", attrs["page_size"].AsString())
}

func TestSetAttributes_OddKeyValues(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "odd")
	telemetry.SetAttributes(span, telemetry.SpanAttrNewRows, 2, telemetry.SpanAttrUpdated)
	span.End()

	attrs := attrMap(sr.Ended()[0].Attributes())
	assert.Len(t, attrs, 1)
	assert.Equal(t, int64(2), attrs[telemetry.SpanAttrNewRows].AsInt64())
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "failing")
	telemetry.RecordError(span, errors.New("upsert rejected"))
	span.End()

	got := sr.Ended()[0]
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "upsert rejected", got.Status().Description)
	require.Len(t, got.Events(), 1)
	assert.Equal(t, "exception", got.Events()[0].Name)
}

func TestRecordError_NilArguments(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "ok")
	telemetry.RecordError(span, nil)
	span.End()

	assert.Equal(t, codes.Unset, sr.Ended()[0].Status().Code)
	assert.NotPanics(t, func() {
		telemetry.RecordError(nil, errors.New("ignored"))
		telemetry.SetAttributes(nil, "k", "v")
	})
}

func TestGetTraceID_MatchesSpan(t *testing.T) {
	setupTestTracer(t)

	ctx, span := telemetry.StartSpan(context.Background(), "ids")
	defer span.End()

	assert.Equal(t, span.SpanContext().TraceID().String(), telemetry.GetTraceID(ctx))
}
