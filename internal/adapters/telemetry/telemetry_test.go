package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/stencil/internal/adapters/telemetry"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/stencil/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.OTelTracer)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = telemetry.NoOpSpan{}
	var _ sdktrace.SpanProcessor = (*telemetry.LogBridge)(nil)
}

func TestOTelTracer_RecordsSpans(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := telemetry.NewOTelTracerFrom(tp, "test")

	_, span := tracer.Start(context.Background(), "compile")
	span.SetAttribute("identifier", "apps.foo.Bar")
	span.SetAttribute("units", 1)
	span.SetAttribute("size", int64(42))
	span.SetAttribute("ratio", 0.5)
	span.SetAttribute("cached", true)
	span.SetAttribute("paths", []string{"/a", "/b"})
	span.SetAttribute("other", struct{}{})
	span.RecordError(nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "compile", ended[0].Name())
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String("identifier", "apps.foo.Bar"))
	assert.Contains(t, ended[0].Attributes(), attribute.Int("units", 1))
	assert.Contains(t, ended[0].Attributes(), attribute.Bool("cached", true))
	assert.Contains(t, ended[0].Attributes(), attribute.StringSlice("paths", []string{"/a", "/b"}))
	assert.Contains(t, ended[0].Attributes(), attribute.String("other", "{}"))
}

func TestOTelSpan_RecordError(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := telemetry.NewOTelTracerFrom(tp, "test")

	_, span := tracer.Start(context.Background(), "resolve")
	span.RecordError(errors.New("lookup failed"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "lookup failed", ended[0].Status().Description)
}

func TestLogBridge(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).Times(1)
	log.EXPECT().Warn(gomock.Any()).Times(1)

	tracer := telemetry.NewOTelTracerFrom(telemetry.NewProvider(log), "test")

	_, ok := tracer.Start(context.Background(), "ok")
	ok.End()

	_, failed := tracer.Start(context.Background(), "failed")
	failed.RecordError(errors.New("boom"))
	failed.End()
}

func TestNoOpTracer(t *testing.T) {
	t.Parallel()

	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()
	got, span := tracer.Start(ctx, "noop")
	assert.Equal(t, ctx, got)
	span.SetAttribute("k", "v")
	span.RecordError(errors.New("ignored"))
	span.End()
}
