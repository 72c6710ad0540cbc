package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/stencil/internal/core/ports"
)

// LogBridge implements sdktrace.SpanProcessor and reports finished spans to a logger.
// Failed spans are logged as warnings, every other span at debug level.
type LogBridge struct {
	logger ports.Logger
}

// NewLogBridge returns a new LogBridge.
func NewLogBridge(logger ports.Logger) *LogBridge {
	return &LogBridge{logger: logger}
}

// OnStart does nothing.
func (b *LogBridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd is called when a span ends.
func (b *LogBridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil || !s.SpanContext().IsValid() {
		return
	}

	elapsed := s.EndTime().Sub(s.StartTime())
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "failed"
		}
		b.logger.Warn(fmt.Sprintf("%s failed after %s: %s", s.Name(), elapsed, desc))
		return
	}
	b.logger.Debug(fmt.Sprintf("%s took %s", s.Name(), elapsed))
}

// ForceFlush does nothing.
func (b *LogBridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *LogBridge) Shutdown(_ context.Context) error {
	return nil
}

// NewProvider creates a tracer provider whose spans are reported through logger.
func NewProvider(logger ports.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewLogBridge(logger)),
	)
}
