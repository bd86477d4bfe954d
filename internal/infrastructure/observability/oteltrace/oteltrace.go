package oteltrace

import (
	"context"

	"github.com/keisui/shopcore/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type tracer struct{ t trace.Tracer }

func New(name string) observability.Tracer {
	if name == "" {
		name = "shopcore"
	}
	return &tracer{t: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Exporting spans requires an sdktrace.TracerProvider wired in the
// deployment entrypoint via otel.SetTracerProvider; without one the global
// tracer is a no-op, which is fine for local runs and tests.
