package trace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestBuilderSpanLifecycle(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	scope := Tracer("backup").Start(t.Context(), "backup.dump").
		WithAttrs(attribute.String("database", "sales")).
		RecordError(errors.New("mysqldump exited 2"))
	require.NotNil(t, scope.Ctx)
	scope.End()

	require.NoError(t, tp.ForceFlush(t.Context()))
	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "backup.dump", spans[0].Name)
	require.Len(t, spans[0].Events, 1, "error should be recorded as event")
}

func TestSpanScopeNilSafe(t *testing.T) {
	var s *SpanScope
	require.NotPanics(t, func() {
		s.WithAttrs(attribute.Bool("x", true)).RecordError(errors.New("e")).End()
	})
}
