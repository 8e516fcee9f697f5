package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const attrPhaseName = "depscan.phase"

// RunPhase runs fn inside a span named "depscan.<phase>" and records its
// outcome on metrics, which may be nil.
func RunPhase(
	ctx context.Context, tracer trace.Tracer, metrics *PhaseMetrics, phase string, fn func(context.Context) error,
) error {
	ctx, span := tracer.Start(ctx, "depscan."+phase,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String(attrPhaseName, phase)),
	)
	defer span.End()

	done := metrics.TrackInflight(ctx, phase)
	defer done()

	start := time.Now()
	err := fn(ctx)

	status := StatusOK
	if err != nil {
		status = StatusError

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	metrics.RecordPhase(ctx, phase, status, time.Since(start))

	return err
}
