package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricPhasesTotal    = "depscan.phases.total"
	metricPhaseDuration  = "depscan.phase.duration.seconds"
	metricErrorsTotal    = "depscan.errors.total"
	metricInflightPhases = "depscan.inflight.phases"

	attrPhase  = "phase"
	attrStatus = "status"
)

// Phase outcomes.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// phaseBucketBoundaries covers 1ms to 120s, from manifest loading to a
// full walk of a large source tree.
var phaseBucketBoundaries = []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// PhaseMetrics holds rate, error and duration instruments for the phases
// of a command run (collect, load, detect, render).
type PhaseMetrics struct {
	phasesTotal    metric.Int64Counter
	phaseDuration  metric.Float64Histogram
	errorsTotal    metric.Int64Counter
	inflightPhases metric.Int64UpDownCounter
}

// NewPhaseMetrics creates phase metric instruments from the given meter.
func NewPhaseMetrics(mt metric.Meter) (*PhaseMetrics, error) {
	total, err := mt.Int64Counter(metricPhasesTotal,
		metric.WithDescription("Total number of phases run"),
		metric.WithUnit("{phase}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPhasesTotal, err)
	}

	dur, err := mt.Float64Histogram(metricPhaseDuration,
		metric.WithDescription("Phase duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(phaseBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPhaseDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of failed phases"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightPhases,
		metric.WithDescription("Number of phases in progress"),
		metric.WithUnit("{phase}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightPhases, err)
	}

	return &PhaseMetrics{
		phasesTotal:    total,
		phaseDuration:  dur,
		errorsTotal:    errTotal,
		inflightPhases: inflight,
	}, nil
}

// RecordPhase records a completed phase with its status and duration.
// Safe to call on a nil receiver (no-op).
func (pm *PhaseMetrics) RecordPhase(ctx context.Context, phase, status string, duration time.Duration) {
	if pm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrPhase, phase),
		attribute.String(attrStatus, status),
	)

	pm.phasesTotal.Add(ctx, 1, attrs)
	pm.phaseDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		pm.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrPhase, phase),
		))
	}
}

// TrackInflight increments the in-progress gauge and returns a function to
// decrement it.
func (pm *PhaseMetrics) TrackInflight(ctx context.Context, phase string) func() {
	if pm == nil {
		return func() {}
	}

	attrs := metric.WithAttributes(attribute.String(attrPhase, phase))
	pm.inflightPhases.Add(ctx, 1, attrs)

	return func() {
		pm.inflightPhases.Add(ctx, -1, attrs)
	}
}
