package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/depscan/pkg/depmodel"
	"github.com/Sumatoshi-tech/depscan/pkg/observability"
	"github.com/Sumatoshi-tech/depscan/pkg/source"
)

// ErrNoResolution is returned when no resolved dependency graph is available.
var ErrNoResolution = errors.New("no dependency resolution available, compile the project first")

// DefaultWorkers is the default number of sources read concurrently.
const DefaultWorkers = 4

// Analyzer runs the unused and missing-explicit dependency detectors over a
// source collection.
type Analyzer struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.AnalysisMetrics
	workers int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithTracer sets the tracer used for the analysis span.
func WithTracer(tracer trace.Tracer) Option {
	return func(a *Analyzer) {
		if tracer != nil {
			a.tracer = tracer
		}
	}
}

// WithMetrics sets the instruments run statistics are recorded on.
func WithMetrics(metrics *observability.AnalysisMetrics) Option {
	return func(a *Analyzer) {
		a.metrics = metrics
	}
}

// WithWorkers sets how many sources are read concurrently.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// New creates an Analyzer logging to logger. A nil logger discards output.
func New(logger *slog.Logger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = observability.Discard()
	}

	a := &Analyzer{
		logger:  logger,
		tracer:  nooptrace.NewTracerProvider().Tracer("depscan"),
		workers: DefaultWorkers,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Analyze extracts imports from sources once and runs both detectors over
// them. A nil resolution fails with ErrNoResolution and no partial result;
// unreadable sources never fail the run.
func (a *Analyzer) Analyze(
	ctx context.Context,
	sources []source.Text,
	declared []depmodel.Declared,
	resolution *depmodel.Resolution,
) (*Result, error) {
	if resolution == nil {
		return nil, ErrNoResolution
	}

	ctx, span := a.tracer.Start(ctx, "depscan.analyze")
	defer span.End()

	start := time.Now()

	imports := ExtractImports(ctx, a.logger, sources, a.workers)

	a.logger.DebugContext(ctx, "extracted imports",
		"sources", len(sources),
		"imports", len(imports),
		"declared", len(declared),
		"resolved", resolution.Len())

	result := &Result{
		Unused:  FindUnused(declared, imports),
		Missing: FindMissing(ctx, a.logger, declared, resolution, imports, sources, a.workers),
	}

	span.SetAttributes(
		attribute.Int("depscan.sources", len(sources)),
		attribute.Int("depscan.imports", len(imports)),
		attribute.Int("depscan.unused", len(result.Unused)),
		attribute.Int("depscan.missing", len(result.Missing)),
	)

	a.metrics.RecordRun(ctx, observability.AnalysisStats{
		Sources:  len(sources),
		Imports:  len(imports),
		Unused:   len(result.Unused),
		Missing:  len(result.Missing),
		Duration: time.Since(start),
	})

	a.logger.InfoContext(ctx, "dependency analysis finished",
		"unused", len(result.Unused),
		"missing", len(result.Missing))

	return result, nil
}
