package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricSourcesTotal     = "depscan.analysis.sources.total"
	metricImportsTotal     = "depscan.analysis.imports.total"
	metricFindingsTotal    = "depscan.analysis.findings.total"
	metricRunDuration      = "depscan.analysis.duration.seconds"
	metricCacheHitsTotal   = "depscan.source.cache.hits.total"
	metricCacheMissesTotal = "depscan.source.cache.misses.total"

	attrKind = "kind"

	// FindingUnused labels unused-dependency findings.
	FindingUnused = "unused"
	// FindingMissing labels missing-explicit-dependency findings.
	FindingMissing = "missing"
)

// durationBucketBoundaries covers 1ms to 60s; analysis of a single project
// rarely leaves the sub-second range.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// AnalysisMetrics holds OTel instruments for analysis runs.
type AnalysisMetrics struct {
	sourcesTotal  metric.Int64Counter
	importsTotal  metric.Int64Counter
	findingsTotal metric.Int64Counter
	runDuration   metric.Float64Histogram
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
}

// AnalysisStats holds the statistics of a single analysis run.
type AnalysisStats struct {
	Sources  int
	Imports  int
	Unused   int
	Missing  int
	Duration time.Duration
}

// NewAnalysisMetrics creates analysis metric instruments from the given meter.
func NewAnalysisMetrics(mt metric.Meter) (*AnalysisMetrics, error) {
	sources, err := mt.Int64Counter(metricSourcesTotal,
		metric.WithDescription("Total source texts analyzed"),
		metric.WithUnit("{source}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSourcesTotal, err)
	}

	imports, err := mt.Int64Counter(metricImportsTotal,
		metric.WithDescription("Total distinct import paths extracted"),
		metric.WithUnit("{import}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricImportsTotal, err)
	}

	findings, err := mt.Int64Counter(metricFindingsTotal,
		metric.WithDescription("Findings by kind"),
		metric.WithUnit("{finding}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFindingsTotal, err)
	}

	dur, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Analysis run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	hits, err := mt.Int64Counter(metricCacheHitsTotal,
		metric.WithDescription("Source content cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheHitsTotal, err)
	}

	misses, err := mt.Int64Counter(metricCacheMissesTotal,
		metric.WithDescription("Source content cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheMissesTotal, err)
	}

	return &AnalysisMetrics{
		sourcesTotal:  sources,
		importsTotal:  imports,
		findingsTotal: findings,
		runDuration:   dur,
		cacheHits:     hits,
		cacheMisses:   misses,
	}, nil
}

// RecordRun records the statistics of a completed run.
// Safe to call on a nil receiver (no-op).
func (am *AnalysisMetrics) RecordRun(ctx context.Context, stats AnalysisStats) {
	if am == nil {
		return
	}

	am.sourcesTotal.Add(ctx, int64(stats.Sources))
	am.importsTotal.Add(ctx, int64(stats.Imports))
	am.findingsTotal.Add(ctx, int64(stats.Unused), metric.WithAttributes(attribute.String(attrKind, FindingUnused)))
	am.findingsTotal.Add(ctx, int64(stats.Missing), metric.WithAttributes(attribute.String(attrKind, FindingMissing)))
	am.runDuration.Record(ctx, stats.Duration.Seconds())
}

// RecordCache records source cache effectiveness.
// Safe to call on a nil receiver (no-op).
func (am *AnalysisMetrics) RecordCache(ctx context.Context, hits, misses int64) {
	if am == nil {
		return
	}

	am.cacheHits.Add(ctx, hits)
	am.cacheMisses.Add(ctx, misses)
}
