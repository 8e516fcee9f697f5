// Package commands implements the depscan CLI commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/depscan/pkg/analysis"
	"github.com/Sumatoshi-tech/depscan/pkg/config"
	"github.com/Sumatoshi-tech/depscan/pkg/depmodel"
	"github.com/Sumatoshi-tech/depscan/pkg/manifest"
	"github.com/Sumatoshi-tech/depscan/pkg/observability"
	"github.com/Sumatoshi-tech/depscan/pkg/report"
	"github.com/Sumatoshi-tech/depscan/pkg/source"
	"github.com/Sumatoshi-tech/depscan/pkg/version"
)

// ErrFindings is returned with --fail-on-findings when the run reports anything.
var ErrFindings = errors.New("dependency findings reported")

// flagBindings maps command flags onto configuration keys.
var flagBindings = map[string]string{
	"manifest":      "manifest.path",
	"resolution":    "resolution.path",
	"format":        "output.format",
	"no-color":      "output.no_color",
	"suggest-patch": "output.suggest_patch",
	"workers":       "analysis.workers",
	"cache-size":    "analysis.cache_size",
	"max-file-size": "sources.max_file_size",
}

type observabilityInit func(observability.Config) (observability.Providers, error)

// AnalyzeCommand holds the state of the analyze command.
type AnalyzeCommand struct {
	configPath     string
	failOnFindings bool

	v      *viper.Viper
	initFn observabilityInit
}

// NewAnalyzeCommand creates and configures the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	return newAnalyzeCommandWithDeps(observability.Init)
}

func newAnalyzeCommandWithDeps(initFn observabilityInit) *cobra.Command {
	ac := &AnalyzeCommand{
		v:      config.New(),
		initFn: initFn,
	}

	cmd := &cobra.Command{
		Use:   "analyze [roots...]",
		Short: "Report unused and missing explicit dependencies",
		Long: `Analyze the sources under the given roots (default: configured roots)
against the declared dependency manifest and the resolved dependency graph.

Unused dependencies are declared but not matched by any import. Missing
explicit dependencies are imported directly but only reachable transitively.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          ac.run,
	}

	cmd.Flags().StringVar(&ac.configPath, "config", "", "Config file (default: search depscan.yaml)")
	cmd.Flags().String("manifest", "dependencies.yaml", "Declared dependency manifest")
	cmd.Flags().String("resolution", ".depscan/resolution.json", "Resolved dependency graph (JSON)")
	cmd.Flags().StringP("format", "f", config.FormatText, "Output format: text, json, yaml")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().Bool("suggest-patch", false, "Print a diff of the suggested manifest edit")
	cmd.Flags().Int("workers", analysis.DefaultWorkers, "Number of sources read concurrently")
	cmd.Flags().Int("cache-size", source.DefaultCacheEntries, "Source contents kept in memory (0 = no cache)")
	cmd.Flags().String("max-file-size", "1MB", "Skip source files larger than this (e.g. '512KB'; 0 = no limit)")
	cmd.Flags().BoolVar(&ac.failOnFindings, "fail-on-findings", false, "Exit with an error when anything is reported")

	for flag, key := range flagBindings {
		// BindPFlag only fails for a nil flag.
		_ = ac.v.BindPFlag(key, cmd.Flags().Lookup(flag))
	}

	return cmd
}

func (ac *AnalyzeCommand) run(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		ac.v.Set("sources.roots", args)
	}

	cfg, err := config.Load(ac.v, ac.configPath)
	if err != nil {
		return err
	}

	providers, err := ac.initFn(ac.observabilityConfig(cmd, cfg))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("telemetry shutdown failed", "error", shutdownErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return ac.analyze(ctx, cmd.OutOrStdout(), cfg, providers)
}

func (ac *AnalyzeCommand) analyze(
	ctx context.Context, out io.Writer, cfg *config.Config, providers observability.Providers,
) error {
	logger := providers.Logger

	metrics, err := observability.NewAnalysisMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	phases, err := observability.NewPhaseMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	phase := func(name string, fn func(context.Context) error) error {
		return observability.RunPhase(ctx, providers.Tracer, phases, name, fn)
	}

	var (
		sources    []source.Text
		stats      source.Stats
		cache      *source.Cache
		declared   []depmodel.Declared
		resolution *depmodel.Resolution
		result     *analysis.Result
	)

	err = phase("collect", func(ctx context.Context) error {
		maxSize, sizeErr := cfg.MaxFileSizeBytes()
		if sizeErr != nil {
			return sizeErr
		}

		var collectErr error

		sources, stats, collectErr = source.Collect(ctx, logger, source.CollectOptions{
			Roots:       cfg.Sources.Roots,
			Extensions:  cfg.Sources.Extensions,
			Languages:   cfg.Sources.Languages,
			MaxFileSize: maxSize,
			SkipVendor:  cfg.Sources.SkipVendor,
		})
		if collectErr != nil {
			return fmt.Errorf("collect sources: %w", collectErr)
		}

		logger.DebugContext(ctx, "sources collected", "files", stats.Files, "skipped", stats.Skipped)

		return nil
	})
	if err != nil {
		return err
	}

	if cfg.Analysis.CacheSize > 0 {
		cache = source.NewCache(cfg.Analysis.CacheSize)
		sources = cache.Wrap(sources)
	}

	err = phase("load", func(context.Context) error {
		var loadErr error

		declared, loadErr = manifest.LoadDeclared(cfg.Manifest.Path)
		if loadErr != nil {
			return loadErr
		}

		resolution, loadErr = manifest.LoadResolution(cfg.Resolution.Path)

		return loadErr
	})
	if err != nil {
		return err
	}

	analyzer := analysis.New(logger,
		analysis.WithTracer(providers.Tracer),
		analysis.WithMetrics(metrics),
		analysis.WithWorkers(cfg.Analysis.Workers),
	)

	err = phase("detect", func(ctx context.Context) error {
		var analyzeErr error

		result, analyzeErr = analyzer.Analyze(ctx, sources, declared, resolution)
		if errors.Is(analyzeErr, analysis.ErrNoResolution) {
			return fmt.Errorf("%w (expected %s)", analyzeErr, cfg.Resolution.Path)
		}

		return analyzeErr
	})
	if err != nil {
		return err
	}

	if cache != nil {
		metrics.RecordCache(ctx, cache.Hits(), cache.Misses())
		logger.DebugContext(ctx, "source cache", "hits", cache.Hits(), "misses", cache.Misses(), "entries", cache.Len())
	}

	err = phase("render", func(context.Context) error {
		return ac.write(out, cfg, result, stats, declared, logger)
	})
	if err != nil {
		return err
	}

	if ac.failOnFindings && !result.Clean() {
		return fmt.Errorf("%w: %d unused, %d missing", ErrFindings, len(result.Unused), len(result.Missing))
	}

	return nil
}

func (ac *AnalyzeCommand) write(
	out io.Writer, cfg *config.Config, result *analysis.Result, stats source.Stats,
	declared []depmodel.Declared, logger *slog.Logger,
) error {
	switch cfg.Output.Format {
	case config.FormatJSON:
		return report.WriteJSON(out, result)
	case config.FormatYAML:
		return report.WriteYAML(out, result)
	}

	term := report.DetectTerminal()
	term.NoColor = term.NoColor || cfg.Output.NoColor

	err := report.Render(out, result, report.Options{
		Terminal: term,
		Summary:  fmt.Sprintf("%s under %s", stats, strings.Join(cfg.Sources.Roots, ", ")),
	})
	if err != nil {
		return err
	}

	if !cfg.Output.SuggestPatch || result.Clean() {
		return nil
	}

	text, err := os.ReadFile(cfg.Manifest.Path)
	if err != nil {
		return fmt.Errorf("read manifest for patch: %w", err)
	}

	patch := report.SuggestPatch(cfg.Manifest.Path, string(text), declared, result)
	if patch == "" {
		logger.Debug("suggested patch is empty")

		return nil
	}

	_, err = fmt.Fprintf(out, "\nSuggested manifest edit:\n%s", patch)
	if err != nil {
		return fmt.Errorf("write patch: %w", err)
	}

	return nil
}

func (ac *AnalyzeCommand) observabilityConfig(cmd *cobra.Command, cfg *config.Config) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.LogLevel = observability.ParseLogLevel(cfg.Logging.Level)
	obsCfg.LogJSON = cfg.Logging.Format == "json"
	obsCfg.LogOutput = cmd.ErrOrStderr()

	if boolFlag(cmd, "verbose") {
		obsCfg.LogLevel = slog.LevelDebug
	}

	if boolFlag(cmd, "quiet") {
		obsCfg.LogLevel = slog.LevelError
	}

	return obsCfg
}

func boolFlag(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}

	return value
}
