package analysis

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/depscan/pkg/depmodel"
	"github.com/Sumatoshi-tech/depscan/pkg/source"
)

const importKeyword = "import "

type missingCandidate struct {
	node    depmodel.Resolved
	needles []string
}

// FindMissing reports, in resolution order, every resolved dependency that is
// not declared and that at least one import matches. Each finding lists the
// sources that literally contain "import <path>" for one of the matched
// paths, in source order, and the declared dependencies that reach it through
// the resolution graph.
func FindMissing(
	ctx context.Context,
	logger *slog.Logger,
	declared []depmodel.Declared,
	resolution *depmodel.Resolution,
	imports ImportSet,
	sources []source.Text,
	workers int,
) []MissingFinding {
	var candidates []missingCandidate

	for _, node := range resolution.Undeclared(declared) {
		matched := matchingImports(node.Organization, node.Name, imports)
		if len(matched) == 0 {
			continue
		}

		needles := make([]string, len(matched))
		for i, path := range matched {
			needles[i] = importKeyword + path
		}

		candidates = append(candidates, missingCandidate{node: node, needles: needles})
	}

	findings := make([]MissingFinding, 0, len(candidates))
	if len(candidates) == 0 {
		return findings
	}

	files := attributeFiles(ctx, logger, sources, candidates, workers)
	via := pulledInBy(declared, resolution, candidates)

	for i, c := range candidates {
		findings = append(findings, MissingFinding{
			Module:      c.node.Module(),
			Version:     c.node.Version,
			UsedInFiles: files[i],
			Via:         via[c.node.Module()],
			Reason:      ReasonMissing,
		})
	}

	return findings
}

// pulledInBy maps each candidate module to the declared modules whose
// transitive closure contains it, in declared order.
func pulledInBy(
	declared []depmodel.Declared,
	resolution *depmodel.Resolution,
	candidates []missingCandidate,
) map[string][]string {
	wanted := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		wanted[c.node.Module()] = true
	}

	via := make(map[string][]string)
	walked := make(map[string]bool, len(declared))

	for _, d := range declared {
		root := d.Module()
		if walked[root] {
			continue
		}

		walked[root] = true

		for _, node := range resolution.Transitive(root) {
			if key := node.Module(); wanted[key] {
				via[key] = append(via[key], root)
			}
		}
	}

	return via
}

// attributeFiles rescans the original sources and returns, per candidate, the
// distinct IDs of the sources containing any of its needles.
func attributeFiles(
	ctx context.Context,
	logger *slog.Logger,
	sources []source.Text,
	candidates []missingCandidate,
	workers int,
) [][]string {
	hits := make([][]int, len(sources))

	var g errgroup.Group

	g.SetLimit(max(workers, 1))

	for i, src := range sources {
		g.Go(func() error {
			text, err := src.Content()
			if err != nil {
				logger.DebugContext(ctx, "skipping unreadable source during attribution",
					"source", src.ID(), "error", err)

				return nil
			}

			for ci, c := range candidates {
				if containsAny(text, c.needles) {
					hits[i] = append(hits[i], ci)
				}
			}

			return nil
		})
	}

	// Workers never return errors.
	_ = g.Wait()

	files := make([][]string, len(candidates))
	seen := make([]map[string]bool, len(candidates))

	for i := range candidates {
		files[i] = make([]string, 0)
		seen[i] = make(map[string]bool)
	}

	for si, cis := range hits {
		id := sources[si].ID()

		for _, ci := range cis {
			if seen[ci][id] {
				continue
			}

			seen[ci][id] = true
			files[ci] = append(files[ci], id)
		}
	}

	return files
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}

	return false
}
