// Package analysis compares a project's declared dependencies with the
// imports its sources actually use. It reports declared dependencies that no
// import matches and transitive dependencies that are imported directly
// without being declared.
//
// The matching is lexical and heuristic: imports are pulled out of raw
// source lines, and dependencies are associated with imports through
// lower-cased package prefixes guessed from their organization and name.
package analysis

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/depscan/pkg/source"
)

// importLine captures the path of a single import line up to the first
// whitespace, brace or parenthesis.
var importLine = regexp.MustCompile(`^\s*import\s+([^\s{(]+)`)

// ImportSet is the set of distinct import paths found in a source collection.
type ImportSet map[string]struct{}

// Sorted returns the paths in lexical order.
func (s ImportSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}

	sort.Strings(out)

	return out
}

// ParseImportLine returns the import path of a single line, if it has one.
// Selector groups are dropped: "import a.b.{C, D}" yields "a.b".
func ParseImportLine(line string) (string, bool) {
	m := importLine.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}

	path := strings.TrimRight(strings.TrimSpace(m[1]), ".;")
	if path == "" {
		return "", false
	}

	return path, true
}

// importsOf returns the import paths of one text in line order.
func importsOf(text string) []string {
	var out []string

	for line := range strings.Lines(text) {
		if path, ok := ParseImportLine(line); ok {
			out = append(out, path)
		}
	}

	return out
}

// ExtractImports builds the import set of all sources. A source that cannot
// be read is logged at debug level and contributes nothing; extraction never
// fails as a whole. Up to workers sources are read concurrently.
func ExtractImports(ctx context.Context, logger *slog.Logger, sources []source.Text, workers int) ImportSet {
	perSource := make([][]string, len(sources))

	var g errgroup.Group

	g.SetLimit(max(workers, 1))

	for i, src := range sources {
		g.Go(func() error {
			text, err := src.Content()
			if err != nil {
				logger.DebugContext(ctx, "skipping unreadable source", "source", src.ID(), "error", err)

				return nil
			}

			perSource[i] = importsOf(text)

			return nil
		})
	}

	// Workers never return errors.
	_ = g.Wait()

	set := make(ImportSet)

	for _, paths := range perSource {
		for _, p := range paths {
			set[p] = struct{}{}
		}
	}

	return set
}
