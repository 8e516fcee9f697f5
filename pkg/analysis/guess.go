package analysis

import (
	"sort"
	"strings"
)

// PackageGuesses returns the distinct lower-cased package prefixes that code
// importing organization:name would plausibly use: the organization, the
// name, and organization.name, each with hyphens turned into dots. Empty
// candidates are dropped. The result is sorted.
func PackageGuesses(organization, name string) []string {
	candidates := []string{
		normalizeGuess(organization),
		normalizeGuess(name),
		normalizeGuess(organization + "." + name),
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))

	for _, c := range candidates {
		if c == "" || c == "." || seen[c] {
			continue
		}

		seen[c] = true
		out = append(out, c)
	}

	sort.Strings(out)

	return out
}

func normalizeGuess(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "-", "."))
}

// matchingImports returns the imports, in lexical order, whose lower-cased
// form starts with any guess for organization:name. Both detectors go through
// here so they always agree on what "plausibly from this dependency" means.
func matchingImports(organization, name string, imports ImportSet) []string {
	guesses := PackageGuesses(organization, name)
	if len(guesses) == 0 {
		return nil
	}

	var out []string

	for _, imp := range imports.Sorted() {
		lower := strings.ToLower(imp)

		for _, g := range guesses {
			if strings.HasPrefix(lower, g) {
				out = append(out, imp)

				break
			}
		}
	}

	return out
}
