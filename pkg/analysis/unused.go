package analysis

import "github.com/Sumatoshi-tech/depscan/pkg/depmodel"

// FindUnused reports, in declared order, every declared dependency for which
// no import starts with one of its package guesses.
func FindUnused(declared []depmodel.Declared, imports ImportSet) []UnusedFinding {
	findings := make([]UnusedFinding, 0)

	for _, dep := range declared {
		if len(matchingImports(dep.Organization, dep.Name, imports)) > 0 {
			continue
		}

		findings = append(findings, UnusedFinding{
			Dependency: dep,
			Reason:     ReasonUnused,
		})
	}

	return findings
}
