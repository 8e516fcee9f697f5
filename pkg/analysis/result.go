package analysis

import "github.com/Sumatoshi-tech/depscan/pkg/depmodel"

// Fixed finding reasons.
const (
	ReasonUnused  = "no import in the analyzed sources matches this dependency's package names"
	ReasonMissing = "imported directly but only available as a transitive dependency"
)

// UnusedFinding is a declared dependency that no import plausibly uses.
type UnusedFinding struct {
	Dependency depmodel.Declared `json:"dependency" yaml:"dependency"`
	Reason     string            `json:"reason"     yaml:"reason"`
}

// MissingFinding is a transitive dependency that sources import directly
// without declaring it. Version is the resolved version, not a constraint.
// Via lists the declared organization:name keys it is reachable from; it is
// empty when the resolution carries no edges leading to it.
type MissingFinding struct {
	Module      string   `json:"module"        yaml:"module"`
	Version     string   `json:"version"       yaml:"version"`
	UsedInFiles []string `json:"usedInFiles"   yaml:"usedInFiles"`
	Via         []string `json:"via,omitempty" yaml:"via,omitempty"`
	Reason      string   `json:"reason"        yaml:"reason"`
}

// Coordinates returns organization:name:version.
func (m MissingFinding) Coordinates() string {
	return m.Module + ":" + m.Version
}

// Result is the outcome of one analysis run.
type Result struct {
	Unused  []UnusedFinding  `json:"unused"  yaml:"unused"`
	Missing []MissingFinding `json:"missing" yaml:"missing"`
}

// Clean reports whether the run produced no findings.
func (r *Result) Clean() bool {
	return len(r.Unused) == 0 && len(r.Missing) == 0
}
