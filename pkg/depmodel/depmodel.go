// Package depmodel defines the dependency data model shared by the manifest
// loaders, the analysis engine, and the report renderers.
package depmodel

// Position locates a declared dependency inside the manifest it came from.
type Position struct {
	File   string `json:"file,omitempty"   yaml:"file,omitempty"`
	Line   int    `json:"line,omitempty"   yaml:"line,omitempty"`
	Column int    `json:"column,omitempty" yaml:"column,omitempty"`
}

// IsZero reports whether the position carries no location.
func (p Position) IsZero() bool {
	return p.File == "" && p.Line == 0 && p.Column == 0
}

// Declared is a dependency explicitly listed in project configuration.
// Version may be a concrete version or a constraint.
type Declared struct {
	Organization string   `json:"organization"       yaml:"organization"`
	Name         string   `json:"name"               yaml:"name"`
	Version      string   `json:"version"            yaml:"version"`
	Position     Position `json:"position,omitzero"  yaml:"position,omitempty"`
}

// Module returns the organization:name identity key.
func (d Declared) Module() string {
	return ModuleKey(d.Organization, d.Name)
}

// Coordinates returns organization:name:version.
func (d Declared) Coordinates() string {
	return Coordinates(d.Organization, d.Name, d.Version)
}

// Resolved is a node of the resolved transitive dependency graph.
type Resolved struct {
	Organization string   `json:"organization"        yaml:"organization"`
	Name         string   `json:"name"                yaml:"name"`
	Version      string   `json:"version"             yaml:"version"`
	DependsOn    []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

// Module returns the organization:name identity key.
func (r Resolved) Module() string {
	return ModuleKey(r.Organization, r.Name)
}

// Coordinates returns organization:name:version.
func (r Resolved) Coordinates() string {
	return Coordinates(r.Organization, r.Name, r.Version)
}

// ModuleKey joins organization and name into the identity key.
func ModuleKey(organization, name string) string {
	return organization + ":" + name
}

// Coordinates joins organization, name and version.
func Coordinates(organization, name, version string) string {
	return organization + ":" + name + ":" + version
}

// SameModule reports whether a declared and a resolved dependency denote the
// same module. Versions are ignored.
func SameModule(d Declared, r Resolved) bool {
	return d.Organization == r.Organization && d.Name == r.Name
}

// IsDeclared reports whether r is identity-matched by any declared dependency.
func IsDeclared(declared []Declared, r Resolved) bool {
	for _, d := range declared {
		if SameModule(d, r) {
			return true
		}
	}

	return false
}
