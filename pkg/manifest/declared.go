// Package manifest loads the declared dependency list and the resolved
// dependency graph that the analysis consumes.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/depscan/pkg/depmodel"
)

// ErrManifestInvalid is returned when the manifest cannot be understood.
var ErrManifestInvalid = errors.New("invalid manifest")

const dependenciesKey = "dependencies"

type declaredEntry struct {
	Organization string `yaml:"organization"`
	Name         string `yaml:"name"`
	Version      string `yaml:"version"`
}

// LoadDeclared reads the manifest at path.
func LoadDeclared(path string) ([]depmodel.Declared, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return ParseDeclared(path, data)
}

// ParseDeclared decodes a manifest. Entries are either mappings with
// organization, name and version keys, or "organization:name:version"
// strings; "::" cross-version separators are accepted. Each dependency of a
// block list keeps the line and column of its entry.
func ParseDeclared(file string, data []byte) ([]depmodel.Declared, error) {
	var doc yaml.Node

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestInvalid, err)
	}

	if len(doc.Content) == 0 {
		return []depmodel.Declared{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s:%d: top level must be a mapping", ErrManifestInvalid, file, root.Line)
	}

	deps := lookup(root, dependenciesKey)
	if deps == nil || deps.Tag == "!!null" {
		return []depmodel.Declared{}, nil
	}

	if deps.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: %s:%d: %q must be a list", ErrManifestInvalid, file, deps.Line, dependenciesKey)
	}

	out := make([]depmodel.Declared, 0, len(deps.Content))

	// Flow sequence entries share lines with the key and each other, so they
	// carry no line position.
	flow := deps.Style&yaml.FlowStyle != 0

	for _, item := range deps.Content {
		dep, itemErr := declaredFromNode(item)
		if itemErr != nil {
			return nil, fmt.Errorf("%w: %s:%d:%d: %w", ErrManifestInvalid, file, item.Line, item.Column, itemErr)
		}

		dep.Position = depmodel.Position{File: file}
		if !flow {
			dep.Position.Line, dep.Position.Column = item.Line, item.Column
		}

		out = append(out, dep)
	}

	return out, nil
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}

	return nil
}

var (
	errMissingIdentity = errors.New("organization and name are required")
	errBadCoordinates  = errors.New("expected organization:name[:version]")
	errBadEntry        = errors.New("entry must be a mapping or a coordinate string")
)

func declaredFromNode(item *yaml.Node) (depmodel.Declared, error) {
	switch item.Kind {
	case yaml.ScalarNode:
		return parseCoordinates(item.Value)
	case yaml.MappingNode:
		var entry declaredEntry

		err := item.Decode(&entry)
		if err != nil {
			return depmodel.Declared{}, err
		}

		dep := depmodel.Declared{
			Organization: strings.TrimSpace(entry.Organization),
			Name:         strings.TrimSpace(entry.Name),
			Version:      strings.TrimSpace(entry.Version),
		}

		if dep.Organization == "" || dep.Name == "" {
			return depmodel.Declared{}, errMissingIdentity
		}

		return dep, nil
	default:
		return depmodel.Declared{}, errBadEntry
	}
}

func parseCoordinates(raw string) (depmodel.Declared, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), "::", ":")
	parts := strings.Split(normalized, ":")

	if len(parts) < 2 || len(parts) > 3 {
		return depmodel.Declared{}, fmt.Errorf("%w: %q", errBadCoordinates, raw)
	}

	dep := depmodel.Declared{
		Organization: strings.TrimSpace(parts[0]),
		Name:         strings.TrimSpace(parts[1]),
	}

	if len(parts) == 3 {
		dep.Version = strings.TrimSpace(parts[2])
	}

	if dep.Organization == "" || dep.Name == "" {
		return depmodel.Declared{}, errMissingIdentity
	}

	return dep, nil
}
