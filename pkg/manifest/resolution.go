package manifest

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/depscan/pkg/depmodel"
)

// ErrResolutionInvalid is returned when a resolution file violates the schema.
var ErrResolutionInvalid = errors.New("invalid resolution")

//go:embed resolution.schema.json
var resolutionSchema []byte

type resolutionFile struct {
	Dependencies []depmodel.Resolved `json:"dependencies"`
}

// LoadResolution reads the resolved dependency graph at path. A missing file
// is not an error: it yields a nil resolution, which the analyzer rejects as
// "no resolution available".
func LoadResolution(path string) (*depmodel.Resolution, error) {
	if path == "" {
		return nil, nil //nolint:nilnil // absent resolution is a defined state.
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil //nolint:nilnil // absent resolution is a defined state.
	}

	if err != nil {
		return nil, fmt.Errorf("read resolution: %w", err)
	}

	return ParseResolution(data)
}

// ParseResolution validates data against the resolution schema and decodes it.
func ParseResolution(data []byte) (*depmodel.Resolution, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(resolutionSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolutionInvalid, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			msgs = append(msgs, verr.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrResolutionInvalid, strings.Join(msgs, "; "))
	}

	var file resolutionFile

	err = json.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolutionInvalid, err)
	}

	return depmodel.NewResolution(file.Dependencies), nil
}
