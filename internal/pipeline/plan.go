package pipeline

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/elskow/buildevents/internal/pipeline/types"
)

// LoadPlan reads a YAML build plan. Project directories are resolved
// relative to the plan file; an empty dir means the plan's own directory.
func LoadPlan(fs afero.Fs, path string) (*types.Plan, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read build plan: %w", err)
	}

	var plan types.Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil {
		return nil, fmt.Errorf("failed to parse build plan: %w", err)
	}

	baseDir := filepath.Dir(path)
	for i := range plan.Projects {
		dir := plan.Projects[i].Dir
		if !filepath.IsAbs(dir) {
			plan.Projects[i].Dir = filepath.Join(baseDir, dir)
		}
	}

	return &plan, nil
}
