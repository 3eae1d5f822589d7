package pipeline

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elskow/buildevents/internal/pipeline/types"
)

const samplePlan = `
projects:
  - group_id: com.example
    artifact_id: core
    dir: core
    steps:
      - phase: compile
        goal: compile
        run: make compile
      - phase: test
        goal: test
        id: unit
        skip: true
  - group_id: com.example
    artifact_id: app
    dir: /abs/app
    steps:
      - phase: package
        goal: jar
`

func TestLoadPlan(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/repo/buildevents.yml", []byte(samplePlan), 0644))

	plan, err := LoadPlan(fs, "/repo/buildevents.yml")
	require.NoError(t, err)
	require.Len(t, plan.Projects, 2)

	core := plan.Projects[0]
	assert.Equal(t, "/repo/core", core.Dir)
	require.Len(t, core.Steps, 2)
	assert.Equal(t, types.Step{Phase: "compile", Goal: "compile", Run: "make compile"}, core.Steps[0])
	assert.Equal(t, "default-compile", core.Steps[0].ExecutionID())
	assert.Equal(t, "unit", core.Steps[1].ExecutionID())
	assert.True(t, core.Steps[1].Skip)

	assert.Equal(t, "/abs/app", plan.Projects[1].Dir)
}

func TestLoadPlan_EmptyDirUsesPlanDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/repo/plan.yml", []byte("projects:\n  - group_id: g\n    artifact_id: a\n"), 0644))

	plan, err := LoadPlan(fs, "/repo/plan.yml")
	require.NoError(t, err)
	assert.Equal(t, "/repo", plan.Projects[0].Dir)
}

func TestLoadPlan_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.yml", []byte("projects: [unterminated"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/unknown.yml", []byte("projects:\n  - group_id: g\n    colour: red\n"), 0644))

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: "/missing.yml"},
		{name: "malformed yaml", path: "/bad.yml"},
		{name: "unknown field", path: "/unknown.yml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPlan(fs, tt.path)
			assert.Error(t, err)
		})
	}
}
