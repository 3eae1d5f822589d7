package validator

import (
	"errors"
	"fmt"

	"github.com/elskow/buildevents/internal/pipeline/types"
)

type PlanValidator struct{}

func NewPlanValidator() *PlanValidator {
	return &PlanValidator{}
}

// ValidatePlan reports every problem found, not only the first.
func (v *PlanValidator) ValidatePlan(plan *types.Plan) error {
	if plan == nil || len(plan.Projects) == 0 {
		return fmt.Errorf("plan has no projects")
	}

	var errs []error
	projects := make(map[string]bool)
	for i, project := range plan.Projects {
		if err := v.validateProject(project); err != nil {
			errs = append(errs, fmt.Errorf("project %d: %w", i, err))
			continue
		}

		name := project.Name()
		if projects[name] {
			errs = append(errs, fmt.Errorf("duplicate project %s", name))
			continue
		}
		projects[name] = true

		if err := v.validateSteps(project); err != nil {
			errs = append(errs, fmt.Errorf("project %s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

func (v *PlanValidator) validateProject(project types.Project) error {
	if project.GroupID == "" {
		return fmt.Errorf("group_id is required")
	}
	if project.ArtifactID == "" {
		return fmt.Errorf("artifact_id is required")
	}
	return nil
}

func (v *PlanValidator) validateSteps(project types.Project) error {
	// Two steps sharing phase, goal and execution id would collide in the report.
	seen := make(map[string]bool)
	var errs []error
	for i, step := range project.Steps {
		if step.Goal == "" {
			errs = append(errs, fmt.Errorf("step %d: goal is required", i))
			continue
		}
		if step.Phase == "" {
			errs = append(errs, fmt.Errorf("step %d: phase is required", i))
			continue
		}

		id := step.Name()
		if seen[id] {
			errs = append(errs, fmt.Errorf("duplicate step %s", id))
			continue
		}
		seen[id] = true
	}
	return errors.Join(errs...)
}
