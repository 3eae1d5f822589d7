package builder

import (
	"context"

	"github.com/elskow/buildevents/internal/pipeline/types"
)

// Runner executes a single step of a project.
type Runner interface {
	Run(ctx context.Context, step types.Step) error
}

type Options struct {
	WorkDir     string
	Shell       string
	Environment map[string]string
}
