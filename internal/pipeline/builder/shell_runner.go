package builder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/elskow/buildevents/internal/pipeline/types"
)

type ShellRunner struct {
	options *Options
	logger  *zap.Logger
}

func NewShellRunner(options *Options, logger *zap.Logger) *ShellRunner {
	return &ShellRunner{
		options: options,
		logger:  logger,
	}
}

func (r *ShellRunner) Run(ctx context.Context, step types.Step) error {
	if strings.TrimSpace(step.Run) == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, r.options.Shell, "-c", step.Run)
	cmd.Dir = r.options.WorkDir
	cmd.Env = os.Environ()
	for k, v := range r.options.Environment {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	if output.Len() > 0 {
		r.logger.Debug("step output",
			zap.String("goal", step.Goal),
			zap.String("execution_id", step.ExecutionID()),
			zap.String("output", output.String()))
	}
	if err != nil {
		return fmt.Errorf("step %s failed: %w", step.ExecutionID(), err)
	}

	return nil
}
