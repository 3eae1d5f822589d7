package builder

import (
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"github.com/elskow/buildevents/internal/config"
	"github.com/elskow/buildevents/internal/pipeline/types"
)

type Factory struct {
	config *config.BuildConfig
	logger *zap.Logger
}

type FactoryInterface interface {
	CreateRunner(project types.Project) (Runner, error)
}

func NewRunnerFactory(config *config.BuildConfig, logger *zap.Logger) *Factory {
	return &Factory{
		config: config,
		logger: logger,
	}
}

func (f *Factory) CreateRunner(project types.Project) (Runner, error) {
	shell, err := exec.LookPath(f.config.Shell)
	if err != nil {
		return nil, fmt.Errorf("shell %q not available: %w", f.config.Shell, err)
	}

	if project.Dir != "" {
		info, err := os.Stat(project.Dir)
		if err != nil {
			return nil, fmt.Errorf("project directory does not exist: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("project path is not a directory: %s", project.Dir)
		}
	}

	return NewShellRunner(&Options{
		WorkDir: project.Dir,
		Shell:   shell,
		Environment: map[string]string{
			"BUILDEVENTS_GROUP_ID":    project.GroupID,
			"BUILDEVENTS_ARTIFACT_ID": project.ArtifactID,
		},
	}, f.logger.With(zap.String("project", project.Name()))), nil
}
