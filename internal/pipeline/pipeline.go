package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elskow/buildevents/internal/config"
	"github.com/elskow/buildevents/internal/pipeline/builder"
	"github.com/elskow/buildevents/internal/pipeline/types"
	"github.com/elskow/buildevents/internal/pipeline/validator"
)

// ExecutionListener receives step lifecycle callbacks. Calls arrive
// concurrently from every worker.
type ExecutionListener interface {
	StepStarted(ev types.Event)
	StepSucceeded(ev types.Event)
	StepFailed(ev types.Event)
	StepSkipped(ev types.Event)
}

type NoopListener struct{}

func (NoopListener) StepStarted(types.Event)   {}
func (NoopListener) StepSucceeded(types.Event) {}
func (NoopListener) StepFailed(types.Event)    {}
func (NoopListener) StepSkipped(types.Event)   {}

type Pipeline struct {
	config        *config.BuildConfig
	runnerFactory builder.FactoryInterface
	validator     validator.Validator
	listener      ExecutionListener
	logger        *zap.Logger
	results       []types.StepResult
	mu            sync.Mutex
}

func NewPipeline(
	config *config.BuildConfig,
	runnerFactory builder.FactoryInterface,
	validator validator.Validator,
	listener ExecutionListener,
	logger *zap.Logger,
) *Pipeline {
	if listener == nil {
		listener = NoopListener{}
	}
	return &Pipeline{
		config:        config,
		runnerFactory: runnerFactory,
		validator:     validator,
		listener:      listener,
		logger:        logger,
	}
}

// Execute builds every project of the plan. Projects are spread over a
// fixed pool of workers; the steps of one project run in order on the
// worker that picked it up. The first failure cancels the build.
func (p *Pipeline) Execute(ctx context.Context, plan *types.Plan) (*types.BuildResult, error) {
	startTime := time.Now()

	if err := p.validator.ValidatePlan(plan); err != nil {
		return nil, fmt.Errorf("build plan validation failed: %w", err)
	}

	p.mu.Lock()
	p.results = make([]types.StepResult, 0)
	p.mu.Unlock()

	workers := p.config.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(plan.Projects) {
		workers = len(plan.Projects)
	}

	p.logger.Info("starting build",
		zap.Int("projects", len(plan.Projects)),
		zap.Int("workers", workers))

	g, gctx := errgroup.WithContext(ctx)
	projects := make(chan types.Project)

	g.Go(func() error {
		defer close(projects)
		for i, project := range plan.Projects {
			select {
			case projects <- project:
			case <-gctx.Done():
				for _, rest := range plan.Projects[i:] {
					p.cancelSteps(rest, rest.Steps)
				}
				return nil
			}
		}
		return nil
	})

	for w := 1; w <= workers; w++ {
		workerID := int64(w)
		g.Go(func() error {
			for project := range projects {
				if err := p.buildProject(gctx, workerID, project); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	result := &types.BuildResult{
		Success:  err == nil,
		Steps:    p.snapshotResults(),
		Duration: time.Since(startTime),
		Error:    err,
	}

	if err != nil {
		p.logger.Error("build failed",
			zap.Duration("duration", result.Duration),
			zap.Error(err))
		return result, err
	}

	p.logger.Info("build finished",
		zap.Int("steps", len(result.Steps)),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (p *Pipeline) buildProject(ctx context.Context, workerID int64, project types.Project) error {
	name := project.Name()
	log := p.logger.With(
		zap.String("project", name),
		zap.Int64("worker_id", workerID))

	runner, err := p.runnerFactory.CreateRunner(project)
	if err != nil {
		p.cancelSteps(project, project.Steps)
		return fmt.Errorf("failed to create runner for %s: %w", name, err)
	}

	for i, step := range project.Steps {
		if ctx.Err() != nil {
			p.cancelSteps(project, project.Steps[i:])
			return nil
		}

		ev := project.EventFor(step, workerID)
		stepName := step.Name()

		if step.Skip {
			p.listener.StepSkipped(ev)
			p.addResult(types.StepResult{Project: name, Step: stepName, WorkerID: workerID, Status: types.StepStatusSkipped})
			log.Info("step skipped", zap.String("step", stepName))
			continue
		}

		p.listener.StepStarted(ev)
		stepStart := time.Now()
		err := runner.Run(ctx, step)
		duration := time.Since(stepStart)

		if err != nil {
			p.listener.StepFailed(ev)
			p.addResult(types.StepResult{Project: name, Step: stepName, WorkerID: workerID, Status: types.StepStatusFailed, Duration: duration, Error: err})
			log.Error("step failed",
				zap.String("step", stepName),
				zap.Duration("duration", duration),
				zap.Error(err))
			p.cancelSteps(project, project.Steps[i+1:])
			return fmt.Errorf("project %s: %w", name, err)
		}

		p.listener.StepSucceeded(ev)
		p.addResult(types.StepResult{Project: name, Step: stepName, WorkerID: workerID, Status: types.StepStatusSuccess, Duration: duration})
		log.Info("step finished",
			zap.String("step", stepName),
			zap.Duration("duration", duration))
	}

	return nil
}

func (p *Pipeline) cancelSteps(project types.Project, steps []types.Step) {
	for _, step := range steps {
		p.addResult(types.StepResult{
			Project: project.Name(),
			Step:    step.Name(),
			Status:  types.StepStatusCancelled,
		})
	}
}

func (p *Pipeline) addResult(r types.StepResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, r)
}

func (p *Pipeline) snapshotResults() []types.StepResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.StepResult, len(p.results))
	copy(out, p.results)
	return out
}
