package pipeline

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/buildevents/internal/config"
	"github.com/elskow/buildevents/internal/pipeline/builder"
	"github.com/elskow/buildevents/internal/pipeline/validator"
)

// Module expects an ExecutionListener to be provided elsewhere.
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig, logger *zap.Logger) builder.FactoryInterface {
					return builder.NewRunnerFactory(&config.Build, logger)
				},
			),
			fx.Annotate(
				func() validator.Validator {
					return validator.NewPlanValidator()
				},
			),
			fx.Annotate(
				func(
					config *config.AppConfig,
					runnerFactory builder.FactoryInterface,
					validator validator.Validator,
					listener ExecutionListener,
					logger *zap.Logger,
				) *Pipeline {
					return NewPipeline(&config.Build, runnerFactory, validator, listener, logger)
				},
			),
		),
	)
}
