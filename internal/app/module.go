package app

import (
	"context"

	"github.com/spf13/afero"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/buildevents/internal/config"
	"github.com/elskow/buildevents/internal/listener"
	"github.com/elskow/buildevents/internal/logging"
	"github.com/elskow/buildevents/internal/metrics"
	"github.com/elskow/buildevents/internal/pipeline"
)

// Module combines all application modules. The *config.AppConfig is
// supplied by the caller.
func Module() fx.Option {
	return fx.Options(
		// Logger
		fx.Provide(newLogger),

		// Filesystem
		fx.Provide(newFs),

		// Build events
		fx.Provide(newMetricStore),
		fx.Provide(newListener),
		fx.Provide(func(l *listener.Listener) pipeline.ExecutionListener {
			return l
		}),

		// Orchestrator
		pipeline.Module(),

		// Write the report when the session ends
		fx.Invoke(registerHooks),
	)
}

func newLogger(config *config.AppConfig) (*zap.Logger, error) {
	return logging.NewLogger(config.Env, config.Log.Level)
}

func newFs() afero.Fs {
	return afero.NewOsFs()
}

func newMetricStore(fs afero.Fs) *metrics.MetricStore {
	return metrics.NewMetricStore(fs)
}

func newListener(
	config *config.AppConfig,
	store *metrics.MetricStore,
	fs afero.Fs,
	log *zap.Logger,
) *listener.Listener {
	return listener.New(store, fs, &config.Report, log)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	l *listener.Listener,
	log *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("build session started", zap.String("session_id", l.SessionID()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// A missing report must not fail the build itself.
			if err := l.SessionEnded(); err != nil {
				log.Error("failed to write build events report", zap.Error(err))
			}
			return nil
		},
	})
}
