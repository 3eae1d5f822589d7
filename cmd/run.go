package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/elskow/buildevents/internal/app"
	"github.com/elskow/buildevents/internal/config"
	"github.com/elskow/buildevents/internal/pipeline"
)

func newRunCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [plan]",
		Short: "Run a build plan and write the build events report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if len(args) == 1 {
				cfg.Build.Plan = args[0]
			}
			err = runBuild(cmd.Context(), cfg)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "build failed:", err)
			}
			return err
		},
	}

	cmd.Flags().String("plan", "", "build plan file (default: buildevents.yml)")
	cmd.Flags().StringP("output", "o", "", "report path (default: target/buildevents.json)")
	cmd.Flags().String("trace", "", "optional Chrome trace output path")
	cmd.Flags().IntP("workers", "w", 0, "number of parallel workers (default: number of CPUs)")
	cmd.Flags().String("shell", "", "shell used to run steps (default: bash)")
	cmd.Flags().String("log-level", "", "log level (debug, info, warn, error)")
	return cmd
}

func runBuild(ctx context.Context, cfg *config.AppConfig) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		p   *pipeline.Pipeline
		fs  afero.Fs
		log *zap.Logger
	)
	application := fx.New(
		fx.Supply(cfg),
		app.Module(),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{
				Logger: log,
			}
		}),
		fx.Populate(&p, &fs, &log),
	)
	if err := application.Err(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	startCtx, cancelStart := context.WithTimeout(ctx, application.StartTimeout())
	defer cancelStart()
	if err := application.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	// Stopping the application writes the report, also after a failed build.
	defer func() {
		stopCtx, cancelStop := context.WithTimeout(context.Background(), application.StopTimeout())
		defer cancelStop()
		if stopErr := application.Stop(stopCtx); stopErr != nil && err == nil {
			err = fmt.Errorf("failed to stop: %w", stopErr)
		}
	}()

	plan, err := pipeline.LoadPlan(fs, cfg.Build.Plan)
	if err != nil {
		return err
	}

	result, err := p.Execute(ctx, plan)
	if err != nil {
		return err
	}

	log.Info("build succeeded",
		zap.Int("steps", len(result.Steps)),
		zap.Duration("duration", result.Duration))
	return nil
}
