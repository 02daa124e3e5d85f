package app

import (
	"context"
	"fmt"

	"github.com/asifkhan89/en-deep-sub000/internal/build"
	"github.com/asifkhan89/en-deep-sub000/internal/ctxlog"
	"github.com/asifkhan89/en-deep-sub000/internal/scheduler"
)

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.logger.Debug("Expanding templates into the execution plan...")
	pl, err := build.Build(ctx, a.scenario, a.registry, build.Options{
		SkipExisting: a.config.SkipExisting,
		WorkDir:      a.config.WorkDir,
	})
	if err != nil {
		return fmt.Errorf("failed to build execution plan: %w", err)
	}
	a.logger.Debug("Execution plan built.", "instance_count", pl.Len())
	a.logger.Info("Job types registered:", "types", a.registry.Types())

	if pl.Len() == 0 {
		a.logger.Warn("No runnable instances in plan, execution not required.")
		return nil
	}

	a.logger.Info("Starting scenario execution.", "scenario", a.scenario.Name, "workers", a.config.WorkerCount)
	sched := scheduler.New(pl, a.registry, a.config.WorkerCount)
	if err := sched.Run(ctx); err != nil {
		return err
	}
	a.logger.Info("Scenario execution finished.")

	a.logger.Debug("App.Run method finished.")
	return nil
}
