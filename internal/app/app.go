package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/asifkhan89/en-deep-sub000/internal/config"
	"github.com/asifkhan89/en-deep-sub000/internal/ctxlog"
	"github.com/asifkhan89/en-deep-sub000/internal/registry"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ScenarioPath string
	WorkDir      string
	LogFormat    string
	LogLevel     string
	WorkerCount  int
	SkipExisting bool
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	scenario *config.Scenario
	config   *Config
	runID    string
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	runID := uuid.NewString()
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, runID, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	scenario, err := loader.Load(ctx, appConfig.ScenarioPath)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load scenario: %w", err))
	}
	logger.Debug("Scenario loaded.", "name", scenario.Name, "templates", len(scenario.Templates))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All job modules registered.", "count", len(modules))

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		scenario: scenario,
		config:   appConfig,
		runID:    runID,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// RunID returns the unique identifier attached to this run's log records.
func (a *App) RunID() string {
	return a.runID
}
