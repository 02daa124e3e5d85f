package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/asifkhan89/en-deep-sub000/internal/app"
	"github.com/asifkhan89/en-deep-sub000/internal/cli"
	"github.com/asifkhan89/en-deep-sub000/internal/config"
	"github.com/asifkhan89/en-deep-sub000/internal/hclconf"
	"github.com/asifkhan89/en-deep-sub000/internal/yamlconf"
)

// main is the entrypoint for the endeep application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical config errors, so we recover here to provide
	// a clean exit message to the user.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(outW, "A critical startup error occurred: %v\n", r)
			os.Exit(1)
		}
	}()

	endeepApp := app.NewApp(outW, appConfig, selectLoader(appConfig.ScenarioPath))
	return endeepApp.Run(context.Background())
}

// selectLoader picks the scenario format by file extension. Directories
// default to HCL, matching the primary scenario format.
func selectLoader(path string) config.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlconf.NewLoader()
	default:
		return hclconf.NewLoader()
	}
}
