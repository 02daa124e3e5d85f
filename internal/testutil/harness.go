package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asifkhan89/en-deep-sub000/internal/app"
	"github.com/asifkhan89/en-deep-sub000/internal/config"
	"github.com/asifkhan89/en-deep-sub000/internal/hclconf"
	"github.com/asifkhan89/en-deep-sub000/internal/registry"
	"github.com/asifkhan89/en-deep-sub000/internal/yamlconf"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Dir       string
}

// RunScenarioTest provides a standardized harness for running integration
// tests using a default background context.
func RunScenarioTest(t *testing.T, files map[string]string, scenario string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunScenarioTestWithContext(context.Background(), t, files, scenario, modules...)
}

// RunScenarioTestWithContext writes the given file tree into a temporary
// directory, runs the full application against the named scenario file and
// captures its log output. Relative paths inside scenario files resolve
// against the temporary directory.
func RunScenarioTestWithContext(ctx context.Context, t *testing.T, files map[string]string, scenario string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", ".tmp-integration-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	appConfig := &app.Config{
		ScenarioPath: filepath.Join(tmpDir, scenario),
		WorkDir:      tmpDir,
		LogLevel:     "debug",
		LogFormat:    "text",
		WorkerCount:  4,
	}

	logBuffer := &SafeBuffer{}

	// The working directory is deliberately left alone: relative locators
	// in scenario files must resolve against WorkDir, not the process cwd.
	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, appConfig, loaderFor(scenario), modules...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
			Dir:       tmpDir,
		}
	}

	runErr := testApp.Run(ctx)

	if os.Getenv("ENDEEP_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
		Dir:       tmpDir,
	}
}

func loaderFor(scenario string) config.Loader {
	switch strings.ToLower(filepath.Ext(scenario)) {
	case ".yaml", ".yml":
		return yamlconf.NewLoader()
	default:
		return hclconf.NewLoader()
	}
}
