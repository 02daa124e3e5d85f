// Package yamlconf is the YAML front end for scenario declarations. It
// accepts the same model as the HCL loader, for scenarios generated by
// outside tooling.
package yamlconf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/asifkhan89/en-deep-sub000/internal/config"
	"github.com/asifkhan89/en-deep-sub000/internal/ctxlog"
	"github.com/asifkhan89/en-deep-sub000/internal/fsutil"
	"github.com/asifkhan89/en-deep-sub000/internal/job"
)

// Loader is the YAML-specific implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new YAML scenario loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot mirrors the top level of one scenario document.
type fileRoot struct {
	Jobs []jobEntry `yaml:"jobs"`
}

// jobEntry is the raw form of one declared job.
type jobEntry struct {
	ID     string         `yaml:"id"`
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params"`
	In     []string       `yaml:"in"`
	Out    []string       `yaml:"out"`
	Temp   bool           `yaml:"temp"`
}

// Load parses a scenario from a single file or a directory of .yaml/.yml
// files.
func (l *Loader) Load(ctx context.Context, path string) (*config.Scenario, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(path, ".yaml", ".yml")
	if err != nil {
		return nil, fmt.Errorf("discovering scenario files under %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .yaml or .yml scenario files found under %s", path)
	}
	logger.Debug("Discovered scenario files.", "count", len(files))

	scenario := &config.Scenario{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}
	seen := make(map[string]string)

	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		var root fileRoot
		if err := yaml.Unmarshal(raw, &root); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", file, err)
		}

		for _, entry := range root.Jobs {
			if prev, dup := seen[entry.ID]; dup {
				return nil, fmt.Errorf("job id %q declared in both %s and %s", entry.ID, prev, file)
			}
			seen[entry.ID] = file

			params, err := flattenParams(entry.Params)
			if err != nil {
				return nil, fmt.Errorf("%s: job %q: %w", file, entry.ID, err)
			}
			scenario.Templates = append(scenario.Templates, &job.Template{
				ID:      entry.ID,
				Type:    entry.Type,
				Params:  params,
				Inputs:  entry.In,
				Outputs: entry.Out,
				Temp:    entry.Temp,
			})
		}
	}

	logger.Debug("Scenario loaded.", "name", scenario.Name, "templates", len(scenario.Templates))
	return scenario, nil
}

// flattenParams renders YAML scalar values into the engine's flat
// string-to-string mapping.
func flattenParams(raw map[string]any) (job.Params, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	params := make(job.Params, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			params[k] = val
		case bool:
			params[k] = strconv.FormatBool(val)
		case int:
			params[k] = strconv.Itoa(val)
		case float64:
			params[k] = strconv.FormatFloat(val, 'g', -1, 64)
		default:
			return nil, fmt.Errorf("param %q: unsupported value type %T", k, v)
		}
	}
	return params, nil
}
