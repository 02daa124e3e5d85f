// Package hclconf is the HCL front end for scenario declarations: `job`
// blocks with parameters and patterned input/output locators.
package hclconf

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/asifkhan89/en-deep-sub000/internal/config"
	"github.com/asifkhan89/en-deep-sub000/internal/ctxlog"
	"github.com/asifkhan89/en-deep-sub000/internal/fsutil"
	"github.com/asifkhan89/en-deep-sub000/internal/job"
)

// Loader is the HCL-specific implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL scenario loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes the top-level blocks of one scenario file.
type fileRoot struct {
	Jobs []*jobBlock `hcl:"job,block"`
}

// jobBlock is the raw form of one `job` block.
type jobBlock struct {
	ID     string         `hcl:"id,label"`
	Type   string         `hcl:"type"`
	Params hcl.Expression `hcl:"params,optional"`
	In     []string       `hcl:"in,optional"`
	Out    []string       `hcl:"out,optional"`
	Temp   bool           `hcl:"temp,optional"`
}

// Load parses a scenario from a single .hcl file or a directory of them.
func (l *Loader) Load(ctx context.Context, path string) (*config.Scenario, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("discovering scenario files under %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl scenario files found under %s", path)
	}
	logger.Debug("Discovered scenario files.", "count", len(files))

	scenario := &config.Scenario{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}
	parser := hclparse.NewParser()
	seen := make(map[string]string)

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", file, diags)
		}

		for _, block := range root.Jobs {
			if prev, dup := seen[block.ID]; dup {
				return nil, fmt.Errorf("job id %q declared in both %s and %s", block.ID, prev, file)
			}
			seen[block.ID] = file

			tpl, err := translateJob(block)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			scenario.Templates = append(scenario.Templates, tpl)
		}
	}

	logger.Debug("Scenario loaded.", "name", scenario.Name, "templates", len(scenario.Templates))
	return scenario, nil
}

// translateJob turns a decoded block into the format-agnostic template.
func translateJob(block *jobBlock) (*job.Template, error) {
	params, err := paramsFromExpression(block.Params)
	if err != nil {
		return nil, fmt.Errorf("job %q: %w", block.ID, err)
	}
	return &job.Template{
		ID:      block.ID,
		Type:    block.Type,
		Params:  params,
		Inputs:  block.In,
		Outputs: block.Out,
		Temp:    block.Temp,
	}, nil
}

// paramsFromExpression evaluates the params attribute and flattens it into
// the engine's string-to-string mapping. Numeric and boolean values are
// rendered through cty's own string conversion so "3" and 3 declare the
// same parameter.
func paramsFromExpression(expr hcl.Expression) (job.Params, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluating params: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("params must be an object, got %s", val.Type().FriendlyName())
	}

	params := make(job.Params)
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		s, err := convert.Convert(v, cty.String)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", k.AsString(), err)
		}
		if s.IsNull() {
			return nil, fmt.Errorf("param %q is null", k.AsString())
		}
		params[k.AsString()] = s.AsString()
	}
	return params, nil
}
