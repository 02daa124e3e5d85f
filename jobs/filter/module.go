// Package filter keeps the rows of a tab-separated file whose selected
// column equals a required value.
package filter

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/asifkhan89/en-deep-sub000/internal/ctxlog"
	"github.com/asifkhan89/en-deep-sub000/internal/job"
	"github.com/asifkhan89/en-deep-sub000/internal/registry"
	"github.com/asifkhan89/en-deep-sub000/internal/wildcard"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register binds the implementation under its type name.
func (m *Module) Register(r *registry.Registry) {
	r.Register("filter", &registry.Implementation{New: newRunner})
}

type runner struct {
	spec   registry.Spec
	column int
	value  string
}

// newRunner requires one concrete input, one concrete output, a numeric
// `column` index and the `value` rows must carry there.
func newRunner(spec registry.Spec) (registry.Runner, error) {
	if len(spec.Inputs) != 1 {
		return nil, job.Errorf(job.ErrWrongInputCount, spec.ID, "expected 1 input, got %d", len(spec.Inputs))
	}
	if len(spec.Outputs) != 1 {
		return nil, job.Errorf(job.ErrWrongOutputCount, spec.ID, "expected 1 output, got %d", len(spec.Outputs))
	}
	for _, loc := range []string{spec.Inputs[0], spec.Outputs[0]} {
		if wildcard.KindOf(loc) != wildcard.KindNone {
			return nil, job.Errorf(job.ErrMissingPatterns, spec.ID, "locator %q must be concrete", loc)
		}
	}

	column, err := spec.Params.Int("column")
	if err != nil {
		return nil, job.Errorf(job.ErrInvalidParams, spec.ID, "%v", err)
	}
	if column < 0 {
		return nil, job.Errorf(job.ErrInvalidParams, spec.ID, "column must not be negative, got %d", column)
	}
	value, ok := spec.Params["value"]
	if !ok {
		return nil, job.Errorf(job.ErrInvalidParams, spec.ID, "parameter %q is required", "value")
	}
	return &runner{spec: spec, column: column, value: value}, nil
}

// Perform streams the input, writing only matching rows. A row with too few
// columns is a data error: the file does not have the shape the scenario
// promised.
func (r *runner) Perform(ctx context.Context, env *registry.Env) error {
	logger := ctxlog.FromContext(ctx)

	in, err := os.Open(r.spec.Inputs[0])
	if err != nil {
		return job.Errorf(job.ErrIO, r.spec.ID, "opening input: %v", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(r.spec.Outputs[0]), 0755); err != nil {
		return job.Errorf(job.ErrIO, r.spec.ID, "creating output directory: %v", err)
	}
	out, err := os.Create(r.spec.Outputs[0])
	if err != nil {
		return job.Errorf(job.ErrIO, r.spec.ID, "creating output: %v", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	kept, total := 0, 0
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		total++
		fields := strings.Split(line, "\t")
		if r.column >= len(fields) {
			return job.Errorf(job.ErrInvalidData, r.spec.ID,
				"row %d has %d columns, need at least %d", total, len(fields), r.column+1)
		}
		if fields[r.column] != r.value {
			continue
		}
		if _, err := w.WriteString(line + "\n"); err != nil {
			return job.Errorf(job.ErrIO, r.spec.ID, "writing output: %v", err)
		}
		kept++
	}
	if err := scanner.Err(); err != nil {
		return job.Errorf(job.ErrIO, r.spec.ID, "reading input: %v", err)
	}
	if err := w.Flush(); err != nil {
		return job.Errorf(job.ErrIO, r.spec.ID, "flushing output: %v", err)
	}

	logger.Debug("Filtered rows.", "kept", kept, "total", total)
	return out.Close()
}
