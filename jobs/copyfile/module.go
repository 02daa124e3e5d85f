// Package copyfile is the simplest job implementation: it copies exactly
// one concrete input to one concrete output.
package copyfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/asifkhan89/en-deep-sub000/internal/ctxlog"
	"github.com/asifkhan89/en-deep-sub000/internal/job"
	"github.com/asifkhan89/en-deep-sub000/internal/registry"
	"github.com/asifkhan89/en-deep-sub000/internal/wildcard"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register binds the implementation under its type name.
func (m *Module) Register(r *registry.Registry) {
	r.Register("copyfile", &registry.Implementation{New: newRunner})
}

type runner struct {
	spec registry.Spec
}

// newRunner validates arity and pattern constraints: one input, one output,
// both fully concrete at run time.
func newRunner(spec registry.Spec) (registry.Runner, error) {
	if len(spec.Inputs) != 1 {
		return nil, job.Errorf(job.ErrWrongInputCount, spec.ID, "expected 1 input, got %d", len(spec.Inputs))
	}
	if len(spec.Outputs) != 1 {
		return nil, job.Errorf(job.ErrWrongOutputCount, spec.ID, "expected 1 output, got %d", len(spec.Outputs))
	}
	if wildcard.KindOf(spec.Inputs[0]) != wildcard.KindNone {
		return nil, job.Errorf(job.ErrMissingPatterns, spec.ID, "input %q must be concrete", spec.Inputs[0])
	}
	if wildcard.KindOf(spec.Outputs[0]) != wildcard.KindNone {
		return nil, job.Errorf(job.ErrMissingPatterns, spec.ID, "output %q must be concrete", spec.Outputs[0])
	}
	return &runner{spec: spec}, nil
}

// Perform copies the input file to the output path.
func (r *runner) Perform(ctx context.Context, env *registry.Env) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Copying file.", "from", r.spec.Inputs[0], "to", r.spec.Outputs[0])
	return CopyFile(r.spec.Inputs[0], r.spec.Outputs[0])
}

// CopyFile copies src to dst, creating dst's directory as needed. Shared by
// the fan-out style implementations in sibling packages.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating output directory for %s: %w", dst, err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
