// Package merge joins several wildcard input groups by expansion key and
// concatenates, per viable key, the matched file of every group into one
// output. Keys that would alias across groups are rejected before anything
// is written.
package merge

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/asifkhan89/en-deep-sub000/internal/ctxlog"
	"github.com/asifkhan89/en-deep-sub000/internal/expand"
	"github.com/asifkhan89/en-deep-sub000/internal/fsutil"
	"github.com/asifkhan89/en-deep-sub000/internal/job"
	"github.com/asifkhan89/en-deep-sub000/internal/registry"
	"github.com/asifkhan89/en-deep-sub000/internal/wildcard"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register binds the implementation under its type name. The engine leaves
// the input patterns unexpanded; grouping happens here at run time.
func (m *Module) Register(r *registry.Registry) {
	r.Register("merge", &registry.Implementation{New: newRunner, KeepPatterns: true})
}

type runner struct {
	spec registry.Spec
}

// newRunner requires at least one single-wildcard input group and exactly
// one single-wildcard output to substitute each viable key into.
func newRunner(spec registry.Spec) (registry.Runner, error) {
	if len(spec.Inputs) == 0 {
		return nil, job.Errorf(job.ErrWrongInputCount, spec.ID, "expected at least 1 input pattern")
	}
	for _, in := range spec.Inputs {
		if wildcard.KindOf(in) != wildcard.KindSingle {
			return nil, job.Errorf(job.ErrMissingPatterns, spec.ID, "input %q must contain exactly one `*`", in)
		}
	}
	if len(spec.Outputs) != 1 {
		return nil, job.Errorf(job.ErrWrongOutputCount, spec.ID, "expected 1 output, got %d", len(spec.Outputs))
	}
	if wildcard.KindOf(spec.Outputs[0]) != wildcard.KindSingle {
		return nil, job.Errorf(job.ErrMissingPatterns, spec.ID, "output %q must contain exactly one `*`", spec.Outputs[0])
	}
	return &runner{spec: spec}, nil
}

// Perform scans the input groups, verifies no cross-group aliasing, and
// writes one concatenated output per viable key.
func (r *runner) Perform(ctx context.Context, env *registry.Env) error {
	logger := ctxlog.FromContext(ctx)

	paths, err := ScanPatterns(r.spec.Inputs)
	if err != nil {
		return job.Errorf(job.ErrIO, r.spec.ID, "scanning input patterns: %v", err)
	}
	groups, err := expand.SortInputs(ctx, paths, r.spec.Inputs)
	if err != nil {
		return err
	}
	if err := expand.MergeCollisions(groups, r.spec.Inputs); err != nil {
		return err
	}

	keys := expand.ViableKeys(groups...)
	if len(keys) == 0 {
		return job.Errorf(job.ErrInvalidData, r.spec.ID,
			"no viable expansions: no key is matched by all of %v", r.spec.Inputs)
	}
	logger.Debug("Merging groups.", "groups", len(groups), "keys", len(keys))

	for _, key := range keys {
		dst := wildcard.Replace(r.spec.Outputs[0], key)
		var srcs []string
		for _, g := range groups {
			srcs = append(srcs, g[key])
		}
		if err := concatFiles(srcs, dst); err != nil {
			return job.Errorf(job.ErrIO, r.spec.ID, "merging key %q: %v", key, err)
		}
		logger.Debug("Merged key.", "key", key, "output", dst)
	}
	return nil
}

// ScanPatterns lists every existing file matched by any of the given
// single-wildcard patterns, deduplicated and sorted by directory listing
// order. Shared by the sampling implementation.
func ScanPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string

	dirs := make(map[string]struct{})
	for _, pat := range patterns {
		dirs[filepath.Dir(pat)] = struct{}{}
	}
	for dir := range dirs {
		files, err := fsutil.ListDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, f := range files {
			for _, pat := range patterns {
				if _, ok := wildcard.Match(f, pat); ok {
					if _, dup := seen[f]; !dup {
						seen[f] = struct{}{}
						out = append(out, f)
					}
					break
				}
			}
		}
	}
	return out, nil
}

// concatFiles appends the sources to dst in order.
func concatFiles(srcs []string, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	for _, src := range srcs {
		in, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("opening %s: %w", src, err)
		}
		if _, err := io.Copy(out, in); err != nil {
			in.Close()
			return fmt.Errorf("appending %s: %w", src, err)
		}
		in.Close()
	}
	return out.Close()
}
