// Package sample implements selective fan-out: it picks a bounded random
// subset of the viable expansion keys and replicates each group's matched
// file to the corresponding output location.
package sample

import (
	"context"
	"math/rand"

	"github.com/asifkhan89/en-deep-sub000/internal/ctxlog"
	"github.com/asifkhan89/en-deep-sub000/internal/expand"
	"github.com/asifkhan89/en-deep-sub000/internal/job"
	"github.com/asifkhan89/en-deep-sub000/internal/registry"
	"github.com/asifkhan89/en-deep-sub000/internal/wildcard"
	"github.com/asifkhan89/en-deep-sub000/jobs/copyfile"
	"github.com/asifkhan89/en-deep-sub000/jobs/merge"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register binds the implementation under its type name.
func (m *Module) Register(r *registry.Registry) {
	r.Register("sample", &registry.Implementation{New: newRunner, KeepPatterns: true})
}

type runner struct {
	spec  registry.Spec
	count int
	seed  int64
}

// newRunner requires pairwise input/output patterns plus a numeric `count`
// parameter bounding the sample. An optional `seed` makes runs repeatable.
func newRunner(spec registry.Spec) (registry.Runner, error) {
	if len(spec.Inputs) == 0 {
		return nil, job.Errorf(job.ErrWrongInputCount, spec.ID, "expected at least 1 input pattern")
	}
	if len(spec.Outputs) != len(spec.Inputs) {
		return nil, job.Errorf(job.ErrWrongOutputCount, spec.ID,
			"expected %d outputs to pair with the inputs, got %d", len(spec.Inputs), len(spec.Outputs))
	}
	for _, loc := range spec.Inputs {
		if wildcard.KindOf(loc) != wildcard.KindSingle {
			return nil, job.Errorf(job.ErrMissingPatterns, spec.ID, "input %q must contain exactly one `*`", loc)
		}
	}
	for _, loc := range spec.Outputs {
		if wildcard.KindOf(loc) != wildcard.KindSingle {
			return nil, job.Errorf(job.ErrMissingPatterns, spec.ID, "output %q must contain exactly one `*`", loc)
		}
	}

	count, err := spec.Params.Int("count")
	if err != nil {
		return nil, job.Errorf(job.ErrInvalidParams, spec.ID, "%v", err)
	}
	if count < 1 {
		return nil, job.Errorf(job.ErrInvalidParams, spec.ID, "count must be positive, got %d", count)
	}
	seed, err := spec.Params.IntDefault("seed", 1)
	if err != nil {
		return nil, job.Errorf(job.ErrInvalidParams, spec.ID, "%v", err)
	}
	return &runner{spec: spec, count: count, seed: int64(seed)}, nil
}

// Perform groups the inputs, samples the viable keys and copies each
// selected key's files to the key-substituted output paths. Unselected
// keys are never touched.
func (r *runner) Perform(ctx context.Context, env *registry.Env) error {
	logger := ctxlog.FromContext(ctx)

	paths, err := merge.ScanPatterns(r.spec.Inputs)
	if err != nil {
		return job.Errorf(job.ErrIO, r.spec.ID, "scanning input patterns: %v", err)
	}
	groups, err := expand.SortInputs(ctx, paths, r.spec.Inputs)
	if err != nil {
		return err
	}
	keys := expand.ViableKeys(groups...)
	if len(keys) == 0 {
		return job.Errorf(job.ErrInvalidData, r.spec.ID,
			"no viable expansions: no key is matched by all of %v", r.spec.Inputs)
	}

	chosen := expand.SampleKeys(keys, r.count, rand.New(rand.NewSource(r.seed)))
	logger.Debug("Sampled expansion keys.", "viable", len(keys), "chosen", len(chosen))

	for _, key := range chosen {
		for i, g := range groups {
			dst := wildcard.Replace(r.spec.Outputs[i], key)
			if err := copyfile.CopyFile(g[key], dst); err != nil {
				return job.Errorf(job.ErrIO, r.spec.ID, "replicating key %q: %v", key, err)
			}
		}
	}
	return nil
}
