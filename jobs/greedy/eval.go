package greedy

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/asifkhan89/en-deep-sub000/internal/ctxlog"
	"github.com/asifkhan89/en-deep-sub000/internal/job"
	"github.com/asifkhan89/en-deep-sub000/internal/registry"
)

type evalRunner struct {
	spec  registry.Spec
	round int
	order int
}

func newEvalRunner(spec registry.Spec) (registry.Runner, error) {
	if len(spec.Inputs) != 1 {
		return nil, job.Errorf(job.ErrWrongInputCount, spec.ID, "expected 1 input, got %d", len(spec.Inputs))
	}
	if len(spec.Outputs) != 1 {
		return nil, job.Errorf(job.ErrWrongOutputCount, spec.ID, "expected 1 output, got %d", len(spec.Outputs))
	}
	round, err := spec.Params.Int(paramRound)
	if err != nil {
		return nil, job.Errorf(job.ErrInvalidParams, spec.ID, "%v", err)
	}
	order, err := spec.Params.Int(paramOrder)
	if err != nil {
		return nil, job.Errorf(job.ErrInvalidParams, spec.ID, "%v", err)
	}
	return &evalRunner{spec: spec, round: round, order: order}, nil
}

// Perform scores one candidate. The skeleton scoring is line count with a
// small per-order penalty, which keeps runs deterministic and makes the
// first candidate of a round win ties.
func (r *evalRunner) Perform(ctx context.Context, env *registry.Env) error {
	logger := ctxlog.FromContext(ctx)

	src, err := os.Open(r.spec.Inputs[0])
	if err != nil {
		return job.WrapIO(r.spec.ID, err)
	}
	defer src.Close()

	lines := 0
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		lines++
	}
	if err := scanner.Err(); err != nil {
		return job.WrapIO(r.spec.ID, err)
	}

	score := float64(lines) - 0.1*float64(r.order)
	logger.Debug("Candidate evaluated.", "instance", r.spec.ID, "round", r.round, "order", r.order, "score", score)

	out := r.spec.Outputs[0]
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return job.WrapIO(r.spec.ID, err)
	}
	body := fmt.Sprintf("score\t%g\nsource\t%s\norder\t%d\n", score, r.spec.Inputs[0], r.order)
	if err := os.WriteFile(out, []byte(body), 0o644); err != nil {
		return job.WrapIO(r.spec.ID, err)
	}
	return nil
}
