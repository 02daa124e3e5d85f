package greedy

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/asifkhan89/en-deep-sub000/internal/ctxlog"
	"github.com/asifkhan89/en-deep-sub000/internal/job"
	"github.com/asifkhan89/en-deep-sub000/internal/registry"
	"github.com/asifkhan89/en-deep-sub000/jobs/copyfile"
)

type selectRunner struct {
	spec registry.Spec
	rs   roundSpec
}

func newSelectRunner(spec registry.Spec) (registry.Runner, error) {
	if len(spec.Inputs) < 1 {
		return nil, job.Errorf(job.ErrWrongInputCount, spec.ID, "expected at least 1 candidate, got 0")
	}
	if len(spec.Outputs) != 1 {
		return nil, job.Errorf(job.ErrWrongOutputCount, spec.ID, "expected 1 output, got %d", len(spec.Outputs))
	}
	rs := roundSpec{
		base:   spec.Params[paramBase],
		source: spec.Params[paramSource],
	}
	if rs.base == "" || rs.source == "" {
		return nil, job.Errorf(job.ErrInvalidParams, spec.ID, "params %q and %q are required", paramBase, paramSource)
	}
	var err error
	if rs.round, err = spec.Params.Int(paramRound); err != nil {
		return nil, job.Errorf(job.ErrInvalidParams, spec.ID, "%v", err)
	}
	if rs.rounds, err = spec.Params.Int(paramRounds); err != nil {
		return nil, job.Errorf(job.ErrInvalidParams, spec.ID, "%v", err)
	}
	if rs.branch, err = spec.Params.Int(paramBranch); err != nil {
		return nil, job.Errorf(job.ErrInvalidParams, spec.ID, "%v", err)
	}
	return &selectRunner{spec: spec, rs: rs}, nil
}

// Perform picks the highest-scoring candidate of the round, records the
// round statistics, and either promotes the winner or appends the next
// round. Promoting is a copy, so the best artifact stands alone even after
// temporary candidates are collected.
func (r *selectRunner) Perform(ctx context.Context, env *registry.Env) error {
	logger := ctxlog.FromContext(ctx)

	bestIdx := -1
	bestScore := 0.0
	var stats strings.Builder
	for i, candidate := range r.spec.Inputs {
		score, err := readScore(r.spec.ID, candidate)
		if err != nil {
			return err
		}
		fmt.Fprintf(&stats, "%s\t%g\n", candidate, score)
		if bestIdx < 0 || score > bestScore {
			bestIdx, bestScore = i, score
		}
	}

	statsPath := job.WorkFileStats(r.rs.base, r.rs.round)
	if err := os.WriteFile(statsPath, []byte(stats.String()), 0o644); err != nil {
		return job.WrapIO(r.spec.ID, err)
	}
	winner := r.spec.Inputs[bestIdx]
	if err := copyfile.CopyFile(winner, r.spec.Outputs[0]); err != nil {
		return job.WrapIO(r.spec.ID, err)
	}
	logger.Info("Round selected.", "instance", r.spec.ID, "round", r.rs.round, "winner", winner, "score", bestScore)

	if r.rs.round >= r.rs.rounds {
		return nil
	}

	// The next round is appended while this step is still running, so the
	// dependents re-wired to us move on to the next select.
	next := r.rs
	next.round++
	batch, edges, tail := buildRound(r.spec.ID, next)
	return env.Appender.AppendChildren(r.spec.ID, batch, edges, tail)
}

// readScore parses the score line an eval step writes first.
func readScore(task, path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, job.WrapIO(task, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, job.Errorf(job.ErrInvalidData, task, "candidate %q is empty", path)
	}
	fields := strings.Split(scanner.Text(), "\t")
	if len(fields) != 2 || fields[0] != "score" {
		return 0, job.Errorf(job.ErrInvalidData, task, "candidate %q has no score line", path)
	}
	score, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, job.Errorf(job.ErrInvalidData, task, "candidate %q score %q: %v", path, fields[1], err)
	}
	return score, nil
}
