// Package greedy implements a round-based greedy search skeleton: each
// round evaluates a set of candidate artifacts in parallel and a select
// step picks the winner, appending the next round to the plan until the
// round budget is spent. It is the reference user of runtime plan mutation:
// whatever awaited the original job is transparently re-wired to wait for
// the final select.
package greedy

import (
	"context"
	"fmt"
	"strings"

	"github.com/asifkhan89/en-deep-sub000/internal/ctxlog"
	"github.com/asifkhan89/en-deep-sub000/internal/job"
	"github.com/asifkhan89/en-deep-sub000/internal/plan"
	"github.com/asifkhan89/en-deep-sub000/internal/registry"
	"github.com/asifkhan89/en-deep-sub000/internal/wildcard"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register binds the public `greedy` type and the two internal step types
// its rounds are made of.
func (m *Module) Register(r *registry.Registry) {
	r.Register("greedy", &registry.Implementation{New: newRunner})
	r.Register("greedy.eval", &registry.Implementation{New: newEvalRunner})
	r.Register("greedy.select", &registry.Implementation{New: newSelectRunner})
}

// Parameter names carried from round to round.
const (
	paramRounds = "rounds"
	paramBranch = "branch"
	paramRound  = "round"
	paramOrder  = "order"
	paramBase   = "base"
	paramSource = "source"
)

type runner struct {
	spec   registry.Spec
	rounds int
	branch int
}

// newRunner requires one concrete input (the data to search over) and
// exactly one `**` output: the set of round artifacts is enumerated at run
// time, not when the plan is built.
func newRunner(spec registry.Spec) (registry.Runner, error) {
	if len(spec.Inputs) != 1 {
		return nil, job.Errorf(job.ErrWrongInputCount, spec.ID, "expected 1 input, got %d", len(spec.Inputs))
	}
	if wildcard.KindOf(spec.Inputs[0]) != wildcard.KindNone {
		return nil, job.Errorf(job.ErrMissingPatterns, spec.ID, "input %q must be concrete", spec.Inputs[0])
	}
	if len(spec.Outputs) != 1 {
		return nil, job.Errorf(job.ErrWrongOutputCount, spec.ID, "expected 1 output, got %d", len(spec.Outputs))
	}
	if wildcard.KindOf(spec.Outputs[0]) != wildcard.KindDouble {
		return nil, job.Errorf(job.ErrMissingPatterns, spec.ID,
			"output %q must carry `**`: the round artifacts are enumerated at run time", spec.Outputs[0])
	}

	rounds, err := spec.Params.IntDefault(paramRounds, 2)
	if err != nil {
		return nil, job.Errorf(job.ErrInvalidParams, spec.ID, "%v", err)
	}
	branch, err := spec.Params.IntDefault(paramBranch, 2)
	if err != nil {
		return nil, job.Errorf(job.ErrInvalidParams, spec.ID, "%v", err)
	}
	if rounds < 1 || branch < 1 {
		return nil, job.Errorf(job.ErrInvalidParams, spec.ID,
			"rounds and branch must be positive, got %d and %d", rounds, branch)
	}
	return &runner{spec: spec, rounds: rounds, branch: branch}, nil
}

// Perform seeds round 1. The select step of each round appends the next
// one, so the plan grows while it is being executed.
func (r *runner) Perform(ctx context.Context, env *registry.Env) error {
	logger := ctxlog.FromContext(ctx)
	base := strings.Replace(r.spec.Outputs[0], wildcard.Double, wildcard.Single, 1)
	logger.Info("Seeding greedy search.", "rounds", r.rounds, "branch", r.branch)

	batch, edges, tail := buildRound(r.spec.ID, roundSpec{
		round:  1,
		rounds: r.rounds,
		branch: r.branch,
		base:   base,
		source: r.spec.Inputs[0],
	})
	return env.Appender.AppendChildren(r.spec.ID, batch, edges, tail)
}

// roundSpec carries everything one round needs to declare the next.
type roundSpec struct {
	round  int
	rounds int
	branch int
	base   string
	source string
}

// buildRound declares one round: branch eval candidates plus the select
// tail depending on all of them.
func buildRound(parentID string, rs roundSpec) (batch []*job.Instance, edges []plan.Edge, tail string) {
	selectID := job.ChildID(parentID, "select")

	var candidates []string
	for i := 0; i < rs.branch; i++ {
		evalID := job.ChildID(parentID, fmt.Sprintf("eval%d", i))
		out := job.WorkFileN(rs.base, rs.round, i)
		candidates = append(candidates, out)
		batch = append(batch, &job.Instance{
			ID:      evalID,
			Type:    "greedy.eval",
			Params:  job.Params{paramRound: itoa(rs.round), paramOrder: itoa(i)},
			Inputs:  []string{rs.source},
			Outputs: []string{out},
		})
		edges = append(edges, plan.Edge{Prereq: evalID, Dependent: selectID})
	}

	batch = append(batch, &job.Instance{
		ID:   selectID,
		Type: "greedy.select",
		Params: job.Params{
			paramRound:  itoa(rs.round),
			paramRounds: itoa(rs.rounds),
			paramBranch: itoa(rs.branch),
			paramBase:   rs.base,
			paramSource: rs.source,
		},
		Inputs:  candidates,
		Outputs: []string{job.WorkFileBest(rs.base, rs.round)},
	})
	return batch, edges, selectID
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
