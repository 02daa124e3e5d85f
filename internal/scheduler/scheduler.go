// Package scheduler drains a plan: it validates and dispatches READY
// instances to a worker pool, applies completion and failure transitions,
// and services append-children requests from running jobs.
//
// The plan has exactly one owner, the Run event loop. Workers only perform
// jobs and report results over channels; every graph mutation happens on
// the loop goroutine, which keeps the status-transition and acyclicity
// invariants single-threaded.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/asifkhan89/en-deep-sub000/internal/ctxlog"
	"github.com/asifkhan89/en-deep-sub000/internal/job"
	"github.com/asifkhan89/en-deep-sub000/internal/plan"
	"github.com/asifkhan89/en-deep-sub000/internal/registry"
	"github.com/asifkhan89/en-deep-sub000/internal/wildcard"
)

// Scheduler executes one plan to exhaustion.
type Scheduler struct {
	plan    *plan.Plan
	reg     *registry.Registry
	workers int
}

// New creates a scheduler over a freshly built plan.
func New(p *plan.Plan, reg *registry.Registry, workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{plan: p, reg: reg, workers: workers}
}

// workItem is one validated instance handed to the pool.
type workItem struct {
	inst   *job.Instance
	runner registry.Runner
}

// result is one finished execution reported back to the loop.
type result struct {
	id  string
	err error
}

// appendReq carries an AppendChildren call from a worker to the owner loop.
type appendReq struct {
	parentID string
	batch    []*job.Instance
	edges    []plan.Edge
	tail     string
	reply    chan error
}

// loopAppender implements registry.Appender by forwarding to the owner loop.
type loopAppender struct {
	requests chan<- appendReq
}

func (a *loopAppender) AppendChildren(parentID string, batch []*job.Instance, edges []plan.Edge, tail string) error {
	reply := make(chan error, 1)
	a.requests <- appendReq{parentID: parentID, batch: batch, edges: edges, tail: tail, reply: reply}
	return <-reply
}

// Run drains the plan and returns nil when every instance finished DONE.
// Otherwise it reports the failed instances with the first root cause
// wrapped. Independent branches keep executing after a failure; only the
// failed subtree is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	dispatch := make(chan workItem)
	results := make(chan result)
	appends := make(chan appendReq)
	env := &registry.Env{
		Appender: &loopAppender{requests: appends},
	}

	var wg sync.WaitGroup
	logger.Debug("Starting worker pool.", "workers", s.workers)
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, dispatch, results, env, workerID)
		}(i)
	}

	pending := s.collectReady(ctx)
	running := 0
	cancelled := false
	ctxDone := ctx.Done()

	for running > 0 || len(pending) > 0 {
		var dispatchCh chan workItem
		var next workItem
		if len(pending) > 0 {
			dispatchCh = dispatch
			next = pending[0]
		}

		select {
		case dispatchCh <- next:
			pending = pending[1:]
			running++

		case res := <-results:
			running--
			s.apply(ctx, res)
			if !cancelled {
				pending = append(pending, s.collectReady(ctx)...)
			}

		case req := <-appends:
			err := s.plan.AppendChildren(req.parentID, req.batch, req.edges, req.tail)
			if err == nil {
				logger.Debug("Children appended to plan.",
					"parent", req.parentID, "count", len(req.batch))
				if !cancelled {
					pending = append(pending, s.collectReady(ctx)...)
				}
			}
			req.reply <- err

		case <-ctxDone:
			ctxDone = nil
			cancelled = true
			logger.Warn("Context cancelled, no further instances will be dispatched.")
			for _, item := range pending {
				_ = s.plan.MarkFailed(item.inst.ID, ctx.Err())
			}
			pending = nil
		}
	}

	close(dispatch)
	wg.Wait()

	if cancelled {
		return fmt.Errorf("execution cancelled: %w", ctx.Err())
	}
	return s.verdict(ctx)
}

// collectReady validates every READY instance and moves it to RUNNING for
// dispatch. Validation failures fail the instance on the spot, before it
// ever runs, and are never masked.
func (s *Scheduler) collectReady(ctx context.Context) []workItem {
	logger := ctxlog.FromContext(ctx)
	var items []workItem
	for _, inst := range s.plan.Ready() {
		impl, ok := s.reg.Resolve(inst.Type)
		if !ok {
			err := job.Errorf(job.ErrInvalidParams, inst.ID, "unknown implementation type %q", inst.Type)
			logger.Error("Instance rejected.", "instance", inst.ID, "error", err)
			_ = s.plan.MarkFailed(inst.ID, err)
			continue
		}
		runner, err := impl.New(registry.Spec{
			ID:      inst.ID,
			Params:  inst.Params,
			Inputs:  inst.Inputs,
			Outputs: inst.Outputs,
		})
		if err != nil {
			logger.Error("Instance failed validation.", "instance", inst.ID, "error", err)
			_ = s.plan.MarkFailed(inst.ID, err)
			continue
		}
		if markErr := s.plan.MarkRunning(inst.ID); markErr != nil {
			logger.Error("Dispatch transition failed.", "instance", inst.ID, "error", markErr)
			continue
		}
		items = append(items, workItem{inst: inst, runner: runner})
	}
	return items
}

// apply records one execution result and garbage-collects temp artifacts
// whose consumers have all finished.
func (s *Scheduler) apply(ctx context.Context, res result) {
	logger := ctxlog.FromContext(ctx)
	if res.err != nil {
		logger.Error("Instance failed.", "instance", res.id, "error", res.err)
		if err := s.plan.MarkFailed(res.id, res.err); err != nil {
			logger.Error("Failure transition rejected.", "instance", res.id, "error", err)
		}
	} else {
		logger.Info("Instance finished.", "instance", res.id)
		if err := s.plan.MarkDone(res.id); err != nil {
			logger.Error("Completion transition rejected.", "instance", res.id, "error", err)
		}
	}
	s.collect(ctx, res.id)
}

// collect deletes the outputs of temp prerequisites that no instance will
// read again.
func (s *Scheduler) collect(ctx context.Context, id string) {
	logger := ctxlog.FromContext(ctx)
	for _, inst := range s.plan.Collectible(id) {
		for _, out := range inst.Outputs {
			if wildcard.KindOf(out) != wildcard.KindNone {
				continue
			}
			if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
				logger.Warn("Could not delete temp artifact.", "path", out, "error", err)
				continue
			}
			logger.Debug("Deleted temp artifact.", "instance", inst.ID, "path", out)
		}
	}
}

// worker is the processing loop of one pool member: perform, report, repeat.
func (s *Scheduler) worker(ctx context.Context, dispatch <-chan workItem, results chan<- result, env *registry.Env, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for item := range dispatch {
		workerLogger := logger.With("workerID", workerID, "instance", item.inst.ID)
		workerLogger.Info("Starting instance.", "type", item.inst.Type)

		err := item.runner.Perform(ctxlog.WithLogger(ctx, workerLogger), env)
		results <- result{id: item.inst.ID, err: job.WrapIO(item.inst.ID, err)}
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// verdict turns the drained plan into the run's return value.
func (s *Scheduler) verdict(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	failures := s.plan.Failures()
	if len(failures) == 0 {
		if !s.plan.Exhausted() {
			return fmt.Errorf("plan blocked: instances remain that can never run")
		}
		return nil
	}

	var failedIDs []string
	var rootCause error
	for _, f := range failures {
		logger.Error("Instance failed execution.", "instance", f.ID, "error", f.Err)
		// Skipped dependents are symptoms; keep the first real failure as
		// the root cause.
		if f.Err != nil && !strings.HasPrefix(f.Err.Error(), "skipped") {
			failedIDs = append(failedIDs, f.ID)
			if rootCause == nil {
				rootCause = f.Err
			}
		}
	}
	if rootCause == nil {
		rootCause = failures[0].Err
		failedIDs = append(failedIDs, failures[0].ID)
	}
	return fmt.Errorf("execution failed for %s: %w", strings.Join(failedIDs, ", "), rootCause)
}
