// Package plan owns the dependency graph of job instances: statuses, edges,
// runnable-set queries and the runtime mutation that lets a running instance
// splice new children into the graph.
//
// A Plan is not concurrency-safe. It has a single owner, the scheduler's
// event loop, and all mutation is funneled through that goroutine; workers
// never touch the plan directly.
package plan

import (
	"fmt"

	"github.com/asifkhan89/en-deep-sub000/internal/job"
)

// Edge is an ordered dependency pair: Dependent waits for Prereq.
type Edge struct {
	Prereq    string
	Dependent string
}

// node is one vertex of the graph. Unexported so all interaction goes
// through the Plan API by instance id.
type node struct {
	inst       *job.Instance
	status     job.Status
	err        error
	deps       map[string]*node
	dependents map[string]*node
	// unmet counts prerequisites that are not yet DONE.
	unmet int
}

// Plan is the mutable dependency graph. Insertion order is preserved so
// queries stay deterministic for a fixed declaration.
type Plan struct {
	nodes map[string]*node
	order []string
}

// New returns an empty plan.
func New() *Plan {
	return &Plan{nodes: make(map[string]*node)}
}

// Len returns the number of instances in the plan.
func (p *Plan) Len() int {
	return len(p.order)
}

// Status reports the status of an instance. The second return is false for
// unknown ids.
func (p *Plan) Status(id string) (job.Status, bool) {
	n, ok := p.nodes[id]
	if !ok {
		return 0, false
	}
	return n.status, true
}

// Err returns the failure recorded for an instance, if any.
func (p *Plan) Err(id string) error {
	if n, ok := p.nodes[id]; ok {
		return n.err
	}
	return nil
}

// Instance returns the instance stored under id, or nil.
func (p *Plan) Instance(id string) *job.Instance {
	if n, ok := p.nodes[id]; ok {
		return n.inst
	}
	return nil
}

// Add inserts an instance depending on the named prerequisites, all of
// which must already exist. The instance starts READY when every
// prerequisite is already DONE, WAITING otherwise; a FAILED prerequisite
// fails it on arrival.
func (p *Plan) Add(inst *job.Instance, prereqs ...string) error {
	if _, dup := p.nodes[inst.ID]; dup {
		return fmt.Errorf("duplicate instance id %q", inst.ID)
	}
	for _, dep := range prereqs {
		if _, ok := p.nodes[dep]; !ok {
			return fmt.Errorf("instance %q depends on unknown instance %q", inst.ID, dep)
		}
	}

	n := &node{
		inst:       inst,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	p.nodes[inst.ID] = n
	p.order = append(p.order, inst.ID)

	for _, dep := range prereqs {
		p.wire(p.nodes[dep], n)
	}
	p.settle(n)
	return nil
}

// AddCompleted inserts an instance directly in the DONE state, used when
// its expected outputs already exist and re-execution was not requested.
func (p *Plan) AddCompleted(inst *job.Instance) error {
	if err := p.Add(inst); err != nil {
		return err
	}
	n := p.nodes[inst.ID]
	n.status = job.Done
	return nil
}

// wire records the edge prereq -> dependent and updates the unmet count.
func (p *Plan) wire(prereq, dependent *node) {
	if _, ok := dependent.deps[prereq.inst.ID]; ok {
		return
	}
	dependent.deps[prereq.inst.ID] = prereq
	prereq.dependents[dependent.inst.ID] = dependent
	if prereq.status != job.Done {
		dependent.unmet++
	}
}

// settle moves a non-terminal node into READY or FAILED according to its
// prerequisites' states.
func (p *Plan) settle(n *node) {
	if n.status.Terminal() || n.status == job.Running {
		return
	}
	for _, dep := range n.deps {
		if dep.status == job.Failed {
			p.failNode(n, fmt.Errorf("skipped due to upstream failure of %q", dep.inst.ID))
			return
		}
	}
	if n.unmet == 0 {
		n.status = job.Ready
	} else {
		n.status = job.Waiting
	}
}

// Ready returns every READY instance in insertion order.
func (p *Plan) Ready() []*job.Instance {
	var out []*job.Instance
	for _, id := range p.order {
		if n := p.nodes[id]; n.status == job.Ready {
			out = append(out, n.inst)
		}
	}
	return out
}

// MarkRunning transitions a READY instance to RUNNING on dispatch.
func (p *Plan) MarkRunning(id string) error {
	n, ok := p.nodes[id]
	if !ok {
		return fmt.Errorf("unknown instance %q", id)
	}
	if n.status != job.Ready {
		return fmt.Errorf("instance %q is %s, not READY", id, n.status)
	}
	n.status = job.Running
	return nil
}

// MarkDone records a successful execution and promotes any dependent whose
// prerequisites are now all DONE.
func (p *Plan) MarkDone(id string) error {
	n, ok := p.nodes[id]
	if !ok {
		return fmt.Errorf("unknown instance %q", id)
	}
	if n.status != job.Running {
		return fmt.Errorf("instance %q is %s, not RUNNING", id, n.status)
	}
	n.status = job.Done
	for _, dependent := range n.dependents {
		dependent.unmet--
		if dependent.unmet == 0 && dependent.status == job.Waiting {
			dependent.status = job.Ready
		}
	}
	return nil
}

// MarkFailed records a failed execution and propagates FAILED to every
// transitive dependent without running it.
func (p *Plan) MarkFailed(id string, cause error) error {
	n, ok := p.nodes[id]
	if !ok {
		return fmt.Errorf("unknown instance %q", id)
	}
	if n.status.Terminal() {
		return fmt.Errorf("instance %q is already %s", id, n.status)
	}
	p.failNode(n, cause)
	return nil
}

// failNode marks n failed and cascades to dependents that never ran.
func (p *Plan) failNode(n *node, cause error) {
	if n.status == job.Failed {
		return
	}
	n.status = job.Failed
	n.err = cause
	for _, dependent := range n.dependents {
		if dependent.status.Terminal() {
			continue
		}
		p.failNode(dependent, fmt.Errorf("skipped due to upstream failure of %q", n.inst.ID))
	}
}

// Exhausted reports whether every instance is terminal.
func (p *Plan) Exhausted() bool {
	for _, id := range p.order {
		if !p.nodes[id].status.Terminal() {
			return false
		}
	}
	return true
}

// Failure describes one failed instance and its recorded cause.
type Failure struct {
	ID  string
	Err error
}

// Failures returns every FAILED instance with its cause, in insertion order.
func (p *Plan) Failures() []Failure {
	var out []Failure
	for _, id := range p.order {
		if n := p.nodes[id]; n.status == job.Failed {
			out = append(out, Failure{ID: id, Err: n.err})
		}
	}
	return out
}

// Collectible returns instances whose outputs may now be deleted: temp
// prerequisites of id whose dependents have all reached a terminal status.
func (p *Plan) Collectible(id string) []*job.Instance {
	n, ok := p.nodes[id]
	if !ok {
		return nil
	}
	var out []*job.Instance
	for _, dep := range n.deps {
		if !dep.inst.Temp || !dep.status.Terminal() {
			continue
		}
		done := true
		for _, dependent := range dep.dependents {
			if !dependent.status.Terminal() {
				done = false
				break
			}
		}
		if done {
			out = append(out, dep.inst)
		}
	}
	return out
}
