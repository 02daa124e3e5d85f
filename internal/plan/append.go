package plan

import (
	"fmt"

	"github.com/asifkhan89/en-deep-sub000/internal/job"
)

// AppendChildren splices a batch of new instances into the graph on behalf
// of a RUNNING parent. Edges may point at pre-existing instances or at
// siblings within the same batch, so no edge can ever reach back into the
// batch from an ancestor; batch-internal edges are additionally checked for
// cycles. When tail names a batch member, every dependent the parent had
// before this call is re-wired to also wait for the tail, letting the
// spliced sub-pipeline transparently extend the parent.
//
// The batch is validated in full before the first mutation, so a rejected
// append leaves the plan untouched.
func (p *Plan) AppendChildren(parentID string, batch []*job.Instance, edges []Edge, tail string) error {
	parent, ok := p.nodes[parentID]
	if !ok {
		return fmt.Errorf("unknown parent instance %q", parentID)
	}
	if parent.status != job.Running {
		return fmt.Errorf("parent %q is %s; children may only be appended while it is RUNNING", parentID, parent.status)
	}

	inBatch := make(map[string]*job.Instance, len(batch))
	for _, inst := range batch {
		if _, dup := p.nodes[inst.ID]; dup {
			return fmt.Errorf("appended instance %q collides with an existing instance", inst.ID)
		}
		if _, dup := inBatch[inst.ID]; dup {
			return fmt.Errorf("appended instance %q appears twice in one batch", inst.ID)
		}
		inBatch[inst.ID] = inst
	}

	for _, e := range edges {
		if _, ok := inBatch[e.Dependent]; !ok {
			return fmt.Errorf("edge %q -> %q: only appended instances may gain dependencies", e.Prereq, e.Dependent)
		}
		_, sibling := inBatch[e.Prereq]
		_, existing := p.nodes[e.Prereq]
		if !sibling && !existing {
			return fmt.Errorf("edge %q -> %q: unknown prerequisite", e.Prereq, e.Dependent)
		}
	}
	if err := checkBatchCycles(inBatch, edges); err != nil {
		return err
	}

	if tail != "" {
		if _, ok := inBatch[tail]; !ok {
			return fmt.Errorf("tail %q is not part of the appended batch", tail)
		}
	}

	// Snapshot the parent's dependents before the batch is attached.
	var rewire []*node
	if tail != "" {
		for _, dependent := range parent.dependents {
			if !dependent.status.Terminal() {
				rewire = append(rewire, dependent)
			}
		}
	}

	for _, inst := range batch {
		n := &node{
			inst:       inst,
			deps:       make(map[string]*node),
			dependents: make(map[string]*node),
		}
		p.nodes[inst.ID] = n
		p.order = append(p.order, inst.ID)
	}
	for _, e := range edges {
		p.wire(p.nodes[e.Prereq], p.nodes[e.Dependent])
	}
	for _, inst := range batch {
		p.settle(p.nodes[inst.ID])
	}

	if tail != "" {
		tailNode := p.nodes[tail]
		for _, dependent := range rewire {
			p.wire(tailNode, dependent)
		}
	}
	return nil
}

// checkBatchCycles rejects cycles among the batch-internal edges with a
// depth-first search over the sibling adjacency.
func checkBatchCycles(inBatch map[string]*job.Instance, edges []Edge) error {
	adj := make(map[string][]string)
	for _, e := range edges {
		if _, ok := inBatch[e.Prereq]; ok {
			adj[e.Prereq] = append(adj[e.Prereq], e.Dependent)
		}
	}

	const (
		unvisited = 0
		inStack   = 1
		finished  = 2
	)
	state := make(map[string]int, len(inBatch))

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case inStack:
			return fmt.Errorf("appended batch contains a dependency cycle involving %q", id)
		case finished:
			return nil
		}
		state[id] = inStack
		for _, next := range adj[id] {
			if err := visit(next); err != nil {
				return err
			}
		}
		state[id] = finished
		return nil
	}

	for id := range inBatch {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}
