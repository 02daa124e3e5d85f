package job

import "strings"

// Status is the lifecycle state of an instance inside the plan.
type Status int

const (
	// Waiting instances have unmet prerequisites.
	Waiting Status = iota
	// Ready instances have every prerequisite done and may be dispatched.
	Ready
	// Running instances are owned by a worker.
	Running
	// Done is the terminal success state.
	Done
	// Failed is the terminal failure state, reached by own failure or by
	// propagation from a failed prerequisite.
	Failed
)

func (s Status) String() string {
	switch s {
	case Waiting:
		return "WAITING"
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Done:
		return "DONE"
	case Failed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == Done || s == Failed
}

// Instance is a template bound to concrete locators. Inputs are fully
// resolved paths; outputs are resolved except for `**` patterns, which the
// performing implementation enumerates itself at run time.
type Instance struct {
	ID      string
	Type    string
	Params  Params
	Inputs  []string
	Outputs []string
	// Temp is carried over from the template: outputs may be deleted once
	// all dependents are terminal.
	Temp bool
}

// lineageSep joins the id segments recording how an instance was derived
// from its declared template.
const lineageSep = "#"

// ChildID derives a lineage id for an instance generated from parent,
// suffixed with a tag unique among its siblings (an expansion key or a role
// tag such as "select").
func ChildID(parent, tag string) string {
	return parent + lineageSep + tag
}

// BaseID returns the declared template id an instance descends from.
func BaseID(id string) string {
	if i := strings.Index(id, lineageSep); i >= 0 {
		return id[:i]
	}
	return id
}

// ExpandedPart strips the leading base segment from a lineage id, returning
// the `#`-joined tail (empty for an unexpanded instance). Used when deriving
// artifact names from instance identity.
func ExpandedPart(id string) string {
	if i := strings.Index(id, lineageSep); i >= 0 {
		return id[i+1:]
	}
	return ""
}
