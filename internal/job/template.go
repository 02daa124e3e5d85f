// Package job defines the unit of work for the pipeline: declared templates,
// expanded instances with lineage ids, parameter access and the failure
// taxonomy shared by the engine and job implementations.
package job

import (
	"github.com/asifkhan89/en-deep-sub000/internal/wildcard"
)

// Template is one declared processing step, before wildcard expansion. The
// ID is globally unique at declaration time; the Type names the registered
// implementation that will validate and perform each expanded instance.
type Template struct {
	ID      string
	Type    string
	Params  Params
	Inputs  []string
	Outputs []string
	// Temp marks the outputs as intermediate artifacts, deletable once every
	// dependent instance has reached a terminal status.
	Temp bool
}

// Validate checks the structural invariants every template must satisfy
// regardless of its implementation type: markers must be well formed and
// `**` may only appear on outputs. Implementation-specific arity and
// pattern constraints are checked later, at instance validation.
func (t *Template) Validate() error {
	if t.ID == "" {
		return Errorf(ErrInvalidParams, t.ID, "template has no id")
	}
	if t.Type == "" {
		return Errorf(ErrInvalidParams, t.ID, "template %q has no implementation type", t.ID)
	}
	for _, in := range t.Inputs {
		switch wildcard.KindOf(in) {
		case wildcard.KindNone, wildcard.KindSingle:
		case wildcard.KindDouble:
			return Errorf(ErrMissingPatterns, t.ID, "input %q: `**` is only legal on outputs", in)
		default:
			return Errorf(ErrMissingPatterns, t.ID, "input %q: malformed pattern", in)
		}
	}
	for _, out := range t.Outputs {
		if wildcard.KindOf(out) == wildcard.KindInvalid {
			return Errorf(ErrMissingPatterns, t.ID, "output %q: malformed pattern", out)
		}
	}
	return nil
}
