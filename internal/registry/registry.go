// Package registry resolves job implementations by type name. Factories are
// plain Go functions registered at startup, so binding a template to its
// implementation never involves reflection.
package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/asifkhan89/en-deep-sub000/internal/job"
	"github.com/asifkhan89/en-deep-sub000/internal/plan"
)

// Spec is the concrete declaration a factory receives: one expanded
// instance's identity, parameters and resolved locators.
type Spec struct {
	ID      string
	Params  job.Params
	Inputs  []string
	Outputs []string
}

// Appender is the callback a running job uses to splice follow-up instances
// into the plan. Calls are serviced by the scheduler's owner loop and are
// only legal while the calling instance is RUNNING.
type Appender interface {
	AppendChildren(parentID string, batch []*job.Instance, edges []plan.Edge, tail string) error
}

// Env is the controlled view of the engine a job gets while performing.
// Locators arrive already anchored to the run's work directory, so the
// only capability left to expose is plan mutation.
type Env struct {
	// Appender splices children into the plan; nil outside a scheduler run.
	Appender Appender
}

// Runner is a validated job implementation, ready to perform.
type Runner interface {
	Perform(ctx context.Context, env *Env) error
}

// Factory constructs and validates an implementation against one spec. It
// is the validation phase of the two-phase contract: arity, parameter and
// pattern violations surface here as typed configuration errors, before the
// instance ever reaches RUNNING.
type Factory func(spec Spec) (Runner, error)

// Implementation is one registered job type.
type Implementation struct {
	// New validates a spec and builds the runner for it.
	New Factory
	// KeepPatterns leaves single-wildcard inputs unexpanded at plan-build
	// time, so the job receives the patterns and groups the matched files
	// itself (grouped merges, samplers). The default is per-key fan-out.
	KeepPatterns bool
}

// Module is implemented by each job-implementation package so the app can
// register the built-in catalogue in one pass.
type Module interface {
	Register(r *Registry)
}

// Registry maps implementation type names to factories.
type Registry struct {
	impls map[string]*Implementation
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{impls: make(map[string]*Implementation)}
}

// Register binds an implementation to a type name. Double registration is a
// programming error and panics.
func (r *Registry) Register(name string, impl *Implementation) {
	if _, exists := r.impls[name]; exists {
		panic(fmt.Sprintf("job implementation %q already registered", name))
	}
	if impl.New == nil {
		panic(fmt.Sprintf("job implementation %q has no factory", name))
	}
	r.impls[name] = impl
}

// Resolve returns the implementation registered under a type name.
func (r *Registry) Resolve(name string) (*Implementation, bool) {
	impl, ok := r.impls[name]
	return impl, ok
}

// Types lists the registered type names in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.impls))
	for name := range r.impls {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ValidateTemplates checks that every declared template resolves to a
// registered implementation and passes its structural invariants.
// Independent failures are aggregated so a broken scenario reports all of
// its problems at once.
func (r *Registry) ValidateTemplates(templates []*job.Template) error {
	var result *multierror.Error
	for _, tpl := range templates {
		if err := tpl.Validate(); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if _, ok := r.impls[tpl.Type]; !ok {
			result = multierror.Append(result,
				job.Errorf(job.ErrInvalidParams, tpl.ID, "unknown implementation type %q", tpl.Type))
		}
	}
	return result.ErrorOrNil()
}
