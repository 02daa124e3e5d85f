// Package build turns a loaded scenario into an executable plan: templates
// with single-wildcard inputs are fanned out into one instance per viable
// expansion key, concrete inputs are linked to the instances that produce
// them, and everything is inserted into a fresh plan.
package build

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/asifkhan89/en-deep-sub000/internal/config"
	"github.com/asifkhan89/en-deep-sub000/internal/ctxlog"
	"github.com/asifkhan89/en-deep-sub000/internal/expand"
	"github.com/asifkhan89/en-deep-sub000/internal/fsutil"
	"github.com/asifkhan89/en-deep-sub000/internal/job"
	"github.com/asifkhan89/en-deep-sub000/internal/plan"
	"github.com/asifkhan89/en-deep-sub000/internal/registry"
	"github.com/asifkhan89/en-deep-sub000/internal/wildcard"
)

// Options controls plan construction.
type Options struct {
	// SkipExisting inserts instances whose concrete outputs all exist as
	// already DONE instead of re-running them.
	SkipExisting bool
	// WorkDir anchors every relative locator of the scenario. Empty means
	// the process working directory.
	WorkDir string
}

// produced records one output locator of an already-planned instance.
// Locators may still carry wildcards (`*` of an unexpanded template, `**`
// of a run-time enumerator).
type produced struct {
	id  string
	out string
}

// Build expands every template of the scenario and returns the initial plan.
func Build(ctx context.Context, scenario *config.Scenario, reg *registry.Registry, opts Options) (*plan.Plan, error) {
	logger := ctxlog.FromContext(ctx)

	if err := reg.ValidateTemplates(scenario.Templates); err != nil {
		return nil, err
	}

	p := plan.New()
	var outputs []produced

	for _, tpl := range scenario.Templates {
		tpl = anchorTemplate(tpl, opts.WorkDir)
		impl, _ := reg.Resolve(tpl.Type)

		var instances []*job.Instance
		var err error
		if impl.KeepPatterns || !hasWildcardInput(tpl) {
			instances = []*job.Instance{singleInstance(tpl)}
		} else {
			instances, err = expandTemplate(ctx, tpl, outputs)
			if err != nil {
				return nil, err
			}
			logger.Debug("Template fanned out.", "template", tpl.ID, "instances", len(instances))
		}

		for _, inst := range instances {
			deps, err := resolveDeps(inst, outputs)
			if err != nil {
				return nil, err
			}
			if opts.SkipExisting && outputsExist(inst) {
				logger.Info("Outputs already exist, marking instance done.", "instance", inst.ID)
				if err := p.AddCompleted(inst); err != nil {
					return nil, err
				}
			} else if err := p.Add(inst, deps...); err != nil {
				return nil, err
			}
			for _, out := range inst.Outputs {
				outputs = append(outputs, produced{id: inst.ID, out: out})
			}
		}
	}

	logger.Debug("Plan built.", "instances", p.Len())
	return p, nil
}

// anchorTemplate rebases the template's relative locators onto workDir, so
// expansion, dependency linking and the jobs themselves all see the same
// paths no matter where the process runs from. Absolute locators pass
// through untouched.
func anchorTemplate(tpl *job.Template, workDir string) *job.Template {
	if workDir == "" {
		return tpl
	}
	anchored := *tpl
	anchored.Inputs = anchorLocators(tpl.Inputs, workDir)
	anchored.Outputs = anchorLocators(tpl.Outputs, workDir)
	return &anchored
}

func anchorLocators(locators []string, workDir string) []string {
	out := make([]string, len(locators))
	for i, loc := range locators {
		if filepath.IsAbs(loc) {
			out[i] = loc
		} else {
			out[i] = filepath.Join(workDir, loc)
		}
	}
	return out
}

// hasWildcardInput reports whether any input carries a single wildcard.
func hasWildcardInput(tpl *job.Template) bool {
	for _, in := range tpl.Inputs {
		if wildcard.KindOf(in) == wildcard.KindSingle {
			return true
		}
	}
	return false
}

// singleInstance binds a template one-to-one, without expansion.
func singleInstance(tpl *job.Template) *job.Instance {
	return &job.Instance{
		ID:      tpl.ID,
		Type:    tpl.Type,
		Params:  tpl.Params.Clone(),
		Inputs:  append([]string(nil), tpl.Inputs...),
		Outputs: append([]string(nil), tpl.Outputs...),
		Temp:    tpl.Temp,
	}
}

// expandTemplate fans a template out into one instance per viable expansion
// key, joining its wildcard input patterns over disk files and the outputs
// of already-planned instances.
func expandTemplate(ctx context.Context, tpl *job.Template, outputs []produced) ([]*job.Instance, error) {
	var patterns []string
	for _, in := range tpl.Inputs {
		if wildcard.KindOf(in) == wildcard.KindSingle {
			patterns = append(patterns, in)
		}
	}

	candidates, err := collectCandidates(patterns, outputs)
	if err != nil {
		return nil, err
	}

	groups, err := expand.SortInputs(ctx, candidates, patterns)
	if err != nil {
		return nil, err
	}
	keys := expand.ViableKeys(groups...)
	if len(keys) == 0 {
		return nil, job.Errorf(job.ErrInvalidData, tpl.ID,
			"no viable expansions: no key is matched by all of %v", patterns)
	}

	for _, out := range tpl.Outputs {
		if wildcard.KindOf(out) == wildcard.KindNone && len(keys) > 1 {
			return nil, job.Errorf(job.ErrMissingPatterns, tpl.ID,
				"output %q needs a wildcard: template fans out over %d keys", out, len(keys))
		}
	}

	var instances []*job.Instance
	for _, key := range keys {
		inst := &job.Instance{
			ID:     job.ChildID(tpl.ID, key),
			Type:   tpl.Type,
			Params: tpl.Params.Clone(),
			Temp:   tpl.Temp,
		}
		next := 0
		for _, in := range tpl.Inputs {
			if wildcard.KindOf(in) == wildcard.KindSingle {
				inst.Inputs = append(inst.Inputs, groups[next][key])
				next++
			} else {
				inst.Inputs = append(inst.Inputs, in)
			}
		}
		for _, out := range tpl.Outputs {
			if wildcard.KindOf(out) == wildcard.KindSingle {
				inst.Outputs = append(inst.Outputs, wildcard.Replace(out, key))
			} else {
				inst.Outputs = append(inst.Outputs, out)
			}
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// collectCandidates gathers the paths a set of input patterns may be
// resolved against: plain files in each pattern's directory plus every
// concrete output planned so far. Only paths matching at least one pattern
// survive, so unrelated directory content never trips the grouper.
func collectCandidates(patterns []string, outputs []produced) ([]string, error) {
	seen := make(map[string]struct{})
	var candidates []string
	add := func(path string) {
		for _, pat := range patterns {
			if _, ok := wildcard.Match(path, pat); ok {
				if _, dup := seen[path]; !dup {
					seen[path] = struct{}{}
					candidates = append(candidates, path)
				}
				return
			}
		}
	}

	dirs := make(map[string]struct{})
	for _, pat := range patterns {
		dirs[filepath.Dir(pat)] = struct{}{}
	}
	for dir := range dirs {
		files, err := fsutil.ListDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, job.Errorf(job.ErrIO, "", "scanning %s: %v", dir, err)
		}
		for _, f := range files {
			add(f)
		}
	}
	for _, o := range outputs {
		if wildcard.KindOf(o.out) == wildcard.KindNone {
			add(o.out)
		}
	}
	sort.Strings(candidates)
	return candidates, nil
}

// resolveDeps links an instance to every already-planned producer whose
// output locator can cover one of its inputs. A concrete input that no
// producer covers must already exist on disk; a pattern input must match at
// least one file or one producer.
func resolveDeps(inst *job.Instance, outputs []produced) ([]string, error) {
	depSet := make(map[string]struct{})
	for _, in := range inst.Inputs {
		matched := false
		for _, o := range outputs {
			if locatorsOverlap(in, o.out) {
				depSet[o.id] = struct{}{}
				matched = true
			}
		}
		if matched {
			continue
		}
		switch wildcard.KindOf(in) {
		case wildcard.KindNone:
			if !fileExists(in) {
				return nil, job.Errorf(job.ErrInvalidData, inst.ID,
					"input %q is neither produced by the plan nor present on disk", in)
			}
		case wildcard.KindSingle:
			if !anyFileMatches(in) {
				return nil, job.Errorf(job.ErrInvalidData, inst.ID,
					"input pattern %q matches no produced output and no existing file", in)
			}
		}
	}

	deps := make([]string, 0, len(depSet))
	for id := range depSet {
		deps = append(deps, id)
	}
	sort.Strings(deps)
	return deps, nil
}

// affixes decomposes any locator into its fixed prefix/suffix pair.
func affixes(loc string) (prefix, suffix string, wild bool) {
	switch wildcard.KindOf(loc) {
	case wildcard.KindSingle:
		p, s, _ := wildcard.Split(loc)
		return p, s, true
	case wildcard.KindDouble:
		i := strings.Index(loc, wildcard.Double)
		return loc[:i], loc[i+2:], true
	default:
		return loc, "", false
	}
}

// locatorsOverlap reports whether a producer output locator can cover a
// consumer input locator (or vice versa), treating `*` and `**` alike: two
// patterns overlap when their fixed affixes are mutually compatible.
func locatorsOverlap(a, b string) bool {
	ap, as, aw := affixes(a)
	bp, bs, bw := affixes(b)
	switch {
	case !aw && !bw:
		return a == b
	case aw && !bw:
		return len(b) >= len(ap)+len(as) && strings.HasPrefix(b, ap) && strings.HasSuffix(b, as)
	case !aw && bw:
		return len(a) >= len(bp)+len(bs) && strings.HasPrefix(a, bp) && strings.HasSuffix(a, bs)
	default:
		prefixOK := strings.HasPrefix(ap, bp) || strings.HasPrefix(bp, ap)
		suffixOK := strings.HasSuffix(as, bs) || strings.HasSuffix(bs, as)
		return prefixOK && suffixOK
	}
}

// outputsExist reports whether every output is concrete and on disk.
func outputsExist(inst *job.Instance) bool {
	if len(inst.Outputs) == 0 {
		return false
	}
	for _, out := range inst.Outputs {
		if wildcard.KindOf(out) != wildcard.KindNone || !fileExists(out) {
			return false
		}
	}
	return true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// anyFileMatches reports whether some file in the pattern's directory
// satisfies it.
func anyFileMatches(pattern string) bool {
	files, err := fsutil.ListDir(filepath.Dir(pattern))
	if err != nil {
		return false
	}
	for _, f := range files {
		if _, ok := wildcard.Match(f, pattern); ok {
			return true
		}
	}
	return false
}
