// Package expand buckets concrete file paths into per-pattern tables keyed
// by wildcard value and computes the cross-pattern join keys that drive
// fan-outs and merges.
package expand

import (
	"context"
	"math/rand"
	"sort"

	"github.com/asifkhan89/en-deep-sub000/internal/ctxlog"
	"github.com/asifkhan89/en-deep-sub000/internal/job"
	"github.com/asifkhan89/en-deep-sub000/internal/wildcard"
)

// Group is the per-pattern table from expansion key to the single path that
// produced it.
type Group map[string]string

// Keys returns the group's expansion keys in sorted order.
func (g Group) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortInputs classifies every path into exactly one of the pattern groups
// (longest pattern wins) and keys it by the captured substring. A path
// matching no pattern is a configuration error. When two paths in one group
// capture the same key, the later path wins and the overwrite is logged.
func SortInputs(ctx context.Context, paths, patterns []string) ([]Group, error) {
	logger := ctxlog.FromContext(ctx)
	groups := make([]Group, len(patterns))
	for i := range groups {
		groups[i] = make(Group)
	}

	for _, path := range paths {
		idx, key, err := wildcard.Classify(ctx, path, patterns)
		if err != nil {
			return nil, job.Errorf(job.ErrMissingPatterns, "", "sorting inputs: %v", err)
		}
		if prev, dup := groups[idx][key]; dup {
			logger.Warn("Duplicate expansion key in group, later path wins.",
				"pattern", patterns[idx], "key", key, "dropped", prev, "kept", path)
		}
		groups[idx][key] = path
	}
	return groups, nil
}

// ViableKeys returns the sorted intersection of the groups' key sets: the
// join keys present in every table. With no groups the result is empty.
func ViableKeys(groups ...Group) []string {
	if len(groups) == 0 {
		return nil
	}
	viable := make([]string, 0, len(groups[0]))
	for key := range groups[0] {
		present := true
		for _, g := range groups[1:] {
			if _, ok := g[key]; !ok {
				present = false
				break
			}
		}
		if present {
			viable = append(viable, key)
		}
	}
	sort.Strings(viable)
	return viable
}

// SampleKeys picks a uniform subset of at most n keys. The result is sorted
// so downstream artifact naming stays deterministic for a fixed rng seed.
func SampleKeys(keys []string, n int, rng *rand.Rand) []string {
	if n >= len(keys) {
		out := append([]string(nil), keys...)
		sort.Strings(out)
		return out
	}
	shuffled := append([]string(nil), keys...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	out := shuffled[:n]
	sort.Strings(out)
	return out
}

// MergeCollisions checks every pair of groups for keys that alias: a key
// from one group whose full file name, re-read under another group's
// affixes, lands on a key that group already holds. Two such input files
// would collapse onto one output identity, so this is a data error.
func MergeCollisions(groups []Group, patterns []string) error {
	for i, from := range groups {
		for j, to := range groups {
			if i == j {
				continue
			}
			for key, path := range from {
				name := wildcard.Replace(patterns[i], key)
				derived, ok := wildcard.Match(name, patterns[j])
				if !ok {
					continue
				}
				if other, exists := to[derived]; exists && other != path {
					return job.Errorf(job.ErrInvalidData, "",
						"inputs %q and %q alias to the same output identity (key %q)",
						path, other, derived)
				}
			}
		}
	}
	return nil
}
