package wildcard

import (
	"context"
	"fmt"

	"github.com/asifkhan89/en-deep-sub000/internal/ctxlog"
)

// ErrNoMatch is returned by Classify when a path satisfies none of the
// candidate patterns. Callers treat this as a configuration error.
var ErrNoMatch = fmt.Errorf("path matches no declared pattern")

// Classify resolves a path against several candidate single-wildcard
// patterns and returns the index of the winning pattern together with the
// captured expansion key.
//
// A path may satisfy more than one pattern; the longest pattern string wins
// as the most specific. When two patterns of equal length both match, the
// pick between them is unspecified and a warning is logged.
func Classify(ctx context.Context, path string, patterns []string) (int, string, error) {
	best := -1
	bestKey := ""
	tied := false

	for i, pattern := range patterns {
		key, ok := Match(path, pattern)
		if !ok {
			continue
		}
		switch {
		case best < 0 || len(pattern) > len(patterns[best]):
			best, bestKey, tied = i, key, false
		case len(pattern) == len(patterns[best]):
			tied = true
		}
	}

	if best < 0 {
		return -1, "", fmt.Errorf("%w: %q", ErrNoMatch, path)
	}
	if tied {
		ctxlog.FromContext(ctx).Warn("Ambiguous pattern classification, equal-length patterns match.",
			"path", path, "picked", patterns[best])
	}
	return best, bestKey, nil
}
