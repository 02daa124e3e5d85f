// Package wildcard classifies and decomposes patterned file locators. A
// locator is either concrete, carries exactly one single-expansion marker
// `*`, or carries exactly one `**` marker (legal only on outputs, resolved
// by the producing job at run time).
package wildcard

import "strings"

// Marker strings recognized in locators.
const (
	Single = "*"
	Double = "**"
)

// Kind describes the wildcard content of a locator.
type Kind int

const (
	// KindNone marks a concrete path with no wildcard.
	KindNone Kind = iota
	// KindSingle marks a path with exactly one `*`.
	KindSingle
	// KindDouble marks a path with exactly one `**`.
	KindDouble
	// KindInvalid marks anything else (multiple markers, stray `*` next to `**`).
	KindInvalid
)

// String returns a human-readable kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "concrete"
	case KindSingle:
		return "single-wildcard"
	case KindDouble:
		return "double-wildcard"
	default:
		return "invalid"
	}
}

// KindOf classifies a locator by its wildcard content.
func KindOf(locator string) Kind {
	stars := strings.Count(locator, Single)
	switch {
	case stars == 0:
		return KindNone
	case stars == 1:
		return KindSingle
	case stars == 2 && strings.Contains(locator, Double):
		return KindDouble
	default:
		return KindInvalid
	}
}

// Split decomposes a single-wildcard pattern into its fixed prefix and
// suffix. The second return is false when the pattern does not contain
// exactly one `*`.
func Split(pattern string) (prefix, suffix string, ok bool) {
	if KindOf(pattern) != KindSingle {
		return "", "", false
	}
	i := strings.Index(pattern, Single)
	return pattern[:i], pattern[i+1:], true
}

// Match reports whether name satisfies the single-wildcard pattern and
// returns the substring captured by the `*`. A name shorter than the
// pattern's fixed prefix plus suffix never matches, even when prefix and
// suffix would overlap inside it.
func Match(name, pattern string) (key string, ok bool) {
	prefix, suffix, ok := Split(pattern)
	if !ok {
		return "", false
	}
	if len(name) < len(prefix)+len(suffix) {
		return "", false
	}
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return "", false
	}
	return name[len(prefix) : len(name)-len(suffix)], true
}

// Replace substitutes the wildcard marker in pattern with key. Double
// markers are replaced as a unit, so `out/**.txt` with key "5" renders
// `out/5.txt`.
func Replace(pattern, key string) string {
	if strings.Contains(pattern, Double) {
		return strings.Replace(pattern, Double, key, 1)
	}
	return strings.Replace(pattern, Single, key, 1)
}
