package job

import (
	"strconv"
	"strings"
)

// Reserved order tokens naming the terminal artifacts of a round.
const (
	OrderBest  = "best"
	OrderStats = "stats"
)

// WorkFile renders a caller-supplied single-wildcard pattern into a
// collision-free temporary file name for one (round, order) pair. The same
// triple always renders the same string, so parallel branches and repeated
// rounds can never alias as long as their pairs differ.
func WorkFile(pattern string, round int, order string) string {
	return strings.Replace(pattern, "*", "("+strconv.Itoa(round)+"-"+order+")", 1)
}

// WorkFileN renders a numbered in-round artifact.
func WorkFileN(pattern string, round, order int) string {
	return WorkFile(pattern, round, strconv.Itoa(order))
}

// WorkFileBest names the winning artifact of a round.
func WorkFileBest(pattern string, round int) string {
	return WorkFile(pattern, round, OrderBest)
}

// WorkFileStats names the per-round statistics artifact.
func WorkFileStats(pattern string, round int) string {
	return WorkFile(pattern, round, OrderStats)
}
