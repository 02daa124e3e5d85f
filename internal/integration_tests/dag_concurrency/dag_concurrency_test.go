package integration_tests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asifkhan89/en-deep-sub000/internal/testutil"
)

// Test for: independent branches of the plan all complete under a shared
// worker pool.
func TestDagConcurrency_IndependentBranches(t *testing.T) {
	files := map[string]string{
		"data.txt": "payload\n",
		"main.hcl": `
job "left" {
  type = "copyfile"
  in   = ["data.txt"]
  out  = ["branch/left.txt"]
}

job "middle" {
  type = "copyfile"
  in   = ["data.txt"]
  out  = ["branch/middle.txt"]
}

job "right" {
  type = "copyfile"
  in   = ["data.txt"]
  out  = ["branch/right.txt"]
}
`,
	}

	result := testutil.RunScenarioTest(t, files, "main.hcl")
	require.NoError(t, result.Err)

	for _, name := range []string{"left.txt", "middle.txt", "right.txt"} {
		got, err := os.ReadFile(filepath.Join(result.Dir, "branch", name))
		require.NoError(t, err)
		assert.Equal(t, "payload\n", string(got))
	}
}

// Test for: a job that appends children at run time grows the plan round by
// round, and a declared dependent of it is re-wired to wait for the final
// appended step.
func TestDagConcurrency_GreedySearchAppendsRounds(t *testing.T) {
	files := map[string]string{
		"data.txt": "a\nb\nc\n",
		"main.hcl": `
job "search" {
  type   = "greedy"
  params = { rounds = 2, branch = 2 }
  in     = ["data.txt"]
  out    = ["work/model_**.txt"]
}

job "publish" {
  type = "copyfile"
  in   = ["work/model_(2-best).txt"]
  out  = ["final.txt"]
}
`,
	}

	result := testutil.RunScenarioTest(t, files, "main.hcl")
	require.NoError(t, result.Err)

	// Both rounds ran to completion and left their bookkeeping behind.
	for _, name := range []string{
		"model_(1-0).txt", "model_(1-1).txt", "model_(1-best).txt", "model_(1-stats).txt",
		"model_(2-0).txt", "model_(2-1).txt", "model_(2-best).txt", "model_(2-stats).txt",
	} {
		_, err := os.Stat(filepath.Join(result.Dir, "work", name))
		assert.NoError(t, err, name)
	}

	// The publish step waited for the appended final round.
	final, err := os.ReadFile(filepath.Join(result.Dir, "final.txt"))
	require.NoError(t, err)
	best, err := os.ReadFile(filepath.Join(result.Dir, "work", "model_(2-best).txt"))
	require.NoError(t, err)
	assert.Equal(t, string(best), string(final))
	assert.Contains(t, string(final), "score\t")
}

// Test for: temp artifacts are garbage collected once every dependent has
// finished, while regular artifacts stay.
func TestDagConcurrency_TempArtifactsCollected(t *testing.T) {
	files := map[string]string{
		"data.txt": "payload\n",
		"main.hcl": `
job "stage" {
  type = "copyfile"
  in   = ["data.txt"]
  out  = ["staged.txt"]
  temp = true
}

job "publish" {
  type = "copyfile"
  in   = ["staged.txt"]
  out  = ["final.txt"]
}
`,
	}

	result := testutil.RunScenarioTest(t, files, "main.hcl")
	require.NoError(t, result.Err)

	got, err := os.ReadFile(filepath.Join(result.Dir, "final.txt"))
	require.NoError(t, err)
	assert.Equal(t, "payload\n", string(got))

	_, err = os.Stat(filepath.Join(result.Dir, "staged.txt"))
	assert.True(t, os.IsNotExist(err), "temp artifact must be collected after its dependents finish")
}
