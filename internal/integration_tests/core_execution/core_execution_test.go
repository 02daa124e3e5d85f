package integration_tests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asifkhan89/en-deep-sub000/internal/testutil"
)

// Test for: chained concrete jobs run in dependency order and the artifact
// of the last stage carries the original payload.
func TestCoreExecution_CopyChain(t *testing.T) {
	files := map[string]string{
		"data.txt": "payload\n",
		"main.hcl": `
job "first" {
  type = "copyfile"
  in   = ["data.txt"]
  out  = ["stage/one.txt"]
}

job "second" {
  type = "copyfile"
  in   = ["stage/one.txt"]
  out  = ["stage/two.txt"]
}
`,
	}

	result := testutil.RunScenarioTest(t, files, "main.hcl")
	require.NoError(t, result.Err)

	got, err := os.ReadFile(filepath.Join(result.Dir, "stage", "two.txt"))
	require.NoError(t, err)
	assert.Equal(t, "payload\n", string(got))
}

// Test for: a wildcard input template fans out into one instance per file
// on disk, each producing its key-substituted output.
func TestCoreExecution_WildcardFanOut(t *testing.T) {
	files := map[string]string{
		"corpus/set_a.txt": "dog\tNN\nruns\tVBZ\n",
		"corpus/set_b.txt": "cat\tNN\nsat\tVBD\nmat\tNN\n",
		"main.hcl": `
job "nouns" {
  type   = "filter"
  params = { column = 1, value = "NN" }
  in     = ["corpus/set_*.txt"]
  out    = ["out/nouns_*.txt"]
}
`,
	}

	result := testutil.RunScenarioTest(t, files, "main.hcl")
	require.NoError(t, result.Err)

	a, err := os.ReadFile(filepath.Join(result.Dir, "out", "nouns_a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "dog\tNN\n", string(a))

	b, err := os.ReadFile(filepath.Join(result.Dir, "out", "nouns_b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "cat\tNN\nmat\tNN\n", string(b))
}

// Test for: a grouped job receives its patterns unexpanded and joins the
// input groups by key at run time.
func TestCoreExecution_MergeGroups(t *testing.T) {
	files := map[string]string{
		"norm_1.txt": "n1\n",
		"norm_2.txt": "n2\n",
		"gold_1.txt": "g1\n",
		"main.hcl": `
job "combine" {
  type = "merge"
  in   = ["norm_*.txt", "gold_*.txt"]
  out  = ["combined_*.txt"]
}
`,
	}

	result := testutil.RunScenarioTest(t, files, "main.hcl")
	require.NoError(t, result.Err)

	got, err := os.ReadFile(filepath.Join(result.Dir, "combined_1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "n1\ng1\n", string(got))

	_, err = os.Stat(filepath.Join(result.Dir, "combined_2.txt"))
	assert.True(t, os.IsNotExist(err), "key 2 is not viable and must not be merged")
}

// Test for: the YAML front end accepts the same scenario model as HCL.
func TestCoreExecution_YAMLScenario(t *testing.T) {
	files := map[string]string{
		"data.txt": "via yaml\n",
		"main.yaml": `
jobs:
  - id: publish
    type: copyfile
    in: [data.txt]
    out: [published.txt]
`,
	}

	result := testutil.RunScenarioTest(t, files, "main.yaml")
	require.NoError(t, result.Err)

	got, err := os.ReadFile(filepath.Join(result.Dir, "published.txt"))
	require.NoError(t, err)
	assert.Equal(t, "via yaml\n", string(got))
}

// Test for: relative locators in a scenario resolve against the configured
// work directory, not against whatever directory the process runs from.
func TestCoreExecution_WorkDirAnchorsRelativeLocators(t *testing.T) {
	files := map[string]string{
		"data.txt": "anchored\n",
		"main.hcl": `
job "stage" {
  type = "copyfile"
  in   = ["data.txt"]
  out  = ["out/result.txt"]
}
`,
	}

	result := testutil.RunScenarioTest(t, files, "main.hcl")
	require.NoError(t, result.Err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NotEqual(t, cwd, result.Dir, "the harness must not run from inside the work directory")

	got, err := os.ReadFile(filepath.Join(result.Dir, "out", "result.txt"))
	require.NoError(t, err)
	assert.Equal(t, "anchored\n", string(got))

	_, err = os.Stat(filepath.Join(cwd, "out", "result.txt"))
	assert.True(t, os.IsNotExist(err), "artifacts must not land in the process cwd")
}

// Test for: with skip-existing off, a prior artifact is rebuilt.
func TestCoreExecution_ExistingArtifactRebuilt(t *testing.T) {
	files := map[string]string{
		"data.txt":   "fresh\n",
		"result.txt": "stale\n",
		"main.hcl": `
job "refresh" {
  type = "copyfile"
  in   = ["data.txt"]
  out  = ["result.txt"]
}
`,
	}

	result := testutil.RunScenarioTest(t, files, "main.hcl")
	require.NoError(t, result.Err)

	got, err := os.ReadFile(filepath.Join(result.Dir, "result.txt"))
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", string(got))
}
