package hclconf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("full job block", func(t *testing.T) {
		path := writeScenario(t, "pipe.hcl", `
job "split" {
  type   = "copyfile"
  params = { folds = 10, stratified = true, label = "gold" }
  in     = ["data/all.txt"]
  out    = ["work/part_*.txt"]
  temp   = true
}

job "train" {
  type = "merge"
  in   = ["work/part_*.txt", "data/head_*.txt"]
  out  = ["work/train_*.txt"]
}
`)
		scenario, err := NewLoader().Load(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "pipe", scenario.Name)
		require.Len(t, scenario.Templates, 2)

		split := scenario.Templates[0]
		assert.Equal(t, "split", split.ID)
		assert.Equal(t, "copyfile", split.Type)
		assert.Equal(t, "10", split.Params["folds"])
		assert.Equal(t, "true", split.Params["stratified"])
		assert.Equal(t, "gold", split.Params["label"])
		assert.True(t, split.Temp)

		train := scenario.Templates[1]
		assert.Nil(t, train.Params)
		assert.Equal(t, []string{"work/part_*.txt", "data/head_*.txt"}, train.Inputs)
		assert.False(t, train.Temp)
	})

	t.Run("directory of files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"),
			[]byte("job \"a\" {\n  type = \"noop\"\n}\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.hcl"),
			[]byte("job \"b\" {\n  type = \"noop\"\n}\n"), 0644))

		scenario, err := NewLoader().Load(ctx, dir)
		require.NoError(t, err)
		assert.Len(t, scenario.Templates, 2)
	})

	t.Run("duplicate job id rejected", func(t *testing.T) {
		path := writeScenario(t, "dup.hcl", `
job "a" { type = "noop" }
job "a" { type = "noop" }
`)
		_, err := NewLoader().Load(ctx, path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "declared in both")
	})

	t.Run("invalid syntax rejected", func(t *testing.T) {
		path := writeScenario(t, "broken.hcl", "job \"a\" {\n")
		_, err := NewLoader().Load(ctx, path)
		assert.Error(t, err)
	})

	t.Run("non-object params rejected", func(t *testing.T) {
		path := writeScenario(t, "badparams.hcl", `
job "a" {
  type   = "noop"
  params = "flat"
}
`)
		_, err := NewLoader().Load(ctx, path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "params must be an object")
	})
}
