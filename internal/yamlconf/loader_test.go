package yamlconf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("scalars flattened to strings", func(t *testing.T) {
		path := writeScenario(t, `
jobs:
  - id: split
    type: copyfile
    params:
      folds: 10
      stratified: true
      ratio: 0.25
      label: gold
    in: [data/all.txt]
    out: [work/part_*.txt]
    temp: true
`)
		scenario, err := NewLoader().Load(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "pipe", scenario.Name)
		require.Len(t, scenario.Templates, 1)

		tpl := scenario.Templates[0]
		assert.Equal(t, "10", tpl.Params["folds"])
		assert.Equal(t, "true", tpl.Params["stratified"])
		assert.Equal(t, "0.25", tpl.Params["ratio"])
		assert.Equal(t, "gold", tpl.Params["label"])
		assert.True(t, tpl.Temp)
	})

	t.Run("nested params rejected", func(t *testing.T) {
		path := writeScenario(t, `
jobs:
  - id: a
    type: noop
    params:
      nested: {x: 1}
`)
		_, err := NewLoader().Load(ctx, path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported value type")
	})

	t.Run("duplicate job id rejected", func(t *testing.T) {
		path := writeScenario(t, `
jobs:
  - id: a
    type: noop
  - id: a
    type: noop
`)
		_, err := NewLoader().Load(ctx, path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "declared in both")
	})

	t.Run("directory mixes yaml and yml files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "one.yaml"), []byte(`
jobs:
  - id: first
    type: noop
`), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "two.yml"), []byte(`
jobs:
  - id: second
    type: noop
`), 0644))

		scenario, err := NewLoader().Load(ctx, dir)
		require.NoError(t, err)
		require.Len(t, scenario.Templates, 2)
		assert.Equal(t, "first", scenario.Templates[0].ID)
		assert.Equal(t, "second", scenario.Templates[1].ID)
	})
}
