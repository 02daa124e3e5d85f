package filter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asifkhan89/en-deep-sub000/internal/job"
	"github.com/asifkhan89/en-deep-sub000/internal/registry"
)

func TestNewRunnerValidation(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		_, err := newRunner(registry.Spec{
			ID:      "f",
			Params:  job.Params{"value": "NN"},
			Inputs:  []string{"in.tsv"},
			Outputs: []string{"out.tsv"},
		})
		assert.ErrorIs(t, err, job.ErrInvalidParams)
	})

	t.Run("missing value", func(t *testing.T) {
		_, err := newRunner(registry.Spec{
			ID:      "f",
			Params:  job.Params{"column": "1"},
			Inputs:  []string{"in.tsv"},
			Outputs: []string{"out.tsv"},
		})
		assert.ErrorIs(t, err, job.ErrInvalidParams)
	})

	t.Run("negative column", func(t *testing.T) {
		_, err := newRunner(registry.Spec{
			ID:      "f",
			Params:  job.Params{"column": "-1", "value": "NN"},
			Inputs:  []string{"in.tsv"},
			Outputs: []string{"out.tsv"},
		})
		assert.ErrorIs(t, err, job.ErrInvalidParams)
	})
}

func TestPerformKeepsMatchingRows(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "tagged.tsv")
	out := filepath.Join(dir, "nouns.tsv")
	body := "dog\tNN\nruns\tVBZ\ncat\tNN\n"
	require.NoError(t, os.WriteFile(in, []byte(body), 0644))

	r, err := newRunner(registry.Spec{
		ID:      "f",
		Params:  job.Params{"column": "1", "value": "NN"},
		Inputs:  []string{in},
		Outputs: []string{out},
	})
	require.NoError(t, err)
	require.NoError(t, r.Perform(context.Background(), &registry.Env{}))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "dog\tNN\ncat\tNN\n", string(got))
}

func TestPerformShortRowIsDataError(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "broken.tsv")
	require.NoError(t, os.WriteFile(in, []byte("dog\tNN\nstray\n"), 0644))

	r, err := newRunner(registry.Spec{
		ID:      "f",
		Params:  job.Params{"column": "1", "value": "NN"},
		Inputs:  []string{in},
		Outputs: []string{filepath.Join(dir, "out.tsv")},
	})
	require.NoError(t, err)

	err = r.Perform(context.Background(), &registry.Env{})
	assert.ErrorIs(t, err, job.ErrInvalidData)
}
