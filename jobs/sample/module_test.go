package sample

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

func write(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name+"\n"), 0644))
}

func TestNewRunnerValidation(t *testing.T) {
	t.Run("unpaired outputs", func(t *testing.T) {
		_, err := newRunner(registry.Spec{
			ID:      "s",
			Params:  job.Params{"count": "1"},
			Inputs:  []string{"a_*.txt", "b_*.txt"},
			Outputs: []string{"out_*.txt"},
		})
		assert.ErrorIs(t, err, job.ErrWrongOutputCount)
	})

	t.Run("missing count", func(t *testing.T) {
		_, err := newRunner(registry.Spec{
			ID:      "s",
			Inputs:  []string{"a_*.txt"},
			Outputs: []string{"out_*.txt"},
		})
		assert.ErrorIs(t, err, job.ErrInvalidParams)
	})

	t.Run("zero count", func(t *testing.T) {
		_, err := newRunner(registry.Spec{
			ID:      "s",
			Params:  job.Params{"count": "0"},
			Inputs:  []string{"a_*.txt"},
			Outputs: []string{"out_*.txt"},
		})
		assert.ErrorIs(t, err, job.ErrInvalidParams)
	})
}

func TestPerformSamplesBoundedSubset(t *testing.T) {
	dir := t.TempDir()
	keys := []string{"1", "2", "3", "4", "5"}
	for _, k := range keys {
		write(t, dir, "in_"+k+".txt")
	}

	r, err := newRunner(registry.Spec{
		ID:      "s",
		Params:  job.Params{"count": "2", "seed": "7"},
		Inputs:  []string{filepath.Join(dir, "in_*.txt")},
		Outputs: []string{filepath.Join(dir, "pick_*.txt")},
	})
	require.NoError(t, err)
	require.NoError(t, r.Perform(context.Background(), &registry.Env{}))

	var picked []string
	for _, k := range keys {
		if _, err := os.Stat(filepath.Join(dir, "pick_"+k+".txt")); err == nil {
			picked = append(picked, k)
		}
	}
	assert.Len(t, picked, 2)
}

func TestPerformSameSeedSamePick(t *testing.T) {
	run := func(t *testing.T) []string {
		dir := t.TempDir()
		keys := []string{"1", "2", "3", "4", "5", "6"}
		for _, k := range keys {
			write(t, dir, "in_"+k+".txt")
		}
		r, err := newRunner(registry.Spec{
			ID:      "s",
			Params:  job.Params{"count": "3", "seed": "42"},
			Inputs:  []string{filepath.Join(dir, "in_*.txt")},
			Outputs: []string{filepath.Join(dir, "pick_*.txt")},
		})
		require.NoError(t, err)
		require.NoError(t, r.Perform(context.Background(), &registry.Env{}))

		var picked []string
		for _, k := range keys {
			if _, err := os.Stat(filepath.Join(dir, "pick_"+k+".txt")); err == nil {
				picked = append(picked, k)
			}
		}
		return picked
	}

	first := run(t)
	second := run(t)
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestPerformCountLargerThanViable(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "in_a.txt")

	r, err := newRunner(registry.Spec{
		ID:      "s",
		Params:  job.Params{"count": "10"},
		Inputs:  []string{filepath.Join(dir, "in_*.txt")},
		Outputs: []string{filepath.Join(dir, "pick_*.txt")},
	})
	require.NoError(t, err)
	require.NoError(t, r.Perform(context.Background(), &registry.Env{}))

	_, err = os.Stat(filepath.Join(dir, "pick_a.txt"))
	assert.NoError(t, err)
}
