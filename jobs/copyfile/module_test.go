package copyfile

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
	testCases := []struct {
		name    string
		inputs  []string
		outputs []string
		want    error
	}{
		{"no inputs", nil, []string{"out.txt"}, job.ErrWrongInputCount},
		{"two outputs", []string{"in.txt"}, []string{"a.txt", "b.txt"}, job.ErrWrongOutputCount},
		{"pattern input", []string{"in_*.txt"}, []string{"out.txt"}, job.ErrMissingPatterns},
		{"pattern output", []string{"in.txt"}, []string{"out_*.txt"}, job.ErrMissingPatterns},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newRunner(registry.Spec{ID: "copy", Inputs: tc.inputs, Outputs: tc.outputs})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, job.IsConfigError(err))
		})
	}
}

func TestPerformCopies(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "nested", "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload\n"), 0644))

	r, err := newRunner(registry.Spec{ID: "copy", Inputs: []string{src}, Outputs: []string{dst}})
	require.NoError(t, err)
	require.NoError(t, r.Perform(context.Background(), &registry.Env{}))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload\n", string(got))
}

func TestPerformMissingInput(t *testing.T) {
	dir := t.TempDir()
	r, err := newRunner(registry.Spec{
		ID:      "copy",
		Inputs:  []string{filepath.Join(dir, "absent.txt")},
		Outputs: []string{filepath.Join(dir, "dst.txt")},
	})
	require.NoError(t, err)
	assert.Error(t, r.Perform(context.Background(), &registry.Env{}))
}
