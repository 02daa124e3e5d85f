// Package config defines the format-agnostic scenario model and the Loader
// interface implemented by the HCL and YAML front ends.
package config

import (
	"context"

	"github.com/asifkhan89/en-deep-sub000/internal/job"
)

// Scenario is one declared pipeline: a named set of job templates. Template
// order is declaration order; it has no execution meaning beyond making
// logs and plan traversal deterministic.
type Scenario struct {
	Name      string
	Templates []*job.Template
}

// Loader is the interface for a format-specific scenario loader. Load
// accepts a single file or a directory of files of the loader's format.
type Loader interface {
	Load(ctx context.Context, path string) (*Scenario, error)
}
