package app

import (
	"github.com/asifkhan89/en-deep-sub000/internal/registry"
	"github.com/asifkhan89/en-deep-sub000/jobs/copyfile"
	"github.com/asifkhan89/en-deep-sub000/jobs/filter"
	"github.com/asifkhan89/en-deep-sub000/jobs/greedy"
	"github.com/asifkhan89/en-deep-sub000/jobs/merge"
	"github.com/asifkhan89/en-deep-sub000/jobs/sample"
)

// coreModules is the definitive list of all job modules that are compiled
// into the endeep binary.
var coreModules = []registry.Module{
	&copyfile.Module{},
	&filter.Module{},
	&merge.Module{},
	&sample.Module{},
	&greedy.Module{},
}
