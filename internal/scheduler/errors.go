package scheduler

import "errors"

// ErrMissingDependency indicates New was called without a required collaborator.
var ErrMissingDependency = errors.New("scheduler: missing dependency")
