package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when a trigger cannot be built from its configuration
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrNoJobs is returned when a trigger is created without jobs
	ErrNoJobs = errors.New("scheduler has no jobs")
)
