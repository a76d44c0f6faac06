// Package handoff moves a validated job from the request that received it to
// whatever runs the pipeline.
//
// Delivery semantics by mode:
//
//	inline  same process, detached goroutine; lost if the process stops first
//	http    one signed POST to HANDOFF_URL; at-most-once, failures are only logged
//	kafka   durable topic; at-least-once, the worker de-duplicates by job id
package handoff

import (
	"context"

	"contractflow/internal/pipeline"
)

// Dispatcher accepts a job for asynchronous processing. A nil error means the
// job was handed over, not that it ran.
type Dispatcher interface {
	Dispatch(ctx context.Context, job pipeline.Job) error
	Mode() string
}

// Runner executes a job. *pipeline.Service satisfies it.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job) (*pipeline.Result, error)
}
