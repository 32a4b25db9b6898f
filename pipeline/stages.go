package pipeline

import (
	"context"
	"errors"
	"time"
)

// Outputs maps completed stage names to the output each produced.
// Stages receive the outputs of every stage that finished before them.
type Outputs map[string]string

// StageFunc adapts an external collaborator (ingestion connector, text
// extractor, embedding/index client, report generator) to the executor.
// It is invoked with the task's parameters (the research query itself
// under the reserved "query" key) and the outputs of prior stages, and
// must return its own output or an error within the stage's timeout. The executor treats any error, timeout, or panic as a FAILURE
// outcome with the fault's message as the attempt's error detail.
type StageFunc func(ctx context.Context, parameters map[string]string, prior Outputs) (string, error)

// StageDefinition declares one unit of work in a pipeline. Definitions are
// fixed at graph construction and immutable thereafter.
type StageDefinition struct {
	// Name uniquely identifies the stage within a graph.
	Name string

	// DependsOn names the stages that must succeed before this one runs.
	DependsOn []string

	// Idempotent declares that re-running the stage is safe. Failures of
	// non-idempotent stages are retried only when marked with RetryableErr.
	Idempotent bool

	// Timeout overrides the executor's default per-invocation timeout.
	// Zero means use the default.
	Timeout time.Duration

	// Retry overrides the executor's default retry policy. Nil means use
	// the default.
	Retry *RetryPolicy

	// Run is the collaborator call the stage wraps.
	Run StageFunc
}

// Retryable marks err as safe to retry. A non-idempotent stage that fails
// partway must wrap the error with RetryableErr only when it knows the
// side effect was not committed; otherwise the executor gives up
// immediately to avoid duplicating external effects.
type Retryable struct{ Err error }

func (e *Retryable) Error() string { return e.Err.Error() }
func (e *Retryable) Unwrap() error { return e.Err }

// RetryableErr wraps err so IsRetryable reports true for it.
func RetryableErr(err error) error { return &Retryable{Err: err} }

// IsRetryable reports whether err (or anything it wraps) was marked with
// RetryableErr.
func IsRetryable(err error) bool { return errors.As(err, new(*Retryable)) }
