package storage

import (
	"context"

	"github.com/poiesic/researchd/core"
)

// TaskRepository provides durable, per-task linearizable operations on
// pipeline runs. Implementations must be thread-safe.
type TaskRepository interface {
	// CreateTask creates a new task in status PENDING with a fresh TaskID
	// and CreatedAt/UpdatedAt timestamps populated.
	CreateTask(ctx context.Context, query string, parameters map[string]string) (*core.Task, error)

	// GetTask retrieves a single task by ID.
	// Returns ErrNotFound if the task doesn't exist.
	GetTask(ctx context.Context, id core.TaskID) (*core.Task, error)

	// AppendStageAttempt appends an immutable stage attempt record to the
	// task's history and returns the updated task.
	// Returns ErrNotFound if the task doesn't exist.
	AppendStageAttempt(ctx context.Context, id core.TaskID, attempt core.StageAttempt) (*core.Task, error)

	// UpdateTaskStatus advances the task status and returns the updated task.
	// Moving to COMPLETED is rejected with ErrInvalidTransition; completion
	// goes through CompleteTask so the report invariant holds atomically.
	// Moving to RUNNING only succeeds from PENDING, making it an atomic
	// claim on the task. Any transition that would leave the report
	// inconsistent with the new status is rejected with ErrInvalidTransition.
	UpdateTaskStatus(ctx context.Context, id core.TaskID, status core.TaskStatus) (*core.Task, error)

	// CompleteTask atomically stores the report and moves the task from
	// RUNNING to COMPLETED. Returns ErrEmptyReport for an empty report and
	// ErrInvalidTransition if the task is not RUNNING.
	CompleteTask(ctx context.Context, id core.TaskID, report string) (*core.Task, error)

	// RejectReport atomically clears the report and moves the task from
	// PENDING_REVIEW to FAILED. Used by the reviewer, never the executor.
	RejectReport(ctx context.Context, id core.TaskID) (*core.Task, error)

	// ListTasks returns all tasks, most recently created first.
	ListTasks(ctx context.Context) ([]*core.Task, error)

	// ListTasksByStatus returns the tasks whose status is in the given set,
	// most recently created first. An empty set returns no tasks.
	ListTasksByStatus(ctx context.Context, statuses ...core.TaskStatus) ([]*core.Task, error)

	// Close closes the repository and releases resources.
	Close() error
}
