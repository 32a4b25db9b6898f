package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/researchd/core"
	"github.com/poiesic/researchd/storage"
)

// Service applies reviewer verdicts to tasks.
type Service struct {
	tasks  storage.TaskRepository
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates a new review service.
func NewService(tasks storage.TaskRepository, opts ...Option) (*Service, error) {
	if tasks == nil {
		return nil, ErrTaskRepositoryRequired
	}

	s := &Service{
		tasks:  tasks,
		logger: slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Approve marks the task's report as accepted.
// Allowed from COMPLETED or PENDING_REVIEW.
func (s *Service) Approve(ctx context.Context, id core.TaskID) (*core.Task, error) {
	task, err := s.requireStatus(ctx, id, core.StatusCompleted, core.StatusPendingReview)
	if err != nil {
		return nil, err
	}

	task, err = s.tasks.UpdateTaskStatus(ctx, id, core.StatusApproved)
	if err != nil {
		return nil, err
	}
	s.logger.Info("report approved", "task", id)
	return task, nil
}

// RequestChanges sends a completed report back for another look.
// Allowed from COMPLETED only; the report stays readable while it waits.
func (s *Service) RequestChanges(ctx context.Context, id core.TaskID) (*core.Task, error) {
	if _, err := s.requireStatus(ctx, id, core.StatusCompleted); err != nil {
		return nil, err
	}

	task, err := s.tasks.UpdateTaskStatus(ctx, id, core.StatusPendingReview)
	if err != nil {
		return nil, err
	}
	s.logger.Info("changes requested", "task", id)
	return task, nil
}

// Reject discards a report that was sent back for changes. The task
// ends FAILED and the report is cleared.
// Allowed from PENDING_REVIEW only.
func (s *Service) Reject(ctx context.Context, id core.TaskID) (*core.Task, error) {
	if _, err := s.requireStatus(ctx, id, core.StatusPendingReview); err != nil {
		return nil, err
	}

	task, err := s.tasks.RejectReport(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("report rejected", "task", id)
	return task, nil
}

// requireStatus fetches the task and checks it is in one of the allowed
// statuses for the verdict.
func (s *Service) requireStatus(ctx context.Context, id core.TaskID, allowed ...core.TaskStatus) (*core.Task, error) {
	task, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, status := range allowed {
		if task.Status == status {
			return task, nil
		}
	}
	return nil, fmt.Errorf("%w: task %s is %s", ErrNotReviewable, id, task.Status)
}
