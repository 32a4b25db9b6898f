package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/researchd/core"
	"github.com/poiesic/researchd/storage"
)

// TaskSummary is the listing view of a task. The attempt history and the
// report body are deliberately omitted; callers fetch those per task.
type TaskSummary struct {
	Id        core.TaskID     `json:"id"`
	Query     string          `json:"query"`
	Status    core.TaskStatus `json:"status"`
	Attempts  int             `json:"attempts"`
	LastStage string          `json:"lastStage,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Service answers read-only questions about tasks and reports.
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

// NewService creates a new query service.
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

// ListTasks returns summaries of tasks, most recently created first.
//
// Status names are matched case-insensitively. A name that is not a
// known status matches no tasks; it narrows the result instead of
// failing the call. With no names at all, every task is returned.
func (s *Service) ListTasks(ctx context.Context, statusNames ...string) ([]TaskSummary, error) {
	var (
		tasks []*core.Task
		err   error
	)

	if len(statusNames) == 0 {
		tasks, err = s.tasks.ListTasks(ctx)
	} else {
		statuses := make([]core.TaskStatus, 0, len(statusNames))
		for _, name := range statusNames {
			status, parseErr := core.ParseTaskStatus(name)
			if parseErr != nil {
				s.logger.Debug("ignoring unknown status filter", "status", name)
				continue
			}
			statuses = append(statuses, status)
		}
		tasks, err = s.tasks.ListTasksByStatus(ctx, statuses...)
	}
	if err != nil {
		s.logger.Error("error listing tasks", "err", err)
		return nil, err
	}

	summaries := make([]TaskSummary, 0, len(tasks))
	for _, task := range tasks {
		summary := TaskSummary{
			Id:        task.Id,
			Query:     task.Query,
			Status:    task.Status,
			Attempts:  len(task.Attempts),
			CreatedAt: task.CreatedAt,
			UpdatedAt: task.UpdatedAt,
		}
		if n := len(task.Attempts); n > 0 {
			summary.LastStage = task.Attempts[n-1].Stage
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// GetTask returns the full task, including its stage attempt history.
func (s *Service) GetTask(ctx context.Context, id core.TaskID) (*core.Task, error) {
	return s.tasks.GetTask(ctx, id)
}

// GetReport returns the report of the given task.
//
// Returns storage.ErrNotFound when no such task exists, and
// ErrReportNotReady when the task exists but its status carries no
// authoritative report (still running, failed, or report rejected).
func (s *Service) GetReport(ctx context.Context, id core.TaskID) (string, error) {
	task, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return "", err
	}
	if !task.Status.ReportExpected() {
		return "", fmt.Errorf("%w: task %s is %s", ErrReportNotReady, id, task.Status)
	}
	return task.Report, nil
}
