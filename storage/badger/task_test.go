package badger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/researchd/core"
	"github.com/poiesic/researchd/storage"
)

func TestTaskBasics(t *testing.T) {
	repo, backend, err := NewMemoryTaskRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	task, err := repo.CreateTask(ctx, "quantum error correction", map[string]string{"source": "arxiv"})
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	if task.Id == "" {
		t.Fatal("Expected non-empty task ID")
	}
	if task.Status != core.StatusPending {
		t.Fatalf("Expected PENDING, got %v", task.Status)
	}
	if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Fatal("Expected timestamps to be populated")
	}

	retrieved, err := repo.GetTask(ctx, task.Id)
	if err != nil {
		t.Fatalf("Failed to get task: %v", err)
	}
	if retrieved.Query != "quantum error correction" {
		t.Fatalf("Unexpected query: %q", retrieved.Query)
	}
	if retrieved.Parameters["source"] != "arxiv" {
		t.Fatalf("Unexpected parameters: %v", retrieved.Parameters)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	repo, backend, err := NewMemoryTaskRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() {
		repo.Close()
		backend.Close()
	}()

	_, err = repo.GetTask(context.Background(), core.NewTaskID())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestAppendStageAttempt(t *testing.T) {
	repo, backend, err := NewMemoryTaskRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	task, err := repo.CreateTask(ctx, "q", nil)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	now := time.Now().UTC()
	updated, err := repo.AppendStageAttempt(ctx, task.Id, core.StageAttempt{
		Stage: "ingest", Attempt: 1, StartedAt: now, FinishedAt: now.Add(time.Second), Outcome: core.OutcomeSuccess,
	})
	if err != nil {
		t.Fatalf("Failed to append attempt: %v", err)
	}
	if len(updated.Attempts) != 1 {
		t.Fatalf("Expected 1 attempt, got %d", len(updated.Attempts))
	}

	updated, err = repo.AppendStageAttempt(ctx, task.Id, core.StageAttempt{
		Stage: "process", Attempt: 1, StartedAt: now, FinishedAt: now.Add(time.Second), Outcome: core.OutcomeFailure, ErrorDetail: "boom",
	})
	if err != nil {
		t.Fatalf("Failed to append attempt: %v", err)
	}
	if len(updated.Attempts) != 2 {
		t.Fatalf("Expected 2 attempts, got %d", len(updated.Attempts))
	}
	if updated.Attempts[0].Stage != "ingest" || updated.Attempts[1].Stage != "process" {
		t.Fatalf("Attempts out of order: %v", updated.Attempts)
	}

	// Invalid attempts are rejected before any write
	if _, err := repo.AppendStageAttempt(ctx, task.Id, core.StageAttempt{Stage: "", Attempt: 1, Outcome: core.OutcomeSuccess}); err == nil {
		t.Fatal("Expected validation error for empty stage name")
	}
}

func TestStatusTransitions(t *testing.T) {
	repo, backend, err := NewMemoryTaskRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	task, err := repo.CreateTask(ctx, "q", nil)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	// COMPLETED must go through CompleteTask
	if _, err := repo.UpdateTaskStatus(ctx, task.Id, core.StatusCompleted); !errors.Is(err, storage.ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got %v", err)
	}

	// PENDING_REVIEW without a report would break the invariant
	if _, err := repo.UpdateTaskStatus(ctx, task.Id, core.StatusPendingReview); !errors.Is(err, storage.ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got %v", err)
	}

	if _, err := repo.UpdateTaskStatus(ctx, task.Id, core.StatusRunning); err != nil {
		t.Fatalf("Failed to move to RUNNING: %v", err)
	}

	// RUNNING is an exclusive claim; a second claim must lose
	if _, err := repo.UpdateTaskStatus(ctx, task.Id, core.StatusRunning); !errors.Is(err, storage.ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition for second RUNNING claim, got %v", err)
	}

	// Completing from RUNNING requires a report
	if _, err := repo.CompleteTask(ctx, task.Id, ""); !errors.Is(err, storage.ErrEmptyReport) {
		t.Fatalf("Expected ErrEmptyReport, got %v", err)
	}

	completed, err := repo.CompleteTask(ctx, task.Id, "# Report")
	if err != nil {
		t.Fatalf("Failed to complete task: %v", err)
	}
	if completed.Status != core.StatusCompleted || completed.Report != "# Report" {
		t.Fatalf("Unexpected completion state: %v %q", completed.Status, completed.Report)
	}

	// Completing twice is invalid
	if _, err := repo.CompleteTask(ctx, task.Id, "# Again"); !errors.Is(err, storage.ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got %v", err)
	}

	// Reviewer transitions keep the report
	reviewed, err := repo.UpdateTaskStatus(ctx, task.Id, core.StatusPendingReview)
	if err != nil {
		t.Fatalf("Failed to move to PENDING_REVIEW: %v", err)
	}
	if reviewed.Report == "" {
		t.Fatal("Expected report to survive review transition")
	}

	// Rejecting clears the report and fails the task
	rejected, err := repo.RejectReport(ctx, task.Id)
	if err != nil {
		t.Fatalf("Failed to reject report: %v", err)
	}
	if rejected.Status != core.StatusFailed || rejected.Report != "" {
		t.Fatalf("Unexpected rejection state: %v %q", rejected.Status, rejected.Report)
	}
}

func TestListTasksByStatus(t *testing.T) {
	repo, backend, err := NewMemoryTaskRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	mk := func(status core.TaskStatus) *core.Task {
		task, err := repo.CreateTask(ctx, "q", nil)
		if err != nil {
			t.Fatalf("Failed to create task: %v", err)
		}
		switch status {
		case core.StatusPending:
		case core.StatusCompleted, core.StatusApproved:
			if _, err := repo.UpdateTaskStatus(ctx, task.Id, core.StatusRunning); err != nil {
				t.Fatalf("Failed to start task: %v", err)
			}
			if _, err := repo.CompleteTask(ctx, task.Id, "# R"); err != nil {
				t.Fatalf("Failed to complete task: %v", err)
			}
			if status == core.StatusApproved {
				if _, err := repo.UpdateTaskStatus(ctx, task.Id, core.StatusApproved); err != nil {
					t.Fatalf("Failed to approve task: %v", err)
				}
			}
		default:
			if _, err := repo.UpdateTaskStatus(ctx, task.Id, status); err != nil {
				t.Fatalf("Failed to set status %v: %v", status, err)
			}
		}
		// Distinct creation timestamps keep the ordering assertions stable
		time.Sleep(2 * time.Millisecond)
		return task
	}

	mk(core.StatusPending)
	completed := mk(core.StatusCompleted)
	mk(core.StatusFailed)
	approved := mk(core.StatusApproved)

	tasks, err := repo.ListTasksByStatus(ctx, core.StatusCompleted, core.StatusApproved, core.StatusPendingReview)
	if err != nil {
		t.Fatalf("Failed to list tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	// Most recently created first
	if tasks[0].Id != approved.Id || tasks[1].Id != completed.Id {
		t.Fatalf("Unexpected order: %v, %v", tasks[0].Id, tasks[1].Id)
	}

	all, err := repo.ListTasks(ctx)
	if err != nil {
		t.Fatalf("Failed to list all tasks: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("Expected 4 tasks, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Fatal("Expected newest-first ordering")
		}
	}

	none, err := repo.ListTasksByStatus(ctx)
	if err != nil {
		t.Fatalf("Failed to list with empty filter: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("Expected no tasks for empty status set, got %d", len(none))
	}
}

func TestConcurrentAppends(t *testing.T) {
	repo, backend, err := NewMemoryTaskRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	task, err := repo.CreateTask(ctx, "q", nil)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	stages := []string{"ingest", "process", "embed-index", "synthesize"}
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			now := time.Now().UTC()
			_, err := repo.AppendStageAttempt(ctx, task.Id, core.StageAttempt{
				Stage:     stages[i%len(stages)],
				Attempt:   i/len(stages) + 1,
				StartedAt: now,
				FinishedAt: now,
				Outcome:   core.OutcomeSuccess,
			})
			if err != nil {
				t.Errorf("append failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	final, err := repo.GetTask(ctx, task.Id)
	if err != nil {
		t.Fatalf("Failed to get task: %v", err)
	}
	if len(final.Attempts) != writers {
		t.Fatalf("Lost updates: expected %d attempts, got %d", writers, len(final.Attempts))
	}
}
