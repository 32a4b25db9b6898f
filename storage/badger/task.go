package badger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/researchd/core"
	"github.com/poiesic/researchd/storage"
)

// TaskRepository implements storage.TaskRepository for BadgerDB.
//
// A single write mutex serializes all mutations. That is what makes
// concurrent stage completions for the same task linearizable; the
// executor's worker pool may finish independent stages at the same time.
type TaskRepository struct {
	backend *Backend
	writeMu sync.Mutex
}

var _ storage.TaskRepository = (*TaskRepository)(nil)

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(backend *Backend) *TaskRepository {
	return &TaskRepository{backend: backend}
}

// Close is a no-op; the caller owns the backend.
func (r *TaskRepository) Close() error {
	return nil
}

// CreateTask creates a new task in status PENDING.
func (r *TaskRepository) CreateTask(ctx context.Context, query string, parameters map[string]string) (*core.Task, error) {
	now := time.Now().UTC()
	task := &core.Task{
		Id:         core.NewTaskID(),
		Query:      query,
		Parameters: parameters,
		Status:     core.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := core.ValidateTask(task); err != nil {
		return nil, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeTaskKey(task.Id), storage.MarshalTask(task)); err != nil {
			return err
		}
		if err := tx.Set(makeTaskCreatedKey(task.CreatedAt, task.Id), storage.MarshalTaskID(task.Id)); err != nil {
			return err
		}
		if err := tx.Set(makeTaskStatusKey(task.Status, task.CreatedAt, task.Id), storage.MarshalTaskID(task.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return task, nil
}

// GetTask retrieves a single task by ID.
func (r *TaskRepository) GetTask(ctx context.Context, id core.TaskID) (*core.Task, error) {
	var task *core.Task
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		task, err = r.readTask(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// AppendStageAttempt appends a stage attempt to the task's history.
func (r *TaskRepository) AppendStageAttempt(ctx context.Context, id core.TaskID, attempt core.StageAttempt) (*core.Task, error) {
	if err := core.ValidateStageAttempt(&attempt); err != nil {
		return nil, err
	}
	return r.mutateTask(id, func(task *core.Task) error {
		task.Attempts = append(task.Attempts, attempt)
		return nil
	})
}

// UpdateTaskStatus advances the task status.
// Moving to COMPLETED must go through CompleteTask instead, moving to
// RUNNING only succeeds from PENDING, and any change that would break
// the report invariant is rejected.
func (r *TaskRepository) UpdateTaskStatus(ctx context.Context, id core.TaskID, status core.TaskStatus) (*core.Task, error) {
	if err := core.ValidateTaskStatus(status); err != nil {
		return nil, err
	}
	if status == core.StatusCompleted {
		return nil, storage.ErrInvalidTransition
	}
	return r.mutateTask(id, func(task *core.Task) error {
		// RUNNING is the executor's exclusive claim on a task; it only
		// holds from PENDING so two concurrent claims cannot both win.
		if status == core.StatusRunning && task.Status != core.StatusPending {
			return storage.ErrInvalidTransition
		}
		if (task.Report != "") != status.ReportExpected() {
			return storage.ErrInvalidTransition
		}
		task.Status = status
		return nil
	})
}

// CompleteTask atomically stores the report and marks the task COMPLETED.
func (r *TaskRepository) CompleteTask(ctx context.Context, id core.TaskID, report string) (*core.Task, error) {
	if report == "" {
		return nil, storage.ErrEmptyReport
	}
	return r.mutateTask(id, func(task *core.Task) error {
		if task.Status != core.StatusRunning {
			return storage.ErrInvalidTransition
		}
		task.Status = core.StatusCompleted
		task.Report = report
		return nil
	})
}

// RejectReport atomically clears the report and marks the task FAILED.
func (r *TaskRepository) RejectReport(ctx context.Context, id core.TaskID) (*core.Task, error) {
	return r.mutateTask(id, func(task *core.Task) error {
		if task.Status != core.StatusPendingReview {
			return storage.ErrInvalidTransition
		}
		task.Status = core.StatusFailed
		task.Report = ""
		return nil
	})
}

// ListTasks returns all tasks, most recently created first.
func (r *TaskRepository) ListTasks(ctx context.Context) ([]*core.Task, error) {
	var tasks []*core.Task
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := scanIndexReverse(tx, []byte(taskCreatedPrefix+":"))
		if err != nil {
			return err
		}
		for _, id := range ids {
			task, err := r.readTask(tx, id)
			if err != nil {
				return err
			}
			tasks = append(tasks, task)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListTasksByStatus returns the tasks in the given status set, most
// recently created first. An empty set returns no tasks.
func (r *TaskRepository) ListTasksByStatus(ctx context.Context, statuses ...core.TaskStatus) ([]*core.Task, error) {
	var tasks []*core.Task
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, status := range statuses {
			ids, err := scanIndexReverse(tx, makePartialTaskStatusKey(status))
			if err != nil {
				return err
			}
			for _, id := range ids {
				task, err := r.readTask(tx, id)
				if err != nil {
					return err
				}
				tasks = append(tasks, task)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Per-status scans are already newest first; merge across statuses.
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].Id < tasks[j].Id
	})
	return tasks, nil
}

// mutateTask applies fn to the stored task and persists the result,
// re-validating domain invariants and maintaining the status index.
func (r *TaskRepository) mutateTask(id core.TaskID, fn func(task *core.Task) error) (*core.Task, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var task *core.Task
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		task, err = r.readTask(tx, id)
		if err != nil {
			return err
		}
		oldStatus := task.Status

		if err := fn(task); err != nil {
			return err
		}
		task.UpdatedAt = time.Now().UTC()

		if err := core.ValidateTask(task); err != nil {
			return err
		}

		if err := tx.Set(makeTaskKey(task.Id), storage.MarshalTask(task)); err != nil {
			return err
		}

		// Move the status index entry if the status changed
		if task.Status != oldStatus {
			if err := tx.Delete(makeTaskStatusKey(oldStatus, task.CreatedAt, task.Id)); err != nil {
				return err
			}
			if err := tx.Set(makeTaskStatusKey(task.Status, task.CreatedAt, task.Id), storage.MarshalTaskID(task.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// readTask reads and deserializes a task record inside a transaction.
func (r *TaskRepository) readTask(tx *badger.Txn, id core.TaskID) (*core.Task, error) {
	item, err := tx.Get(makeTaskKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var task *core.Task
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		task, unmarshalErr = storage.UnmarshalTask(val)
		return unmarshalErr
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// scanIndexReverse walks an index prefix newest-first and returns the
// task IDs stored as values.
func scanIndexReverse(tx *badger.Txn, prefix []byte) ([]core.TaskID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.Reverse = true
	iter := tx.NewIterator(opts)
	defer iter.Close()

	// Reverse iteration needs a seek key past the end of the prefix range.
	seek := make([]byte, len(prefix)+1)
	copy(seek, prefix)
	seek[len(prefix)] = 0xFF

	var ids []core.TaskID
	for iter.Seek(seek); iter.ValidForPrefix(prefix); iter.Next() {
		item := iter.Item()
		err := item.Value(func(val []byte) error {
			id, err := storage.UnmarshalTaskID(val)
			if err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}
