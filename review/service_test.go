package review

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/researchd/core"
	"github.com/poiesic/researchd/storage"
	"github.com/poiesic/researchd/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, storage.TaskRepository) {
	t.Helper()
	repo, backend, err := badger.NewMemoryTaskRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	service, err := NewService(repo)
	require.NoError(t, err)
	return service, repo
}

func completedTask(t *testing.T, repo storage.TaskRepository, report string) *core.Task {
	t.Helper()
	ctx := context.Background()
	task, err := repo.CreateTask(ctx, "q", nil)
	require.NoError(t, err)
	_, err = repo.UpdateTaskStatus(ctx, task.Id, core.StatusRunning)
	require.NoError(t, err)
	task, err = repo.CompleteTask(ctx, task.Id, report)
	require.NoError(t, err)
	return task
}

func TestApprove(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	t.Run("from completed", func(t *testing.T) {
		task := completedTask(t, repo, "report")
		approved, err := service.Approve(ctx, task.Id)
		require.NoError(t, err)
		assert.Equal(t, core.StatusApproved, approved.Status)
		assert.Equal(t, "report", approved.Report)
	})

	t.Run("from pending review", func(t *testing.T) {
		task := completedTask(t, repo, "report")
		_, err := service.RequestChanges(ctx, task.Id)
		require.NoError(t, err)

		approved, err := service.Approve(ctx, task.Id)
		require.NoError(t, err)
		assert.Equal(t, core.StatusApproved, approved.Status)
	})

	t.Run("not from pending", func(t *testing.T) {
		task, err := repo.CreateTask(ctx, "q", nil)
		require.NoError(t, err)
		_, err = service.Approve(ctx, task.Id)
		assert.ErrorIs(t, err, ErrNotReviewable)
	})

	t.Run("unknown task", func(t *testing.T) {
		_, err := service.Approve(ctx, core.NewTaskID())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestRequestChanges(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	t.Run("keeps report readable", func(t *testing.T) {
		task := completedTask(t, repo, "draft")
		waiting, err := service.RequestChanges(ctx, task.Id)
		require.NoError(t, err)
		assert.Equal(t, core.StatusPendingReview, waiting.Status)
		assert.Equal(t, "draft", waiting.Report)
	})

	t.Run("only from completed", func(t *testing.T) {
		task := completedTask(t, repo, "draft")
		_, err := service.RequestChanges(ctx, task.Id)
		require.NoError(t, err)

		_, err = service.RequestChanges(ctx, task.Id)
		assert.ErrorIs(t, err, ErrNotReviewable)
	})
}

func TestReject(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	t.Run("clears the report", func(t *testing.T) {
		task := completedTask(t, repo, "bad draft")
		_, err := service.RequestChanges(ctx, task.Id)
		require.NoError(t, err)

		rejected, err := service.Reject(ctx, task.Id)
		require.NoError(t, err)
		assert.Equal(t, core.StatusFailed, rejected.Status)
		assert.Empty(t, rejected.Report)
	})

	t.Run("only from pending review", func(t *testing.T) {
		task := completedTask(t, repo, "report")
		_, err := service.Reject(ctx, task.Id)
		assert.ErrorIs(t, err, ErrNotReviewable)
	})
}

func TestServerVerdicts(t *testing.T) {
	service, repo := newTestService(t)
	server := NewServer(service, nil)
	mux := http.NewServeMux()
	server.Register(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	post := func(t *testing.T, id core.TaskID, action string) (*http.Response, map[string]any) {
		t.Helper()
		payload, err := json.Marshal(map[string]string{"action": action})
		require.NoError(t, err)
		resp, err := http.Post(ts.URL+"/review/"+string(id), "application/json", bytes.NewReader(payload))
		require.NoError(t, err)
		defer resp.Body.Close()
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp, body
	}

	t.Run("approve", func(t *testing.T) {
		task := completedTask(t, repo, "report")
		resp, body := post(t, task.Id, "approve")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "APPROVED", body["status"])
	})

	t.Run("full review round trip", func(t *testing.T) {
		task := completedTask(t, repo, "draft")

		resp, body := post(t, task.Id, "request_changes")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "PENDING_REVIEW", body["status"])

		resp, body = post(t, task.Id, "reject")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "FAILED", body["status"])
	})

	t.Run("verdict conflicts with status", func(t *testing.T) {
		task, err := repo.CreateTask(context.Background(), "q", nil)
		require.NoError(t, err)
		resp, _ := post(t, task.Id, "approve")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("unknown task", func(t *testing.T) {
		resp, _ := post(t, core.NewTaskID(), "approve")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown action", func(t *testing.T) {
		task := completedTask(t, repo, "report")
		resp, body := post(t, task.Id, "shrug")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"], "unknown review action")
	})
}
