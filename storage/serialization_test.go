package storage

import (
	"testing"
	"time"

	"github.com/poiesic/researchd/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskSerializationRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 589000, time.UTC)
	task := &core.Task{
		Id:    core.NewTaskID(),
		Query: "transformer interpretability survey",
		Parameters: map[string]string{
			"source": "arxiv",
			"max":    "5",
		},
		Status: core.StatusCompleted,
		Attempts: []core.StageAttempt{
			{Stage: "ingest", Attempt: 1, StartedAt: created, FinishedAt: created.Add(time.Minute), Outcome: core.OutcomeSuccess},
			{Stage: "process", Attempt: 1, StartedAt: created.Add(time.Minute), FinishedAt: created.Add(2 * time.Minute), Outcome: core.OutcomeFailure, ErrorDetail: "extractor timeout"},
			{Stage: "process", Attempt: 2, StartedAt: created.Add(7 * time.Minute), FinishedAt: created.Add(8 * time.Minute), Outcome: core.OutcomeSuccess},
		},
		Report:    "# Survey\n\nFindings...",
		CreatedAt: created,
		UpdatedAt: created.Add(8 * time.Minute),
	}

	data := MarshalTask(task)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalTask(data)
	require.NoError(t, err)

	assert.Equal(t, task.Id, decoded.Id)
	assert.Equal(t, task.Query, decoded.Query)
	assert.Equal(t, task.Parameters, decoded.Parameters)
	assert.Equal(t, task.Status, decoded.Status)
	assert.Equal(t, task.Report, decoded.Report)
	assert.True(t, task.CreatedAt.Equal(decoded.CreatedAt))
	assert.True(t, task.UpdatedAt.Equal(decoded.UpdatedAt))

	require.Len(t, decoded.Attempts, len(task.Attempts))
	for i := range task.Attempts {
		assert.Equal(t, task.Attempts[i].Stage, decoded.Attempts[i].Stage)
		assert.Equal(t, task.Attempts[i].Attempt, decoded.Attempts[i].Attempt)
		assert.Equal(t, task.Attempts[i].Outcome, decoded.Attempts[i].Outcome)
		assert.Equal(t, task.Attempts[i].ErrorDetail, decoded.Attempts[i].ErrorDetail)
		assert.True(t, task.Attempts[i].StartedAt.Equal(decoded.Attempts[i].StartedAt))
		assert.True(t, task.Attempts[i].FinishedAt.Equal(decoded.Attempts[i].FinishedAt))
	}
}

func TestTaskSerializationEmptyCollections(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	task := &core.Task{
		Id:        core.NewTaskID(),
		Query:     "q",
		Status:    core.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	decoded, err := UnmarshalTask(MarshalTask(task))
	require.NoError(t, err)
	assert.Equal(t, task.Id, decoded.Id)
	assert.Nil(t, decoded.Parameters)
	assert.Nil(t, decoded.Attempts)
}

func TestUnmarshalTaskTruncated(t *testing.T) {
	now := time.Now().UTC()
	task := &core.Task{Id: core.NewTaskID(), Query: "q", Status: core.StatusPending, CreatedAt: now, UpdatedAt: now}
	data := MarshalTask(task)

	_, err := UnmarshalTask(data[:len(data)/2])
	assert.Error(t, err)
}
