package core

//go:generate go run ../cmd/musgen

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskID is the globally unique identifier of a pipeline run.
// It is assigned once at submission and never changes.
type TaskID string

// NewTaskID generates a fresh random TaskID.
func NewTaskID() TaskID {
	return TaskID(uuid.New().String())
}

// TaskStatus is the lifecycle state of a Task.
type TaskStatus int

const (
	// StatusPending marks a task that has been submitted but not yet picked up.
	StatusPending TaskStatus = iota + 1
	// StatusRunning marks a task the executor is currently advancing.
	StatusRunning
	// StatusCompleted marks a task whose every stage succeeded and whose report is stored.
	StatusCompleted
	// StatusFailed marks a task that permanently failed or was cancelled.
	StatusFailed
	// StatusPendingReview marks a completed task flagged for human review.
	StatusPendingReview
	// StatusApproved marks a reviewed task whose report was accepted.
	StatusApproved
)

var statusNames = map[TaskStatus]string{
	StatusPending:       "PENDING",
	StatusRunning:       "RUNNING",
	StatusCompleted:     "COMPLETED",
	StatusFailed:        "FAILED",
	StatusPendingReview: "PENDING_REVIEW",
	StatusApproved:      "APPROVED",
}

// String returns the canonical wire name of the status.
func (s TaskStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalJSON renders the status as its canonical name.
func (s TaskStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ParseTaskStatus parses a status name case-insensitively.
// Returns ErrInvalidStatus for names that are not defined.
func ParseTaskStatus(name string) (TaskStatus, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for status, statusName := range statusNames {
		if statusName == upper {
			return status, nil
		}
	}
	return 0, ErrInvalidStatus
}

// Terminal reports whether the executor stops advancing a task in this status.
func (s TaskStatus) Terminal() bool {
	return s != StatusPending && s != StatusRunning
}

// ReportExpected reports whether a task in this status must carry a
// non-empty report. The store rejects any write that would break this.
func (s TaskStatus) ReportExpected() bool {
	return s == StatusCompleted || s == StatusPendingReview || s == StatusApproved
}

// StageOutcome is the result of a single stage attempt.
type StageOutcome int

const (
	// OutcomeSuccess means the stage's collaborator call returned without error.
	OutcomeSuccess StageOutcome = iota + 1
	// OutcomeFailure means the call returned an error, timed out, or was cancelled.
	OutcomeFailure
)

// String returns the canonical wire name of the outcome.
func (o StageOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeFailure:
		return "FAILURE"
	}
	return "UNKNOWN"
}

// MarshalJSON renders the outcome as its canonical name.
func (o StageOutcome) MarshalJSON() ([]byte, error) {
	return []byte(`"` + o.String() + `"`), nil
}

// StageAttempt records one execution of one stage. Attempts are append-only:
// once recorded they are never modified.
type StageAttempt struct {
	Stage       string       `json:"stage"`
	Attempt     int          `json:"attempt"` // 1-based attempt counter per stage
	StartedAt   time.Time    `json:"startedAt"`
	FinishedAt  time.Time    `json:"finishedAt"`
	Outcome     StageOutcome `json:"outcome"`
	ErrorDetail string       `json:"errorDetail,omitempty"` // set iff Outcome is OutcomeFailure
}

// Task is one end-to-end pipeline run and its accumulated state.
// Tasks are mutated exclusively through the task repository.
type Task struct {
	Id         TaskID            `json:"id"`
	Query      string            `json:"query"`
	Parameters map[string]string `json:"parameters,omitempty"` // opaque run input, passed to every stage
	Status     TaskStatus        `json:"status"`
	Attempts   []StageAttempt    `json:"attempts"` // execution order; a stage repeats only when retried
	Report     string            `json:"report,omitempty"` // non-empty iff Status.ReportExpected()
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// AttemptsFor returns the number of recorded attempts for the named stage.
func (t *Task) AttemptsFor(stage string) int {
	n := 0
	for _, a := range t.Attempts {
		if a.Stage == stage {
			n++
		}
	}
	return n
}

// Succeeded reports whether the named stage has a recorded SUCCESS attempt.
func (t *Task) Succeeded(stage string) bool {
	for _, a := range t.Attempts {
		if a.Stage == stage && a.Outcome == OutcomeSuccess {
			return true
		}
	}
	return false
}
