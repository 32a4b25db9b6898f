package core

import (
	"testing"
	"time"
)

func TestParseTaskStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TaskStatus
		wantErr bool
	}{
		{
			name:  "canonical name",
			input: "COMPLETED",
			want:  StatusCompleted,
		},
		{
			name:  "lower case",
			input: "pending_review",
			want:  StatusPendingReview,
		},
		{
			name:  "mixed case with whitespace",
			input: "  Approved ",
			want:  StatusApproved,
		},
		{
			name:    "unknown name",
			input:   "archived",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTaskStatus(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTaskStatusRoundTrip(t *testing.T) {
	for status := range statusNames {
		parsed, err := ParseTaskStatus(status.String())
		if err != nil {
			t.Fatalf("failed to parse %v: %v", status, err)
		}
		if parsed != status {
			t.Fatalf("round trip mismatch: %v != %v", parsed, status)
		}
	}
}

func TestReportExpected(t *testing.T) {
	expected := map[TaskStatus]bool{
		StatusPending:       false,
		StatusRunning:       false,
		StatusCompleted:     true,
		StatusFailed:        false,
		StatusPendingReview: true,
		StatusApproved:      true,
	}
	for status, want := range expected {
		if got := status.ReportExpected(); got != want {
			t.Fatalf("%v: expected ReportExpected=%v, got %v", status, want, got)
		}
	}
}

func TestNewTaskID(t *testing.T) {
	a := NewTaskID()
	b := NewTaskID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty IDs")
	}
	if a == b {
		t.Fatal("expected distinct IDs")
	}
}

func TestTaskAttemptHelpers(t *testing.T) {
	now := time.Now().UTC()
	task := &Task{
		Id:     NewTaskID(),
		Status: StatusRunning,
		Attempts: []StageAttempt{
			{Stage: "ingest", Attempt: 1, StartedAt: now, FinishedAt: now, Outcome: OutcomeSuccess},
			{Stage: "process", Attempt: 1, StartedAt: now, FinishedAt: now, Outcome: OutcomeFailure, ErrorDetail: "transient"},
			{Stage: "process", Attempt: 2, StartedAt: now, FinishedAt: now, Outcome: OutcomeSuccess},
		},
	}

	if got := task.AttemptsFor("process"); got != 2 {
		t.Fatalf("expected 2 process attempts, got %d", got)
	}
	if got := task.AttemptsFor("index"); got != 0 {
		t.Fatalf("expected 0 index attempts, got %d", got)
	}
	if !task.Succeeded("process") {
		t.Fatal("expected process to have a success attempt")
	}
	if task.Succeeded("index") {
		t.Fatal("expected index to have no success attempt")
	}
}
