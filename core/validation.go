// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// ValidateTask validates a Task according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//   - Status must be a defined TaskStatus
//   - Report must be non-empty exactly when Status.ReportExpected()
//   - every recorded StageAttempt must itself be valid
//
// NOT validated:
//   - Query and Parameters (opaque run input, owned by the caller)
//   - timestamps (populated by the repository)
func ValidateTask(task *Task) error {
	if task == nil {
		return fmt.Errorf("%w: task is nil", ErrInvalidTask)
	}

	if task.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTask, ErrEmptyTaskID)
	}

	if err := ValidateTaskStatus(task.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTask, err)
	}

	if (task.Report != "") != task.Status.ReportExpected() {
		return fmt.Errorf("%w: %w (status %s)", ErrInvalidTask, ErrReportMismatch, task.Status)
	}

	for i := range task.Attempts {
		if err := ValidateStageAttempt(&task.Attempts[i]); err != nil {
			return fmt.Errorf("%w: attempt %d: %w", ErrInvalidTask, i, err)
		}
	}

	return nil
}

// ValidateStageAttempt validates a StageAttempt according to domain rules.
//
// Validation rules:
//   - Stage must not be empty
//   - Attempt must be >= 1
//   - Outcome must be a defined StageOutcome
//   - ErrorDetail must be set exactly when Outcome is OutcomeFailure
func ValidateStageAttempt(attempt *StageAttempt) error {
	if attempt == nil {
		return fmt.Errorf("%w: attempt is nil", ErrInvalidStageAttempt)
	}

	if attempt.Stage == "" {
		return fmt.Errorf("%w: %w", ErrInvalidStageAttempt, ErrEmptyStageName)
	}

	if attempt.Attempt < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidStageAttempt, ErrAttemptNumber)
	}

	if err := ValidateStageOutcome(attempt.Outcome); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStageAttempt, err)
	}

	if (attempt.ErrorDetail != "") != (attempt.Outcome == OutcomeFailure) {
		return fmt.Errorf("%w: %w", ErrInvalidStageAttempt, ErrErrorDetailMismatch)
	}

	return nil
}

// ValidateTaskStatus validates that a TaskStatus has a defined value.
func ValidateTaskStatus(status TaskStatus) error {
	if _, ok := statusNames[status]; !ok {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, status)
	}
	return nil
}

// ValidateStageOutcome validates that a StageOutcome has a defined value.
func ValidateStageOutcome(outcome StageOutcome) error {
	if outcome != OutcomeSuccess && outcome != OutcomeFailure {
		return fmt.Errorf("%w: %d", ErrInvalidOutcome, outcome)
	}
	return nil
}
