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

import "errors"

// Domain validation errors
var (
	// ErrInvalidTask indicates a Task failed validation.
	ErrInvalidTask = errors.New("invalid task")

	// ErrInvalidStageAttempt indicates a StageAttempt failed validation.
	ErrInvalidStageAttempt = errors.New("invalid stage attempt")

	// ErrInvalidStatus indicates an undefined TaskStatus value or name.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidOutcome indicates an undefined StageOutcome value.
	ErrInvalidOutcome = errors.New("invalid stage outcome")

	// ErrEmptyTaskID indicates the task Id field is empty.
	ErrEmptyTaskID = errors.New("task id cannot be empty")

	// ErrEmptyStageName indicates the attempt Stage field is empty.
	ErrEmptyStageName = errors.New("stage name cannot be empty")

	// ErrAttemptNumber indicates a non-positive attempt counter.
	ErrAttemptNumber = errors.New("attempt number must be >= 1")

	// ErrReportMismatch indicates that Report and Status disagree:
	// the report must be non-empty exactly when the status expects one.
	ErrReportMismatch = errors.New("report presence does not match status")

	// ErrErrorDetailMismatch indicates that ErrorDetail is set on a
	// successful attempt or missing on a failed one.
	ErrErrorDetailMismatch = errors.New("error detail presence does not match outcome")
)
