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


package review

import "errors"

var (
	// ErrTaskRepositoryRequired is returned when no task repository is provided
	ErrTaskRepositoryRequired = errors.New("task repository is required")

	// ErrNotReviewable is returned when the task's status does not admit
	// the requested verdict
	ErrNotReviewable = errors.New("task is not reviewable")

	// ErrUnknownAction is returned for a review action that is not
	// approve, request_changes, or reject
	ErrUnknownAction = errors.New("unknown review action")
)
