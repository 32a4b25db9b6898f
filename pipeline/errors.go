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


package pipeline

import "errors"

// Graph construction errors. These are configuration errors: fatal at
// build time and never retried.
var (
	// ErrNoStages indicates a graph with no stage definitions.
	ErrNoStages = errors.New("pipeline has no stages")

	// ErrDuplicateStage indicates two stages sharing a name.
	ErrDuplicateStage = errors.New("duplicate stage name")

	// ErrUnknownDependency indicates a dependency on an undefined stage.
	ErrUnknownDependency = errors.New("dependency on unknown stage")

	// ErrCycle indicates that the dependency edges contain a cycle.
	ErrCycle = errors.New("dependency cycle")

	// ErrNilStageFunc indicates a stage without a collaborator function.
	ErrNilStageFunc = errors.New("stage function is nil")
)

// Executor errors.
var (
	// ErrTaskRepositoryRequired is returned when a task repository is not provided.
	ErrTaskRepositoryRequired = errors.New("task repository required")

	// ErrGraphRequired is returned when a graph is not provided.
	ErrGraphRequired = errors.New("graph required")

	// ErrTaskNotPending is returned when Run is asked to execute a task
	// that is not in status PENDING.
	ErrTaskNotPending = errors.New("task is not pending")

	// ErrStageUnreachable indicates the frontier went empty with stages
	// left over. A validated graph cannot produce this; the check exists
	// so a broken graph fails the task instead of spinning.
	ErrStageUnreachable = errors.New("stage unreachable")

	// ErrEmptyStageOutput indicates the terminal stage produced no output,
	// leaving nothing to store as the task's report.
	ErrEmptyStageOutput = errors.New("terminal stage produced empty output")
)
