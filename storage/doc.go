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


// Package storage provides the storage abstraction layer for researchd.
//
// This package defines the task repository interface that decouples storage
// implementation from the orchestration core. It allows different storage
// backends (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// Backend constructors return concrete types, but every consumer in this
// module accepts the TaskRepository interface:
//
//	repo := badger.NewTaskRepository(backend) // satisfies storage.TaskRepository
//
// # Ownership
//
// The task repository exclusively owns Task and StageAttempt records. The
// pipeline executor and the query service only ever touch tasks through it.
// Stage attempts are append-only; tasks are never deleted by the core.
//
// # Consistency
//
// All mutating operations on the same task are linearizable: concurrent
// stage completions for one task cannot lose updates. Every mutation
// re-validates the task invariants before commit, in particular that the
// report is non-empty exactly when the status expects one.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
