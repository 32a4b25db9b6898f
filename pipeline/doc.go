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


// Package pipeline implements the dependency-ordered, retry-aware stage
// executor at the center of researchd.
//
// A pipeline is declared as a set of StageDefinitions with explicit
// dependency edges and built into an immutable, validated Graph. The
// Executor walks the graph frontier by frontier: stages whose dependencies
// all have a recorded success run next, independent stages run concurrently
// on a worker pool, and every attempt, success or failure, is appended to
// the task's history before the walk continues.
//
// Stage failures are retried according to a per-stage RetryPolicy. A stage
// that declares itself non-idempotent is only retried when it marked the
// failure retryable via RetryableErr; anything else gives up immediately so
// external side effects are never duplicated.
//
// Stage failures never surface as process errors: exhausting a retry policy
// marks the task FAILED in the store, and Run returns normally. Errors
// returned by Run indicate configuration or storage problems, not stage
// outcomes.
package pipeline
