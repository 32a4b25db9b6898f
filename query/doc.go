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


// Package query provides read-only access to tasks and their reports.
//
// The Service type answers two questions: which tasks exist (optionally
// filtered by status), and what is the report of a given task. It never
// writes to the store, so it can be exposed to callers that must not be
// able to influence pipeline execution.
//
// A report is only handed out once its task reached a status where the
// report is authoritative. Asking for the report of a task that exists
// but has not produced one is a distinct condition (ErrReportNotReady)
// from asking about a task that does not exist (storage.ErrNotFound),
// so HTTP callers can tell 409 from 404.
package query
