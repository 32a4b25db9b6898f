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


// Package review implements the human reviewer's verdicts on finished
// reports.
//
// A reviewer can approve a report, send it back for changes, or reject
// it outright. These transitions belong to an external actor and go
// straight to the task store; the pipeline executor never moves a task
// past COMPLETED on its own.
package review
