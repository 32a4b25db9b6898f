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


package storage

import (
	"github.com/poiesic/researchd/core"
)

// MarshalTaskID serializes a TaskID to bytes.
func MarshalTaskID(id core.TaskID) []byte {
	buf := make([]byte, core.TaskIDMUS.Size(id))
	core.TaskIDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalTaskID deserializes a TaskID from bytes.
func UnmarshalTaskID(data []byte) (core.TaskID, error) {
	id, _, err := core.TaskIDMUS.Unmarshal(data)
	return id, err
}

// MarshalTask serializes a Task to bytes.
func MarshalTask(task *core.Task) []byte {
	buf := make([]byte, core.TaskMUS.Size(*task))
	core.TaskMUS.Marshal(*task, buf)
	return buf
}

// UnmarshalTask deserializes a Task from bytes.
func UnmarshalTask(data []byte) (*core.Task, error) {
	task, _, err := core.TaskMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// MarshalStageAttempt serializes a StageAttempt to bytes.
func MarshalStageAttempt(attempt *core.StageAttempt) []byte {
	buf := make([]byte, core.StageAttemptMUS.Size(*attempt))
	core.StageAttemptMUS.Marshal(*attempt, buf)
	return buf
}

// UnmarshalStageAttempt deserializes a StageAttempt from bytes.
func UnmarshalStageAttempt(data []byte) (*core.StageAttempt, error) {
	attempt, _, err := core.StageAttemptMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}
