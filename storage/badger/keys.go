package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/researchd/core"
)

// Key prefixes for different data types
const (
	taskRecordPrefix  = "tskrec"
	taskCreatedPrefix = "tskcrt"
	taskStatusPrefix  = "tsksta"
)

// makeTaskKey generates a key for a task record by ID.
func makeTaskKey(id core.TaskID) []byte {
	return []byte(fmt.Sprintf("%s:%s", taskRecordPrefix, id))
}

// makeTaskCreatedKey generates a composite key for the creation-time index.
// Format: prefix:timestamp:id
func makeTaskCreatedKey(createdAt time.Time, id core.TaskID) []byte {
	prefix := taskCreatedPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 + len(id) // 8 bytes for timestamp + id string
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], []byte(id))
	return buf
}

// makeTaskStatusKey generates a composite key for the status index.
// Format: prefix:status:timestamp:id
func makeTaskStatusKey(status core.TaskStatus, createdAt time.Time, id core.TaskID) []byte {
	prefix := makePartialTaskStatusKey(status)
	totalSize := len(prefix) + 8 + len(id)
	buf := make([]byte, totalSize)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], []byte(id))
	return buf
}

// makePartialTaskStatusKey generates a partial key for status index scans.
// Format: prefix:status:
func makePartialTaskStatusKey(status core.TaskStatus) []byte {
	return []byte(fmt.Sprintf("%s:%d:", taskStatusPrefix, status))
}
