package common

import (
	"github.com/google/uuid"
)

// NewTaskID generates a unique task ID with the "task_" prefix
// Format: task_<uuid>
func NewTaskID() string {
	return "task_" + uuid.New().String()
}

// NewGenerationID generates a unique generation ID with the "gen_" prefix
// Format: gen_<uuid>
func NewGenerationID() string {
	return "gen_" + uuid.New().String()
}
