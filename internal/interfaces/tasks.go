package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/ostendo/internal/models"
)

// TaskFunc is the body of an asynchronous task. It receives the task's
// cancellation context, the assigned task ID, and the submission arguments.
type TaskFunc func(ctx context.Context, taskID string, args map[string]interface{}) (interface{}, error)

// ProgressListener observes progress updates for a single task
type ProgressListener func(taskID string, progress float64, message string)

// TaskService schedules and tracks asynchronous tasks
type TaskService interface {
	// Start makes the service accept submissions. Idempotent.
	Start()

	// Stop stops accepting submissions, cancels in-flight tasks, and
	// waits for all executors to finish. Idempotent.
	Stop()

	// Submit registers a task and schedules it without blocking the
	// caller. Returns ErrNotAccepting when the service is stopped.
	Submit(ctx context.Context, fn TaskFunc, args map[string]interface{}, opts ...SubmitOption) (string, error)

	// GetStatus returns a snapshot of the task, or ok=false when unknown
	GetStatus(taskID string) (*models.Task, bool)

	// UpdateProgress records clamped progress and notifies listeners.
	// Unknown task IDs are ignored.
	UpdateProgress(taskID string, progress float64, message string)

	// AddProgressListener registers a listener for one task's updates
	AddProgressListener(taskID string, listener ProgressListener)

	// ListAll returns snapshots of every known task
	ListAll() []*models.Task

	// ListActive returns snapshots of pending and running tasks
	ListActive() []*models.Task

	// Purge removes terminal tasks whose completion age exceeds maxAge,
	// returning the number removed
	Purge(maxAge time.Duration) int
}

// SubmitOption customizes a task submission
type SubmitOption func(*SubmitOptions)

// SubmitOptions holds resolved submission options
type SubmitOptions struct {
	TaskID   string
	Metadata map[string]interface{}
}

// WithTaskID pins the submission to a caller-chosen task ID
func WithTaskID(id string) SubmitOption {
	return func(o *SubmitOptions) {
		o.TaskID = id
	}
}

// WithMetadata attaches descriptive metadata to the task record
func WithMetadata(metadata map[string]interface{}) SubmitOption {
	return func(o *SubmitOptions) {
		o.Metadata = metadata
	}
}
