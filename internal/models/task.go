package models

import "time"

// TaskStatus represents the lifecycle state of an asynchronous task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Task tracks a unit of asynchronous work through its lifecycle.
// Status moves pending -> running -> one of the terminal states;
// terminal states are absorbing.
type Task struct {
	ID          string                 `json:"id"`
	Status      TaskStatus             `json:"status"`
	CreatedAt   time.Time              `json:"created_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Progress    float64                `json:"progress"` // 0.0 to 1.0
	Message     string                 `json:"message,omitempty"`
	Result      interface{}            `json:"result,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Trace       string                 `json:"trace,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// NewTask creates a pending task with the given ID
func NewTask(id string) *Task {
	return &Task{
		ID:        id,
		Status:    TaskStatusPending,
		CreatedAt: time.Now(),
		Progress:  0,
	}
}

// MarkStarted transitions the task to running
func (t *Task) MarkStarted() {
	now := time.Now()
	t.Status = TaskStatusRunning
	t.StartedAt = &now
}

// MarkCompleted transitions the task to completed with its result
func (t *Task) MarkCompleted(result interface{}) {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.Progress = 1.0
	t.Result = result
}

// MarkFailed transitions the task to failed with the error details
func (t *Task) MarkFailed(errMsg, trace string) {
	now := time.Now()
	t.Status = TaskStatusFailed
	t.CompletedAt = &now
	t.Error = errMsg
	t.Trace = trace
}

// MarkCancelled transitions the task to cancelled
func (t *Task) MarkCancelled(reason string) {
	now := time.Now()
	t.Status = TaskStatusCancelled
	t.CompletedAt = &now
	if reason != "" {
		t.Error = reason
	}
}

// IsTerminal returns true when the task has finished in any way
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed || t.Status == TaskStatusCancelled
}

// IsActive returns true when the task is pending or running
func (t *Task) IsActive() bool {
	return t.Status == TaskStatusPending || t.Status == TaskStatusRunning
}

// Clone returns a snapshot copy safe to hand to callers
func (t *Task) Clone() *Task {
	clone := *t

	if t.StartedAt != nil {
		started := *t.StartedAt
		clone.StartedAt = &started
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		clone.CompletedAt = &completed
	}
	if len(t.Metadata) > 0 {
		clone.Metadata = make(map[string]interface{}, len(t.Metadata))
		for k, v := range t.Metadata {
			clone.Metadata[k] = v
		}
	}

	return &clone
}
