package tasks

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/models"
)

const shutdownCancelReason = "Task cancelled due to shutdown"

// Manager schedules asynchronous tasks with a bounded worker pool.
// Admission is controlled by a buffered-channel semaphore; at most
// maxWorkers tasks run concurrently while the rest wait in pending.
type Manager struct {
	maxWorkers int
	logger     arbor.ILogger
	events     interfaces.EventService

	mu        sync.RWMutex
	accepting bool
	tasks     map[string]*models.Task
	cancels   map[string]context.CancelFunc
	listeners map[string][]interfaces.ProgressListener

	sem chan struct{}
	wg  sync.WaitGroup
}

// Compile-time interface assertion
var _ interfaces.TaskService = (*Manager)(nil)

// NewManager creates a task manager. events may be nil when status
// change notifications are not needed.
func NewManager(maxWorkers int, events interfaces.EventService, logger arbor.ILogger) *Manager {
	if maxWorkers <= 0 {
		maxWorkers = 5
	}

	return &Manager{
		maxWorkers: maxWorkers,
		logger:     logger,
		events:     events,
		tasks:      make(map[string]*models.Task),
		cancels:    make(map[string]context.CancelFunc),
		listeners:  make(map[string][]interfaces.ProgressListener),
		sem:        make(chan struct{}, maxWorkers),
	}
}

// Start makes the manager accept submissions. Idempotent.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.accepting {
		return
	}
	m.accepting = true

	m.logger.Info().Int("max_workers", m.maxWorkers).Msg("Task manager started")
}

// Stop stops accepting submissions, cancels every in-flight task, and
// waits for all executors to finish. Idempotent.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.accepting {
		m.mu.Unlock()
		return
	}
	m.accepting = false

	cancelled := 0
	for id, cancel := range m.cancels {
		m.logger.Debug().Str("task_id", id).Msg("Cancelling task for shutdown")
		cancel()
		cancelled++
	}
	m.mu.Unlock()

	m.wg.Wait()

	m.logger.Info().Int("cancelled", cancelled).Msg("Task manager stopped")
}

// Submit registers a task and schedules it without blocking the caller
func (m *Manager) Submit(ctx context.Context, fn interfaces.TaskFunc, args map[string]interface{}, opts ...interfaces.SubmitOption) (string, error) {
	options := &interfaces.SubmitOptions{}
	for _, opt := range opts {
		opt(options)
	}

	taskID := options.TaskID
	if taskID == "" {
		taskID = common.NewTaskID()
	}

	m.mu.Lock()
	if !m.accepting {
		m.mu.Unlock()
		return "", interfaces.ErrNotAccepting
	}

	task := models.NewTask(taskID)
	task.Metadata = options.Metadata
	m.tasks[taskID] = task

	taskCtx, cancel := context.WithCancel(context.Background())
	m.cancels[taskID] = cancel

	m.wg.Add(1)
	m.mu.Unlock()

	m.logger.Debug().Str("task_id", taskID).Msg("Task submitted")

	go m.execute(taskCtx, taskID, fn, args)

	return taskID, nil
}

// execute runs one task through its lifecycle. It holds a semaphore
// slot for the duration of the body.
func (m *Manager) execute(ctx context.Context, taskID string, fn interfaces.TaskFunc, args map[string]interface{}) {
	defer m.wg.Done()

	defer func() {
		m.mu.Lock()
		delete(m.cancels, taskID)
		delete(m.listeners, taskID)
		m.mu.Unlock()
	}()

	// Wait for a worker slot; shutdown can cancel a still-pending task
	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		m.finishCancelled(taskID)
		return
	}
	defer func() { <-m.sem }()

	m.mu.Lock()
	task, ok := m.tasks[taskID]
	if !ok {
		m.mu.Unlock()
		return
	}
	task.MarkStarted()
	m.mu.Unlock()

	m.publishStatusChange(taskID, models.TaskStatusRunning)
	m.logger.Debug().Str("task_id", taskID).Msg("Task started")

	result, err := m.runBody(ctx, taskID, fn, args)

	switch {
	case err == nil:
		m.mu.Lock()
		if task, ok := m.tasks[taskID]; ok {
			task.MarkCompleted(result)
		}
		m.mu.Unlock()
		m.publishStatusChange(taskID, models.TaskStatusCompleted)
		m.logger.Debug().Str("task_id", taskID).Msg("Task completed")

	case errors.Is(err, context.Canceled):
		m.finishCancelled(taskID)

	default:
		m.mu.Lock()
		if task, ok := m.tasks[taskID]; ok {
			task.MarkFailed(err.Error(), string(debug.Stack()))
		}
		m.mu.Unlock()
		m.publishStatusChange(taskID, models.TaskStatusFailed)
		m.logger.Warn().Err(err).Str("task_id", taskID).Msg("Task failed")
	}
}

// runBody executes the task function, converting panics into errors so
// one bad task cannot take down the pool
func (m *Manager) runBody(ctx context.Context, taskID string, fn interfaces.TaskFunc, args map[string]interface{}) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: string(debug.Stack())}
		}
	}()

	return fn(ctx, taskID, args)
}

func (m *Manager) finishCancelled(taskID string) {
	m.mu.Lock()
	if task, ok := m.tasks[taskID]; ok && !task.IsTerminal() {
		task.MarkCancelled(shutdownCancelReason)
	}
	m.mu.Unlock()

	m.publishStatusChange(taskID, models.TaskStatusCancelled)
	m.logger.Debug().Str("task_id", taskID).Msg("Task cancelled")
}

// GetStatus returns a snapshot of the task, or ok=false when unknown
func (m *Manager) GetStatus(taskID string) (*models.Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	task, ok := m.tasks[taskID]
	if !ok {
		return nil, false
	}
	return task.Clone(), true
}

// UpdateProgress records clamped progress and notifies listeners.
// Unknown task IDs log a warning and no-op.
func (m *Manager) UpdateProgress(taskID string, progress float64, message string) {
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}

	m.mu.Lock()
	task, ok := m.tasks[taskID]
	if !ok {
		m.mu.Unlock()
		m.logger.Warn().Str("task_id", taskID).Msg("Progress update for unknown task")
		return
	}
	task.Progress = progress
	if message != "" {
		task.Message = message
	}
	listeners := append([]interfaces.ProgressListener(nil), m.listeners[taskID]...)
	m.mu.Unlock()

	for _, listener := range listeners {
		m.notify(listener, taskID, progress, message)
	}
}

// notify calls one listener, isolating panics so a broken listener
// cannot affect the task or other listeners
func (m *Manager) notify(listener interfaces.ProgressListener, taskID string, progress float64, message string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn().Str("task_id", taskID).Msgf("Progress listener panicked: %v", r)
		}
	}()

	listener(taskID, progress, message)
}

// AddProgressListener registers a listener for one task's updates.
// Listeners are dropped when the task finishes.
func (m *Manager) AddProgressListener(taskID string, listener interfaces.ProgressListener) {
	if listener == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.listeners[taskID] = append(m.listeners[taskID], listener)
}

// ListAll returns snapshots of every known task
func (m *Manager) ListAll() []*models.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		out = append(out, task.Clone())
	}
	return out
}

// ListActive returns snapshots of pending and running tasks
func (m *Manager) ListActive() []*models.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Task, 0)
	for _, task := range m.tasks {
		if task.IsActive() {
			out = append(out, task.Clone())
		}
	}
	return out
}

// Purge removes terminal tasks whose completion age exceeds maxAge
func (m *Manager) Purge(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, task := range m.tasks {
		if task.IsTerminal() && task.CompletedAt != nil && task.CompletedAt.Before(cutoff) {
			delete(m.tasks, id)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Debug().Int("removed", removed).Msg("Purged old tasks")
	}

	return removed
}

func (m *Manager) publishStatusChange(taskID string, status models.TaskStatus) {
	if m.events == nil {
		return
	}

	m.events.Publish(context.Background(), interfaces.Event{
		Type: interfaces.EventTaskStatusChange,
		Payload: map[string]interface{}{
			"task_id": taskID,
			"status":  string(status),
		},
	})
}

// panicError wraps a recovered panic as an error with its stack
type panicError struct {
	value interface{}
	stack string
}

func (e *panicError) Error() string {
	return "task panicked: " + stringify(e.value)
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case error:
		return val.Error()
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
