package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/models"
)

func newTestManager(t *testing.T, maxWorkers int) *Manager {
	t.Helper()
	m := NewManager(maxWorkers, nil, arbor.NewLogger())
	m.Start()
	t.Cleanup(m.Stop)
	return m
}

// waitForStatus polls until the task reaches the wanted status or the
// deadline passes
func waitForStatus(t *testing.T, m *Manager, taskID string, want models.TaskStatus) *models.Task {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if task, ok := m.GetStatus(taskID); ok && task.Status == want {
			return task
		}
		time.Sleep(5 * time.Millisecond)
	}

	task, _ := m.GetStatus(taskID)
	t.Fatalf("task %s never reached status %s (last seen: %+v)", taskID, want, task)
	return nil
}

func TestManager_CompletedTask(t *testing.T) {
	m := newTestManager(t, 2)

	taskID, err := m.Submit(context.Background(), func(ctx context.Context, taskID string, args map[string]interface{}) (interface{}, error) {
		return "done", nil
	}, nil)
	require.NoError(t, err)

	task := waitForStatus(t, m, taskID, models.TaskStatusCompleted)
	assert.Equal(t, "done", task.Result)
	assert.Empty(t, task.Error)
	require.NotNil(t, task.CompletedAt)
}

func TestManager_FailedTask(t *testing.T) {
	m := newTestManager(t, 2)

	taskID, err := m.Submit(context.Background(), func(ctx context.Context, taskID string, args map[string]interface{}) (interface{}, error) {
		return nil, errors.New("something broke")
	}, nil)
	require.NoError(t, err)

	task := waitForStatus(t, m, taskID, models.TaskStatusFailed)
	assert.Equal(t, "something broke", task.Error)
	assert.NotEmpty(t, task.Trace)
}

func TestManager_PanickingTaskFails(t *testing.T) {
	m := newTestManager(t, 2)

	taskID, err := m.Submit(context.Background(), func(ctx context.Context, taskID string, args map[string]interface{}) (interface{}, error) {
		panic("boom")
	}, nil)
	require.NoError(t, err)

	task := waitForStatus(t, m, taskID, models.TaskStatusFailed)
	assert.Contains(t, task.Error, "boom")
}

func TestManager_PanicWithNonStringValue(t *testing.T) {
	m := newTestManager(t, 2)

	taskID, err := m.Submit(context.Background(), func(ctx context.Context, taskID string, args map[string]interface{}) (interface{}, error) {
		panic(42)
	}, nil)
	require.NoError(t, err)

	task := waitForStatus(t, m, taskID, models.TaskStatusFailed)
	assert.Contains(t, task.Error, "42")
}

func TestManager_SubmitAfterStop(t *testing.T) {
	m := NewManager(2, nil, arbor.NewLogger())
	m.Start()
	m.Stop()

	_, err := m.Submit(context.Background(), func(ctx context.Context, taskID string, args map[string]interface{}) (interface{}, error) {
		return nil, nil
	}, nil)
	assert.ErrorIs(t, err, interfaces.ErrNotAccepting)
}

func TestManager_StopCancelsRunningTasks(t *testing.T) {
	m := NewManager(2, nil, arbor.NewLogger())
	m.Start()

	started := make(chan struct{})

	taskID, err := m.Submit(context.Background(), func(ctx context.Context, taskID string, args map[string]interface{}) (interface{}, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}, nil)
	require.NoError(t, err)

	<-started
	m.Stop()

	task, ok := m.GetStatus(taskID)
	require.True(t, ok)
	assert.Equal(t, models.TaskStatusCancelled, task.Status)
	assert.Equal(t, "Task cancelled due to shutdown", task.Error)
}

func TestManager_ConcurrencyCeiling(t *testing.T) {
	const maxWorkers = 3
	m := newTestManager(t, maxWorkers)

	var running, peak int64
	release := make(chan struct{})
	var done sync.WaitGroup

	for i := 0; i < 10; i++ {
		done.Add(1)
		_, err := m.Submit(context.Background(), func(ctx context.Context, taskID string, args map[string]interface{}) (interface{}, error) {
			defer done.Done()

			n := atomic.AddInt64(&running, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}

			select {
			case <-release:
			case <-ctx.Done():
			}

			atomic.AddInt64(&running, -1)
			return nil, nil
		}, nil)
		require.NoError(t, err)
	}

	// Let the pool saturate before releasing
	time.Sleep(100 * time.Millisecond)
	close(release)
	done.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(maxWorkers))
}

func TestManager_ProgressClampAndListeners(t *testing.T) {
	m := newTestManager(t, 1)

	started := make(chan struct{})
	release := make(chan struct{})

	taskID, err := m.Submit(context.Background(), func(ctx context.Context, taskID string, args map[string]interface{}) (interface{}, error) {
		close(started)
		<-release
		return nil, nil
	}, nil)
	require.NoError(t, err)
	<-started

	var mu sync.Mutex
	var seen []float64
	m.AddProgressListener(taskID, func(id string, progress float64, message string) {
		mu.Lock()
		seen = append(seen, progress)
		mu.Unlock()
	})

	// A panicking listener must not break delivery to others
	m.AddProgressListener(taskID, func(id string, progress float64, message string) {
		panic("bad listener")
	})

	m.UpdateProgress(taskID, -0.5, "below range")
	m.UpdateProgress(taskID, 0.5, "half way")
	m.UpdateProgress(taskID, 1.5, "above range")

	task, ok := m.GetStatus(taskID)
	require.True(t, ok)
	assert.Equal(t, 1.0, task.Progress)
	assert.Equal(t, "above range", task.Message)

	mu.Lock()
	assert.Equal(t, []float64{0, 0.5, 1}, seen)
	mu.Unlock()

	close(release)
	waitForStatus(t, m, taskID, models.TaskStatusCompleted)
}

func TestManager_UpdateProgressUnknownTask(t *testing.T) {
	m := newTestManager(t, 1)

	// Must not panic or create a task record
	m.UpdateProgress("task_unknown", 0.5, "nothing here")

	_, ok := m.GetStatus("task_unknown")
	assert.False(t, ok)
}

func TestManager_ListActive(t *testing.T) {
	m := newTestManager(t, 2)

	release := make(chan struct{})
	started := make(chan struct{})

	activeID, err := m.Submit(context.Background(), func(ctx context.Context, taskID string, args map[string]interface{}) (interface{}, error) {
		close(started)
		<-release
		return nil, nil
	}, nil)
	require.NoError(t, err)
	<-started

	doneID, err := m.Submit(context.Background(), func(ctx context.Context, taskID string, args map[string]interface{}) (interface{}, error) {
		return nil, nil
	}, nil)
	require.NoError(t, err)
	waitForStatus(t, m, doneID, models.TaskStatusCompleted)

	active := m.ListActive()
	require.Len(t, active, 1)
	assert.Equal(t, activeID, active[0].ID)

	assert.Len(t, m.ListAll(), 2)

	close(release)
	waitForStatus(t, m, activeID, models.TaskStatusCompleted)
}

func TestManager_Purge(t *testing.T) {
	m := newTestManager(t, 2)

	oldID, err := m.Submit(context.Background(), func(ctx context.Context, taskID string, args map[string]interface{}) (interface{}, error) {
		return nil, nil
	}, nil)
	require.NoError(t, err)
	waitForStatus(t, m, oldID, models.TaskStatusCompleted)

	// Backdate the completion so it falls outside the retention window
	m.mu.Lock()
	past := time.Now().Add(-2 * time.Hour)
	m.tasks[oldID].CompletedAt = &past
	m.mu.Unlock()

	freshID, err := m.Submit(context.Background(), func(ctx context.Context, taskID string, args map[string]interface{}) (interface{}, error) {
		return nil, nil
	}, nil)
	require.NoError(t, err)
	waitForStatus(t, m, freshID, models.TaskStatusCompleted)

	removed := m.Purge(time.Hour)
	assert.Equal(t, 1, removed)

	_, ok := m.GetStatus(oldID)
	assert.False(t, ok)
	_, ok = m.GetStatus(freshID)
	assert.True(t, ok)
}

func TestManager_TaskIDOption(t *testing.T) {
	m := newTestManager(t, 1)

	taskID, err := m.Submit(context.Background(), func(ctx context.Context, taskID string, args map[string]interface{}) (interface{}, error) {
		return nil, nil
	}, nil, interfaces.WithTaskID("task_pinned"), interfaces.WithMetadata(map[string]interface{}{"kind": "test"}))
	require.NoError(t, err)
	assert.Equal(t, "task_pinned", taskID)

	task := waitForStatus(t, m, taskID, models.TaskStatusCompleted)
	assert.Equal(t, "test", task.Metadata["kind"])
}
