package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/models"
	"github.com/ternarybob/ostendo/internal/services/events"
	"github.com/ternarybob/ostendo/internal/services/tasks"
)

func newStreamServer(t *testing.T, handler *WebSocketHandler) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/generation/{id}/ws", handler.Stream)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dialStream(t *testing.T, server *httptest.Server, taskID string) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/generation/" + taskID + "/ws"
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestStream_UnknownTask(t *testing.T) {
	manager := tasks.NewManager(1, nil, arbor.NewLogger())
	manager.Start()
	t.Cleanup(manager.Stop)

	handler := NewWebSocketHandler(manager, nil, arbor.NewLogger())
	server := newStreamServer(t, handler)

	conn, resp, err := dialStream(t, server, "task_missing")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Nil(t, conn)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStream_FramesUntilTerminalThenClose(t *testing.T) {
	logger := arbor.NewLogger()
	eventSvc := events.NewService(logger)

	manager := tasks.NewManager(1, eventSvc, logger)
	manager.Start()
	t.Cleanup(manager.Stop)

	release := make(chan struct{})
	taskID, err := manager.Submit(context.Background(), func(ctx context.Context, taskID string, args map[string]interface{}) (interface{}, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "done", nil
	}, nil)
	require.NoError(t, err)

	handler := NewWebSocketHandler(manager, eventSvc, logger)
	// A long heartbeat interval forces frames to arrive through the
	// event wake path
	handler.interval = time.Minute

	server := newStreamServer(t, handler)

	conn, _, err := dialStream(t, server, taskID)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first statusFrame
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, taskID, first.TaskID)
	assert.False(t, first.Final)

	close(release)

	var last statusFrame
	for {
		var frame statusFrame
		require.NoError(t, conn.ReadJSON(&frame))
		last = frame
		if frame.Final {
			break
		}
	}

	assert.Equal(t, models.TaskStatusCompleted, last.Status)
	assert.InDelta(t, 1.0, last.Progress, 1e-9)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

// vanishingTaskService reports one running snapshot, then pretends the
// task was purged
type vanishingTaskService struct {
	calls atomic.Int32
}

func (s *vanishingTaskService) Start() {}
func (s *vanishingTaskService) Stop()  {}

func (s *vanishingTaskService) Submit(ctx context.Context, fn interfaces.TaskFunc, args map[string]interface{}, opts ...interfaces.SubmitOption) (string, error) {
	return "", nil
}

func (s *vanishingTaskService) GetStatus(taskID string) (*models.Task, bool) {
	if s.calls.Add(1) > 2 {
		return nil, false
	}
	task := models.NewTask(taskID)
	task.MarkStarted()
	return task, true
}

func (s *vanishingTaskService) UpdateProgress(taskID string, progress float64, message string) {}

func (s *vanishingTaskService) AddProgressListener(taskID string, listener interfaces.ProgressListener) {
}

func (s *vanishingTaskService) ListAll() []*models.Task    { return nil }
func (s *vanishingTaskService) ListActive() []*models.Task { return nil }

func (s *vanishingTaskService) Purge(maxAge time.Duration) int { return 0 }

func TestStream_PurgedTaskGetsCloseFrame(t *testing.T) {
	handler := NewWebSocketHandler(&vanishingTaskService{}, nil, arbor.NewLogger())
	handler.interval = 10 * time.Millisecond

	server := newStreamServer(t, handler)

	conn, _, err := dialStream(t, server, "task_gone")
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first statusFrame
	require.NoError(t, conn.ReadJSON(&first))
	assert.False(t, first.Final)

	_, _, err = conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, "task purged", closeErr.Text)
}
