package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/models"
)

// statusFrame is one progress update pushed over the socket
type statusFrame struct {
	TaskID   string            `json:"task_id"`
	Status   models.TaskStatus `json:"status"`
	Progress float64           `json:"progress"`
	Message  string            `json:"message"`
	Error    string            `json:"error,omitempty"`
	Final    bool              `json:"final"`
}

// WebSocketHandler streams task progress to clients
type WebSocketHandler struct {
	tasks    interfaces.TaskService
	events   interfaces.EventService
	upgrader websocket.Upgrader
	interval time.Duration
	logger   arbor.ILogger
}

// NewWebSocketHandler creates a websocket progress handler. events may
// be nil; the stream then falls back to interval polling only.
func NewWebSocketHandler(tasks interfaces.TaskService, events interfaces.EventService, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		tasks:  tasks,
		events: events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		interval: time.Second,
		logger:   logger,
	}
}

// Stream handles GET /api/generation/{id}/ws. It pushes one status
// frame per update until the task reaches a terminal state, then sends
// a final frame and closes. Progress and status-change events wake the
// stream immediately; the ticker is the fallback heartbeat.
func (h *WebSocketHandler) Stream(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")

	if _, ok := h.tasks.GetStatus(taskID); !ok {
		writeError(w, http.StatusNotFound, interfaces.ErrTaskNotFound.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("task_id", taskID).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	h.logger.Debug().Str("task_id", taskID).Msg("WebSocket progress stream opened")

	wake, unsubscribe := h.subscribeWake(taskID)
	defer unsubscribe()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		task, ok := h.tasks.GetStatus(taskID)
		if !ok {
			// Task was purged mid-stream; tell the client instead of
			// dropping the connection
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "task purged"))
			return
		}

		frame := statusFrame{
			TaskID:   task.ID,
			Status:   task.Status,
			Progress: task.Progress,
			Message:  task.Message,
			Error:    task.Error,
			Final:    task.IsTerminal(),
		}

		if err := conn.WriteJSON(frame); err != nil {
			h.logger.Debug().Err(err).Str("task_id", taskID).Msg("WebSocket write failed, closing stream")
			return
		}

		if frame.Final {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(task.Status)))
			return
		}

		select {
		case <-ticker.C:
		case <-wake:
		case <-r.Context().Done():
			return
		}
	}
}

// subscribeWake registers event handlers that nudge the stream loop
// whenever this task publishes progress or changes status. The
// returned func removes the subscriptions and must be called when the
// stream ends.
func (h *WebSocketHandler) subscribeWake(taskID string) (<-chan struct{}, func()) {
	wake := make(chan struct{}, 1)
	if h.events == nil {
		return wake, func() {}
	}

	handler := func(ctx context.Context, event interfaces.Event) error {
		if id, _ := event.Payload["task_id"].(string); id != taskID {
			return nil
		}
		select {
		case wake <- struct{}{}:
		default:
		}
		return nil
	}

	type registration struct {
		eventType interfaces.EventType
		sub       interfaces.Subscription
	}

	var registrations []registration
	for _, eventType := range []interfaces.EventType{
		interfaces.EventTaskStatusChange,
		interfaces.EventGenerationProgress,
	} {
		if sub, err := h.events.Subscribe(eventType, handler); err == nil {
			registrations = append(registrations, registration{eventType, sub})
		}
	}

	return wake, func() {
		for _, reg := range registrations {
			h.events.Unsubscribe(reg.eventType, reg.sub)
		}
	}
}
