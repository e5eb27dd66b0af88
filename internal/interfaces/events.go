package interfaces

import "context"

// EventType identifies the kind of event being published
type EventType string

const (
	// EventGenerationProgress is published on each pipeline progress checkpoint
	EventGenerationProgress EventType = "generation_progress"
	// EventTaskStatusChange is published when a task reaches a new status
	EventTaskStatusChange EventType = "task_status_change"
)

// Event is a message published through the event service
type Event struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// EventHandler processes a published event
type EventHandler func(ctx context.Context, event Event) error

// Subscription identifies a registered handler so it can be removed
type Subscription int

// EventService provides in-process pub/sub
type EventService interface {
	Subscribe(eventType EventType, handler EventHandler) (Subscription, error)
	Unsubscribe(eventType EventType, sub Subscription)
	Publish(ctx context.Context, event Event) error
	PublishSync(ctx context.Context, event Event) error
	Close() error
}
