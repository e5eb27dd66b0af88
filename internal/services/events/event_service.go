package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/interfaces"
)

// Service implements EventService interface with pub/sub pattern
type Service struct {
	subscribers map[interfaces.EventType]map[interfaces.Subscription]interfaces.EventHandler
	next        interfaces.Subscription
	mu          sync.RWMutex
	logger      arbor.ILogger
}

// NewService creates a new event service
func NewService(logger arbor.ILogger) interfaces.EventService {
	return &Service{
		subscribers: make(map[interfaces.EventType]map[interfaces.Subscription]interfaces.EventHandler),
		logger:      logger,
	}
}

// Subscribe registers a handler for an event type. The returned
// subscription removes the handler when passed to Unsubscribe.
func (s *Service) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) (interfaces.Subscription, error) {
	if handler == nil {
		return 0, fmt.Errorf("handler cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	sub := s.next

	if s.subscribers[eventType] == nil {
		s.subscribers[eventType] = make(map[interfaces.Subscription]interfaces.EventHandler)
	}
	s.subscribers[eventType][sub] = handler

	s.logger.Debug().
		Str("event_type", string(eventType)).
		Int("subscriber_count", len(s.subscribers[eventType])).
		Msg("Event handler subscribed")

	return sub, nil
}

// Unsubscribe removes a handler from an event type. Unknown
// subscriptions are a no-op.
func (s *Service) Unsubscribe(eventType interfaces.EventType, sub interfaces.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if handlers, ok := s.subscribers[eventType]; ok {
		delete(handlers, sub)
		s.logger.Debug().
			Str("event_type", string(eventType)).
			Int("subscriber_count", len(handlers)).
			Msg("Event handler unsubscribed")
	}
}

// Publish sends an event to all subscribers asynchronously
func (s *Service) Publish(ctx context.Context, event interfaces.Event) error {
	handlers := s.snapshot(event.Type)
	if len(handlers) == 0 {
		return nil
	}

	s.logger.Debug().
		Str("event_type", string(event.Type)).
		Int("subscriber_count", len(handlers)).
		Msg("Publishing event")

	for _, handler := range handlers {
		go func(h interfaces.EventHandler) {
			if err := h(ctx, event); err != nil {
				s.logger.Error().
					Err(err).
					Str("event_type", string(event.Type)).
					Msg("Event handler failed")
			}
		}(handler)
	}

	return nil
}

// PublishSync sends an event to all subscribers synchronously
func (s *Service) PublishSync(ctx context.Context, event interfaces.Event) error {
	handlers := s.snapshot(event.Type)
	if len(handlers) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(handlers))

	for _, handler := range handlers {
		wg.Add(1)
		go func(h interfaces.EventHandler) {
			defer wg.Done()
			if err := h(ctx, event); err != nil {
				s.logger.Error().
					Err(err).
					Str("event_type", string(event.Type)).
					Msg("Event handler failed")
				errChan <- err
			}
		}(handler)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("event handlers failed: %d errors", len(errs))
	}

	return nil
}

// snapshot copies the handler set so delivery runs outside the lock
func (s *Service) snapshot(eventType interfaces.EventType) []interfaces.EventHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()

	handlers := make([]interfaces.EventHandler, 0, len(s.subscribers[eventType]))
	for _, handler := range s.subscribers[eventType] {
		handlers = append(handlers, handler)
	}
	return handlers
}

// Close shuts down the event service
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers = make(map[interfaces.EventType]map[interfaces.Subscription]interfaces.EventHandler)
	s.logger.Info().Msg("Event service closed")

	return nil
}
