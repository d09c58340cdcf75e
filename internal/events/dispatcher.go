package events

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueFull is returned by Publish when the dispatcher cannot accept more events.
var ErrQueueFull = errors.New("event queue full")

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// AsyncDispatcher queues published events on a bounded channel. Publish never
// blocks; Deliver runs the handlers and is called by the event worker.
type AsyncDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	queue     chan Event
}

// NewAsyncDispatcher creates a dispatcher with the given queue capacity.
func NewAsyncDispatcher(capacity int) *AsyncDispatcher {
	if capacity <= 0 {
		capacity = 256
	}
	return &AsyncDispatcher{
		listeners: make(map[EventType][]EventHandler),
		queue:     make(chan Event, capacity),
	}
}

// Publish enqueues the event, or returns ErrQueueFull.
func (d *AsyncDispatcher) Publish(_ context.Context, event Event) error {
	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe registers a handler for the given event type.
func (d *AsyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Queue exposes the receive side of the event queue.
func (d *AsyncDispatcher) Queue() <-chan Event {
	return d.queue
}

// Deliver invokes every handler registered for the event type. It keeps going
// when a handler fails and returns the joined errors.
func (d *AsyncDispatcher) Deliver(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
