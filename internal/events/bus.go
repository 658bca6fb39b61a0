// Package events provides a small synchronous event bus for post-review
// notifications. Handler failures are isolated and logged: a broken
// subscriber never fails the grading operation that published the event.
package events

import (
	"log"
	"sync"

	"github.com/example/studybot/pkg/models"
)

// Handler consumes a scheduled-card event.
type Handler interface {
	HandleCardScheduled(event models.CardScheduledEvent) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(event models.CardScheduledEvent) error

// HandleCardScheduled calls f.
func (f HandlerFunc) HandleCardScheduled(event models.CardScheduledEvent) error {
	return f(event)
}

// Bus dispatches events to subscribed handlers in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for scheduled-card events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers the event to every subscriber. Errors and panics are
// logged per handler and swallowed; delivery continues with the next one.
func (b *Bus) Publish(event models.CardScheduledEvent) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(h, event)
	}
}

func (b *Bus) deliver(h Handler, event models.CardScheduledEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("events: handler panic for card %d: %v", event.CardID, r)
		}
	}()
	if err := h.HandleCardScheduled(event); err != nil {
		log.Printf("events: handler error for card %d: %v", event.CardID, err)
	}
}
