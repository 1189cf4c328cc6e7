package events

import (
	"log/slog"
	"sync"
	"time"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
)

// Notice is the outcome of a mutation, published for whichever
// presentation layer is listening. The core never renders these
// itself.
type Notice struct {
	Kind     Kind      `json:"kind"`
	Resource string    `json:"resource"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

type Handler func(Notice)

// Bus fans mutation outcomes out to subscribers. Publishing with no
// subscribers is a no-op, not an error.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{logger: logger}
}

func (b *Bus) Subscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers = append(b.handlers, handler)
	b.logger.Debug("notice handler registered", "total_handlers", len(b.handlers))
}

func (b *Bus) Publish(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no handlers for notice", "resource", n.Resource, "kind", n.Kind)
		return
	}

	for _, handler := range handlers {
		handler(n)
	}
}

func (b *Bus) Success(resource, message string) {
	b.Publish(Notice{Kind: KindSuccess, Resource: resource, Message: message})
}

func (b *Bus) Failure(resource, message string) {
	b.Publish(Notice{Kind: KindFailure, Resource: resource, Message: message})
}
