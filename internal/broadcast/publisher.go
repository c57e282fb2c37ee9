// Package broadcast propagates conversation-changed signals between client
// instances of the same user without double-counting self-originated events.
package broadcast

import (
	"errors"
	"sync"

	"github.com/ismaelvargas20/motochat/internal/models"
)

// Handler is a callback invoked for each delivered signal.
type Handler func(models.Signal)

// Publisher errors.
var (
	ErrInvalidSubscriptionID = errors.New("subscription id is required")
	ErrNilHandler            = errors.New("handler cannot be nil")
	ErrSubscriptionExists    = errors.New("subscription with this id already exists")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
)

// publisher is the in-process fan-out used for both the same-instance event
// and the cross-instance deliveries.
type publisher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func newPublisher() *publisher {
	return &publisher{handlers: make(map[string]Handler)}
}

func (p *publisher) subscribe(id string, handler Handler) error {
	if id == "" {
		return ErrInvalidSubscriptionID
	}
	if handler == nil {
		return ErrNilHandler
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.handlers[id]; exists {
		return ErrSubscriptionExists
	}
	p.handlers[id] = handler
	return nil
}

func (p *publisher) unsubscribe(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.handlers[id]; !exists {
		return ErrSubscriptionNotFound
	}
	delete(p.handlers, id)
	return nil
}

// publish invokes handlers outside the lock to avoid deadlocks when a handler
// re-enters the publisher.
func (p *publisher) publish(sig models.Signal) {
	p.mu.RLock()
	handlers := make([]Handler, 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.mu.RUnlock()

	for _, h := range handlers {
		h(sig)
	}
}
