/**
 * @description
 * In-process event bus. Publishing an envelope dispatches it synchronously
 * to the local handlers and records it, which is exactly what tests and
 * single-process local development need: no broker, and full visibility of
 * everything the service emitted.
 */
package app

import (
	"context"
	"sync"

	"github.com/dtupay/account-service/internal/domain"
)

// EventPublisher is the outbound side of the bus as seen by this service.
// Publishing is fire-and-forget: implementations must not wait for a remote
// consumer to acknowledge the event.
type EventPublisher interface {
	Publish(ctx context.Context, env domain.Envelope) error
}

// MemoryBus is an EventPublisher that loops every published envelope back
// into a dispatcher and keeps a record of everything published.
type MemoryBus struct {
	dispatcher *Dispatcher

	mu        sync.Mutex
	published []domain.Envelope
}

// NewMemoryBus creates a bus that feeds published envelopes back into the
// given dispatcher. A nil dispatcher turns the bus into a pure recorder.
func NewMemoryBus(dispatcher *Dispatcher) *MemoryBus {
	return &MemoryBus{dispatcher: dispatcher}
}

// Publish records the envelope and synchronously dispatches it. Envelopes
// produced by the dispatched handler are published recursively, so a full
// local saga plays out within one call.
func (b *MemoryBus) Publish(ctx context.Context, env domain.Envelope) error {
	b.mu.Lock()
	b.published = append(b.published, env)
	b.mu.Unlock()

	if b.dispatcher == nil {
		return nil
	}
	for _, out := range b.dispatcher.Dispatch(ctx, env) {
		if err := b.Publish(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

// Published returns a snapshot of every envelope published so far.
func (b *MemoryBus) Published() []domain.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Envelope(nil), b.published...)
}

// Reset clears the published record. Used by tests.
func (b *MemoryBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}

var _ EventPublisher = (*MemoryBus)(nil)
