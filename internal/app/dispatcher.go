/**
 * @description
 * This file implements the command router of the account-service: an
 * explicit mapping from event type names to handler functions. The consumer
 * decodes an envelope off the bus, hands it to the dispatcher, and publishes
 * whatever envelopes the handler returns.
 *
 * @notes
 * - Handlers are pure with respect to the transport: they take an envelope
 *   and return the outbound envelopes, so the whole routing layer is
 *   testable without a broker connection.
 * - Many services share one bus and each reacts to a subset of event types,
 *   so an envelope with no registered handler is expected traffic and is
 *   dropped, not treated as an error.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/dtupay/account-service/internal/domain"
)

// HandlerFunc processes one inbound envelope and returns the envelopes to
// publish in response. Implementations must not block on external I/O.
type HandlerFunc func(ctx context.Context, env domain.Envelope) []domain.Envelope

// Dispatcher routes inbound envelopes to exactly one handler each, keyed by
// event type name. All registrations happen during startup, before any
// dispatching; the map is read-only afterwards.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   *slog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger.With("component", "dispatcher"),
	}
}

// Register binds a handler to an event type name. Registering a second
// handler for the same name replaces the first; last registration wins.
// This is intentional: it lets tests and alternative wirings override a
// default binding without unregister plumbing.
func (d *Dispatcher) Register(eventType string, handler HandlerFunc) {
	if _, exists := d.handlers[eventType]; exists {
		d.logger.Debug("replacing handler binding", "event_type", eventType)
	}
	d.handlers[eventType] = handler
}

// Dispatch delivers the envelope to the handler registered for its type and
// returns the handler's outbound envelopes. Unknown event types yield nil.
func (d *Dispatcher) Dispatch(ctx context.Context, env domain.Envelope) []domain.Envelope {
	handler, ok := d.handlers[env.Type]
	if !ok {
		d.logger.Debug("no handler for event type, dropping", "event_type", env.Type)
		return nil
	}
	return handler(ctx, env)
}
