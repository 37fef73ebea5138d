/**
 * @description
 * This file glues the message transport to the dispatcher. The transport
 * consumers deliver raw message bodies; EventProcessor decodes them into
 * envelopes, dispatches, and publishes whatever the handler returned.
 *
 * @notes
 * - Publishing happens strictly after the handler has returned, so no ledger
 *   lock is ever held across a publish and a slow broker cannot stall the
 *   critical section.
 * - A publish failure is logged but the delivery is still acknowledged:
 *   outbound events are best-effort by design, and redelivering the inbound
 *   message would re-execute its side effects instead of retrying the
 *   publish.
 */
package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dtupay/account-service/internal/domain"
)

// handleTimeout bounds one delivery end to end. Handlers do no external I/O,
// so this only guards against a wedged publish.
const handleTimeout = 30 * time.Second

// EventProcessor consumes raw bus messages and runs them through the
// dispatcher.
type EventProcessor struct {
	dispatcher *Dispatcher
	publisher  EventPublisher
	logger     *slog.Logger
}

// NewEventProcessor creates a new instance of EventProcessor.
func NewEventProcessor(dispatcher *Dispatcher, publisher EventPublisher, logger *slog.Logger) *EventProcessor {
	return &EventProcessor{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger.With("component", "event-processor"),
	}
}

// HandleMessage is the transport callback for one delivery. It returns true
// when the message should be acknowledged, false to reject and requeue it.
func (p *EventProcessor) HandleMessage(body []byte) bool {
	var env domain.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// Malformed messages cannot succeed on redelivery either.
		p.logger.Error("dropping malformed envelope", "error", err)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	for _, out := range p.dispatcher.Dispatch(ctx, env) {
		if err := p.publisher.Publish(ctx, out); err != nil {
			p.logger.Error("failed to publish outbound event",
				"event_type", out.Type, "request_id", out.RequestID, "error", err)
		}
	}
	return true
}
