/**
 * @description
 * The producer half of the RabbitMQ transport: publishes envelopes to the
 * shared topic exchange, routed by event type name.
 *
 * @notes
 * - Publishing is fire-and-forget from the handler's point of view; the
 *   producer does not wait for any remote consumer.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dtupay/account-service/internal/domain"
)

// Producer publishes envelopes to a RabbitMQ topic exchange.
type Producer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
}

// NewProducer creates a producer bound to the given exchange, declaring it
// if it does not exist yet.
func NewProducer(amqpURL, exchange string, logger *slog.Logger) (*Producer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Use a bounded dial timeout so startup does not hang indefinitely.
	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &Producer{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger.With("component", "rabbitmq-producer"),
	}, nil
}

// Publish sends the envelope to the exchange using its event type as the
// routing key.
func (p *Producer) Publish(ctx context.Context, env domain.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		env.Type,   // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return err
	}

	p.logger.Debug("published event", "event_type", env.Type, "request_id", env.RequestID)
	return nil
}

// Close gracefully closes the channel and connection.
func (p *Producer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
