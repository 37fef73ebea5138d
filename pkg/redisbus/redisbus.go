/**
 * @description
 * Redis Streams transport for the account-service, selectable with
 * BUS_DRIVER=redis for deployments that run the platform bus on Redis
 * instead of RabbitMQ. Envelopes are appended to a single shared stream and
 * consumed through a consumer group, so redeliveries survive a crashed
 * consumer the same way they do on the AMQP driver.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9: The Redis client.
 */
package redisbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dtupay/account-service/internal/domain"
)

const envelopeField = "envelope"

// MessageHandler processes a single stream entry body. It returns true when
// the entry should be acknowledged.
type MessageHandler func(body []byte) bool

// Bus is a Redis Streams publisher and consumer for envelopes.
type Bus struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	logger   *slog.Logger
}

// New connects to Redis and ensures the stream and consumer group exist.
func New(redisURL, stream, group, consumer string, logger *slog.Logger) (*Bus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis bus: invalid URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis bus: connection failed: %w", err)
	}

	// BUSYGROUP means the group already exists, which is fine.
	if err := client.XGroupCreateMkStream(context.Background(), stream, group, "0").Err(); err != nil {
		if !redisBusyGroup(err) {
			client.Close()
			return nil, fmt.Errorf("redis bus: creating consumer group: %w", err)
		}
	}

	return &Bus{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		logger:   logger.With("component", "redis-bus"),
	}, nil
}

func redisBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

// Publish appends the envelope to the stream.
func (b *Bus) Publish(ctx context.Context, env domain.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{envelopeField: body},
	}
	if err := b.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis bus: publish failed: %w", err)
	}

	b.logger.Debug("published event", "event_type", env.Type, "request_id", env.RequestID)
	return nil
}

// Consume reads stream entries through the consumer group and passes their
// envelope bodies to the handler until the context is cancelled.
// Acknowledged entries are removed from the pending list; unacknowledged
// ones are redelivered to the group.
func (b *Bus) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: b.consumer,
			Streams:  []string{b.stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			if errors.Is(err, redis.Nil) {
				continue // block timed out with no entries
			}
			return fmt.Errorf("redis bus: read failed: %w", err)
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				raw, ok := message.Values[envelopeField].(string)
				if !ok {
					b.logger.Error("stream entry without envelope field, acking", "id", message.ID)
					b.client.XAck(ctx, b.stream, b.group, message.ID)
					continue
				}
				if handler([]byte(raw)) {
					b.client.XAck(ctx, b.stream, b.group, message.ID)
				}
			}
		}
	}
}

// Close releases the Redis connection.
func (b *Bus) Close() {
	_ = b.client.Close()
}
