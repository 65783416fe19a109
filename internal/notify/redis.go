package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the pub/sub channel interview events travel on.
const DefaultChannel = "interview_events"

type envelope struct {
	PartyID uuid.UUID `json:"party_id"`
	Event   Event     `json:"event"`
}

// RedisPublisher publishes events on a Redis channel so every instance can
// deliver them to its own websocket clients.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher. An empty channel uses DefaultChannel.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

// Notify implements Notifier.
func (p *RedisPublisher) Notify(ctx context.Context, partyID uuid.UUID, ev Event) error {
	payload, err := json.Marshal(envelope{PartyID: partyID, Event: ev})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", ev.Type, err)
	}
	return nil
}

// Relay subscribes to channel and hands every event to target until ctx is
// cancelled. Malformed messages are logged and skipped.
func Relay(ctx context.Context, client *redis.Client, channel string, target Notifier, logger *zap.Logger) error {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	// wait for the subscription to be confirmed before reading
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	logger.Info("relaying interview events", zap.String("channel", channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logger.Warn("skipping malformed event", zap.Error(err))
				continue
			}
			if err := target.Notify(ctx, env.PartyID, env.Event); err != nil {
				logger.Warn("relay delivery failed",
					zap.String("party_id", env.PartyID.String()),
					zap.String("type", string(env.Event.Type)),
					zap.Error(err))
			}
		}
	}
}
