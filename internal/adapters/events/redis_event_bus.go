package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ricky2013dev/pm-bdm/internal/domain/entities"
	"github.com/ricky2013dev/pm-bdm/internal/domain/providers"
	redisclient "github.com/ricky2013dev/pm-bdm/internal/infrastructure/clients/redis"
)

// RedisEventBus publishes eligibility events over Redis Pub/Sub.
// Nothing is stored; events reach only currently connected subscribers.
type RedisEventBus struct {
	client *redisclient.Client
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	return &RedisEventBus{client: client}
}

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.EligibilityEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("event_id", event.ID).Msg("published eligibility event")
	return nil
}

// Close closes the underlying Redis connection
func (b *RedisEventBus) Close() error {
	return b.client.Close()
}
