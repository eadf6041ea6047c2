package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Publisher é o subconjunto do cliente Redis usado para o fan-out
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisBroadcaster repassa envelopes ao canal lido pelo feed WebSocket do engine-service
type RedisBroadcaster struct {
	r       Publisher
	channel string
}

func NewRedisBroadcaster(r Publisher, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, payload []byte) error {
	return b.r.Publish(ctx, b.channel, payload).Err()
}
