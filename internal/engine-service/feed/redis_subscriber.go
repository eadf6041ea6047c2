package feed

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/stake-predict-platform/pkg/contracts/events"
)

// StartRedisSubscriber escuta o canal publicado pelo indexer e repassa cada
// envelope ao Hub. Encerra quando ctx termina.
func StartRedisSubscriber(ctx context.Context, log *zap.Logger, r *redis.Client, channel string, hub *Hub) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env events.Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					log.Warn("feed subscriber unmarshal", zap.Error(err))
					continue
				}
				hub.Broadcast(env)
			}
		}
	}()
}
