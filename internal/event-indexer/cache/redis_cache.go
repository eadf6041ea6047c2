package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/stake-predict-platform/pkg/contracts/events"
)

// KV é o subconjunto do cliente Redis usado pelo cache
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCache guarda o snapshot de cada previsão com TTL.
// Os eventos de uma previsão chegam em ordem pela mesma partição.
type RedisCache struct {
	Client KV
	TTL    time.Duration
}

func NewRedisCache(c KV, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// Key gera a chave do snapshot de uma previsão
func Key(predictionID uint64) string {
	return "prediction:snapshot:" + strconv.FormatUint(predictionID, 10)
}

func (r *RedisCache) Get(ctx context.Context, predictionID uint64) (Snapshot, bool, error) {
	raw, err := r.Client.Get(ctx, Key(predictionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, false, err
	}
	return s, true, nil
}

// Apply lê o snapshot atual, aplica o envelope e grava de volta
func (r *RedisCache) Apply(ctx context.Context, e events.Envelope) (Snapshot, error) {
	cur, _, err := r.Get(ctx, e.PredictionID)
	if err != nil {
		return Snapshot{}, err
	}
	next, err := Apply(cur, e)
	if err != nil {
		return Snapshot{}, err
	}
	b, err := json.Marshal(next)
	if err != nil {
		return Snapshot{}, err
	}
	if err := r.Client.Set(ctx, Key(e.PredictionID), b, r.TTL).Err(); err != nil {
		return Snapshot{}, err
	}
	return next, nil
}
