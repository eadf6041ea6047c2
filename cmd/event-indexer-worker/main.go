package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/stake-predict-platform/internal/event-indexer/cache"
	"github.com/radieske/stake-predict-platform/internal/event-indexer/consumer"
	"github.com/radieske/stake-predict-platform/internal/event-indexer/pubsub"
	"github.com/radieske/stake-predict-platform/internal/event-indexer/repository"
	sharedcache "github.com/radieske/stake-predict-platform/internal/shared/cache"
	"github.com/radieske/stake-predict-platform/internal/shared/config"
	"github.com/radieske/stake-predict-platform/internal/shared/db"
	"github.com/radieske/stake-predict-platform/internal/shared/kafka"
	"github.com/radieske/stake-predict-platform/internal/shared/logger"
	"github.com/radieske/stake-predict-platform/internal/shared/metrics"
)

func main() {
	cfg := config.LoadFor("event-indexer-worker")
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := repository.Migrate(ctx, pg); err != nil {
		log.Fatal("postgres migrate", zap.Error(err))
	}

	redisClient, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicPredictionEvents, "event-indexer")
	defer reader.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPredictionEventsDLQ)
	defer dlq.Close()

	m := metrics.NewIndexer(prometheus.DefaultRegisterer)

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		DLQ:        dlq,
		Repo:       repository.NewPostgresRepo(pg),
		Cache:      cache.NewRedisCache(redisClient, cfg.SnapshotTTL),
		Feed:       pubsub.NewRedisBroadcaster(redisClient, cfg.RedisFeedChannel),
		Attempts:   3,
		Backoff:    200 * time.Millisecond,
		OnConsumed: m.Consumed.Inc,
		OnCached:   m.Cached.Inc,
		OnPersist:  m.Persisted.Inc,
		OnError:    func(stage string) { m.Errors.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})
	defer metricsSrv.Close()

	log.Info("event-indexer started", zap.String("topic", cfg.TopicPredictionEvents))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("event-indexer stopped")
}
