package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/engine"
	"github.com/radieske/stake-predict-platform/internal/engine-service/feed"
	httpapi "github.com/radieske/stake-predict-platform/internal/engine-service/http"
	"github.com/radieske/stake-predict-platform/internal/engine-service/ledger"
	"github.com/radieske/stake-predict-platform/internal/engine-service/producer"
	"github.com/radieske/stake-predict-platform/internal/height"
	"github.com/radieske/stake-predict-platform/internal/shared/cache"
	"github.com/radieske/stake-predict-platform/internal/shared/config"
	"github.com/radieske/stake-predict-platform/internal/shared/db"
	"github.com/radieske/stake-predict-platform/internal/shared/kafka"
	"github.com/radieske/stake-predict-platform/internal/shared/logger"
	"github.com/radieske/stake-predict-platform/internal/shared/metrics"
	"github.com/radieske/stake-predict-platform/internal/store/memory"
	"github.com/radieske/stake-predict-platform/internal/store/postgres"
)

func main() {
	cfg := config.LoadFor("engine-service")

	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting service",
		zap.String("store", cfg.EngineStore),
		zap.String("owner", cfg.OwnerPrincipal),
		zap.String("escrow", cfg.EscrowPrincipal))

	// Store: Postgres em produção, memória para rodar local sem dependências
	var (
		store  domain.Store
		health metrics.HealthFunc = func(context.Context) error { return nil }
	)
	switch cfg.EngineStore {
	case "memory":
		store = memory.New()
	default:
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("postgres connect", zap.Error(err))
		}
		defer pg.Close()
		if err := postgres.Migrate(ctx, pg); err != nil {
			log.Fatal("postgres migrate", zap.Error(err))
		}
		store = postgres.New(pg)
		health = pg.PingContext
	}

	// Eventos vão para o Kafka, chave = id da previsão
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPredictionEvents)
	defer writer.Close()

	m := metrics.NewEngine(prometheus.DefaultRegisterer)
	ledgerClient := ledger.New(cfg.LedgerURL)

	svc := engine.New(log, engine.Deps{
		Store:   store,
		Ledger:  ledgerClient,
		Certs:   ledgerClient,
		Heights: height.NewClock(clock.New(), cfg.GenesisTime, cfg.BlockInterval),
		Events:  producer.NewKafkaPublisher(writer),
	}, engine.Config{
		Owner:  domain.Principal(cfg.OwnerPrincipal),
		Escrow: domain.Principal(cfg.EscrowPrincipal),
		Params: domain.DefaultParams(),
	})
	svc.OnOperation = m.ObserveOperation
	svc.OnTransferFailure = m.ObserveTransferFailure

	// Feed ao vivo: o indexer publica no Redis, o hub repassa aos clientes WS
	hub := feed.NewHub(func(*http.Request) bool { return true })
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Warn("redis unavailable, live feed disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		feed.StartRedisSubscriber(ctx, log, rdb, cfg.RedisFeedChannel, hub)
	}

	api := httpapi.New(log, svc, http.HandlerFunc(hub.HandleWS))
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, health)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		return apiSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("engine-service stopped with error", zap.Error(err))
	}
	log.Info("engine-service stopped")
}
