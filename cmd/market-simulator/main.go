package main

import (
	"context"
	"math/rand/v2"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/engine-service/ledger"
	"github.com/radieske/stake-predict-platform/internal/shared/config"
	"github.com/radieske/stake-predict-platform/internal/shared/logger"
	"github.com/radieske/stake-predict-platform/internal/shared/metrics"
	"github.com/radieske/stake-predict-platform/internal/simulator"
)

func main() {
	cfg := config.LoadFor("market-simulator")
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simulator_requests_total",
		Help: "Engine API calls made by the simulator, by result code",
	}, []string{"op", "result"})
	prometheus.MustRegister(requests)
	metrics.StartMetricsServer(cfg.MetricsPort, nil)

	participants := make([]domain.Principal, 0, 8)
	for i := 1; i <= 8; i++ {
		participants = append(participants, domain.Principal("sim-"+strconv.Itoa(i)))
	}

	r := &simulator.Runner{
		Log:          log,
		API:          simulator.NewClient(cfg.EngineURL),
		Minter:       ledger.New(cfg.LedgerURL),
		Creator:      "sim-creator",
		Participants: participants,
		Duration:     6,
		Poll:         cfg.BlockInterval,
		MinStake:     domain.DefaultParams().MinStake,
		Rand:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		OnRequest:    func(op, result string) { requests.WithLabelValues(op, result).Inc() },
	}
	if err := r.Fund(ctx, domain.NewAmount(1_000_000_000_000)); err != nil {
		log.Fatal("fund participants", zap.Error(err))
	}

	log.Info("market simulator running", zap.String("engine", cfg.EngineURL), zap.Int("participants", len(participants)))
	if err := r.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("simulator stopped", zap.Error(err))
	}
}
