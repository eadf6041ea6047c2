package main

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	gateway "github.com/radieske/stake-predict-platform/internal/api-gateway"
	"github.com/radieske/stake-predict-platform/internal/shared/config"
	"github.com/radieske/stake-predict-platform/internal/shared/logger"
	"github.com/radieske/stake-predict-platform/internal/shared/metrics"
)

func main() {
	cfg := config.LoadFor("api-gateway")
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	h, err := gateway.Router(cfg.EngineURL, cfg.LedgerURL)
	if err != nil {
		log.Fatal("gateway routes", zap.Error(err))
	}

	metrics.StartMetricsServer(cfg.MetricsPort, nil)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	log.Info("api-gateway listening", zap.String("addr", srv.Addr),
		zap.String("engine", cfg.EngineURL), zap.String("ledger", cfg.LedgerURL))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("gateway failed", zap.Error(err))
	}
}
