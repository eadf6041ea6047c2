package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine agrupa os contadores do engine-service
type Engine struct {
	Operations       *prometheus.CounterVec
	TransferFailures prometheus.Counter
}

func NewEngine(reg prometheus.Registerer) *Engine {
	m := &Engine{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_operations_total",
			Help: "Operations handled by the engine, by result code",
		}, []string{"op", "result"}),
		TransferFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_claim_transfer_failures_total",
			Help: "Claims committed whose reward transfer failed and need reconciliation",
		}),
	}
	reg.MustRegister(m.Operations, m.TransferFailures)
	return m
}

// ObserveOperation tem a assinatura do hook OnOperation do engine
func (m *Engine) ObserveOperation(op, result string) {
	m.Operations.WithLabelValues(op, result).Inc()
}

func (m *Engine) ObserveTransferFailure() { m.TransferFailures.Inc() }

// Indexer agrupa os contadores do event-indexer-worker
type Indexer struct {
	Consumed  prometheus.Counter
	Cached    prometheus.Counter
	Persisted prometheus.Counter
	Errors    *prometheus.CounterVec
}

func NewIndexer(reg prometheus.Registerer) *Indexer {
	m := &Indexer{
		Consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indexer_events_consumed_total", Help: "Events read from Kafka",
		}),
		Cached: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indexer_snapshots_cached_total", Help: "Snapshots written to Redis",
		}),
		Persisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indexer_events_persisted_total", Help: "Events stored in the event log",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indexer_errors_total", Help: "Indexer errors by stage",
		}, []string{"stage"}),
	}
	reg.MustRegister(m.Consumed, m.Cached, m.Persisted, m.Errors)
	return m
}
