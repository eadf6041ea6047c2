package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/stake-predict-platform/internal/event-indexer/cache"
	"github.com/radieske/stake-predict-platform/pkg/contracts/events"
)

// Reader é o subconjunto de *kafka.Reader usado; o offset só é confirmado
// depois que a mensagem foi tratada (ou desviada para a DLQ).
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type EventLog interface {
	Append(ctx context.Context, e events.Envelope) (inserted bool, err error)
}

type SnapshotCache interface {
	Apply(ctx context.Context, e events.Envelope) (cache.Snapshot, error)
}

type Broadcaster interface {
	Publish(ctx context.Context, payload []byte) error
}

var errInvalidEnvelope = errors.New("invalid envelope")

// Processor consome os eventos do engine, persiste no log, atualiza o snapshot
// no Redis e repassa ao feed. Callbacks alimentam as métricas.
type Processor struct {
	Log    *zap.Logger
	Reader Reader
	DLQ    Writer
	Repo   EventLog
	Cache  SnapshotCache
	Feed   Broadcaster // opcional

	Attempts int           // tentativas de persistência antes da DLQ
	Backoff  time.Duration // espera entre tentativas

	OnConsumed func()
	OnCached   func()
	OnPersist  func()
	OnError    func(stage string)
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

// Run roda até o contexto ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka fetch failed", zap.Error(err))
			p.fail("read")
			if !sleep(ctx, 500*time.Millisecond) {
				return ctx.Err()
			}
			continue
		}

		// o commit de um offset posterior confirmaria esta mensagem também, então
		// ela é repetida até ser tratada ou ir para a DLQ
		for attempt := 1; ; attempt++ {
			err := p.Handle(ctx, m)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Error("message not handled, retrying",
				zap.Int64("offset", m.Offset),
				zap.Int("attempt", attempt),
				zap.Error(err))
			if !sleep(ctx, p.retryDelay()) {
				return ctx.Err()
			}
		}
		if err := p.Reader.CommitMessages(ctx, m); err != nil {
			p.Log.Warn("kafka commit failed", zap.Error(err))
			p.fail("commit")
		}
	}
}

func (p *Processor) retryDelay() time.Duration {
	if p.Backoff > 0 {
		return p.Backoff
	}
	return time.Second
}

// Handle processa uma mensagem. Só retorna erro quando nem o caminho feliz
// nem a DLQ deram certo.
func (p *Processor) Handle(ctx context.Context, m kafka.Message) error {
	if p.OnConsumed != nil {
		p.OnConsumed()
	}

	e, err := decode(m.Value)
	if err != nil {
		p.Log.Warn("invalid message", zap.Error(err))
		p.fail("decode")
		return p.deadLetter(ctx, m, err)
	}
	log := p.Log.With(zap.String("event_id", e.EventID), zap.Uint64("prediction_id", e.PredictionID))

	inserted, err := p.appendWithRetry(ctx, e)
	if err != nil {
		log.Warn("event log append failed", zap.Error(err))
		p.fail("db")
		return p.deadLetter(ctx, m, err)
	}
	if !inserted {
		log.Debug("duplicate event skipped")
		return nil
	}
	if p.OnPersist != nil {
		p.OnPersist()
	}

	// cache e feed são derivados; falhas não bloqueiam o consumo
	if _, err := p.Cache.Apply(ctx, e); err != nil {
		log.Warn("snapshot update failed", zap.Error(err))
		p.fail("cache")
	} else if p.OnCached != nil {
		p.OnCached()
	}

	if p.Feed != nil {
		if err := p.Feed.Publish(ctx, m.Value); err != nil {
			log.Warn("feed publish failed", zap.Error(err))
			p.fail("feed")
		}
	}
	return nil
}

func (p *Processor) appendWithRetry(ctx context.Context, e events.Envelope) (bool, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		var inserted bool
		if inserted, err = p.Repo.Append(ctx, e); err == nil {
			return inserted, nil
		}
		if i < attempts-1 && !sleep(ctx, p.Backoff) {
			return false, ctx.Err()
		}
	}
	return false, err
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, cause error) error {
	err := p.DLQ.WriteMessages(ctx, kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Headers: append(m.Headers,
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "source_topic", Value: []byte(m.Topic)},
		),
	})
	if err != nil {
		p.fail("dlq")
		return err
	}
	return nil
}

func decode(b []byte) (events.Envelope, error) {
	var e events.Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return e, err
	}
	if e.EventID == "" || e.Type == "" || len(e.Payload) == 0 {
		return e, errInvalidEnvelope
	}
	return e, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
