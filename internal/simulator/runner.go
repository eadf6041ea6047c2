package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/engine-service/dto"
)

// Minter credita saldo inicial aos participantes simulados
type Minter interface {
	Mint(ctx context.Context, amount domain.Amount, to domain.Principal) error
}

// Catálogo fixo de previsões simuladas
var catalog = []dto.CreatePredictionRequest{
	{Title: "Rain in São Paulo tomorrow", Description: "Any measurable rain at Mirante de Santana", Domain: "weather"},
	{Title: "BTC above 100k on Friday", Description: "Spot close on the reference exchange", Domain: "crypto"},
	{Title: "Flamengo beats Palmeiras", Description: "Regular time result", Domain: "sports"},
	{Title: "Rate cut at next meeting", Description: "Official committee statement", Domain: "economy"},
}

// Runner gera rodadas completas: cria, aposta, resolve e paga
type Runner struct {
	Log          *zap.Logger
	API          *Client
	Minter       Minter
	Creator      domain.Principal
	Participants []domain.Principal
	Duration     uint64        // blocos de cada previsão
	Poll         time.Duration // intervalo de tentativa de resolução
	MinStake     domain.Amount
	Rand         *rand.Rand

	OnRequest func(op, result string) // métricas
}

func (r *Runner) observe(op string, err error) {
	if r.OnRequest == nil {
		return
	}
	result := "OK"
	if err != nil {
		result = domain.Code(err)
	}
	r.OnRequest(op, result)
}

// Fund dá a cada participante saldo para muitas rodadas
func (r *Runner) Fund(ctx context.Context, perParticipant domain.Amount) error {
	for _, p := range r.Participants {
		if err := r.Minter.Mint(ctx, perParticipant, p); err != nil {
			return fmt.Errorf("fund %s: %w", p, err)
		}
	}
	return nil
}

// Open cria uma previsão e registra uma aposta de cada participante
func (r *Runner) Open(ctx context.Context) (uint64, error) {
	req := catalog[r.Rand.IntN(len(catalog))]
	req.Duration = r.Duration
	p, err := r.API.Create(ctx, r.Creator, req)
	r.observe("create", err)
	if err != nil {
		return 0, err
	}

	for _, who := range r.Participants {
		side := "no"
		if r.Rand.IntN(2) == 0 {
			side = "yes"
		}
		amount, err := r.MinStake.Mul(domain.NewAmount(uint64(1 + r.Rand.IntN(5))))
		if err != nil {
			return p.ID, err
		}
		err = r.API.Stake(ctx, who, p.ID, dto.StakeRequest{Side: side, Amount: amount})
		r.observe("stake", err)
		if err != nil {
			r.Log.Warn("stake failed", zap.Uint64("prediction_id", p.ID), zap.String("participant", string(who)), zap.Error(err))
		}
	}
	return p.ID, nil
}

// Settle resolve com resultado aleatório e tenta o claim de todos.
// Retorna ErrStillOpen enquanto o mercado não fechou.
func (r *Runner) Settle(ctx context.Context, id uint64) (claimed int, err error) {
	err = r.API.Resolve(ctx, r.Creator, id, r.Rand.IntN(2) == 0)
	r.observe("resolve", err)
	if err != nil {
		return 0, err
	}
	for _, who := range r.Participants {
		_, err := r.API.Claim(ctx, who, id)
		r.observe("claim", err)
		switch {
		case err == nil:
			claimed++
		case errors.Is(err, domain.ErrWrongSide), errors.Is(err, domain.ErrNotFound):
			// perdeu ou não apostou
		default:
			r.Log.Warn("claim failed", zap.Uint64("prediction_id", id), zap.String("participant", string(who)), zap.Error(err))
		}
	}
	return claimed, nil
}

// Run executa rodadas em sequência até o contexto terminar
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Poll)
	defer ticker.Stop()
	wait := func() bool {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			return true
		}
	}

	for {
		id, err := r.Open(ctx)
		if err != nil {
			r.Log.Warn("round open failed", zap.Error(err))
			if !wait() {
				return ctx.Err()
			}
			continue
		}
		for {
			if !wait() {
				return ctx.Err()
			}
			claimed, err := r.Settle(ctx, id)
			if errors.Is(err, domain.ErrStillOpen) {
				continue
			}
			if err != nil {
				r.Log.Warn("round settle failed", zap.Uint64("prediction_id", id), zap.Error(err))
			} else {
				r.Log.Info("round settled", zap.Uint64("prediction_id", id), zap.Int("claimed", claimed))
			}
			break
		}
	}
}
