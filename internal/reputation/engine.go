package reputation

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/radieske/stake-predict-platform/internal/domain"
)

// Score calcula a precisão suavizada (Laplace) em basis points:
// floor((correct+1) * 10000 / (predictions+2)).
func Score(correct, predictions uint64) (uint16, error) {
	if correct > predictions {
		return 0, fmt.Errorf("score: correct %d > predictions %d: %w", correct, predictions, domain.ErrInvalidInput)
	}
	// contas em 256 bits para que correct+1 e predictions+2 nunca estourem
	num := new(uint256.Int).AddUint64(uint256.NewInt(correct), 1)
	num.Mul(num, uint256.NewInt(domain.ScoreScale))
	den := new(uint256.Int).AddUint64(uint256.NewInt(predictions), 2)
	q := new(uint256.Int).Div(num, den)
	if !q.IsUint64() || q.Uint64() > domain.ScoreScale {
		return 0, domain.ErrOverflow
	}
	return uint16(q.Uint64()), nil
}

// Engine mantém a reputação por participante
type Engine struct {
	params domain.Params
}

func New(params domain.Params) *Engine { return &Engine{params: params} }

// Get é o acessor get-or-default: participante sem registro recebe score inicial
func (e *Engine) Get(ctx context.Context, repo domain.ReputationRepo, p domain.Principal) (domain.Reputation, error) {
	r, err := repo.Reputation(ctx, p)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultReputation(p, e.params.InitialScore), nil
	}
	if err != nil {
		return domain.Reputation{}, fmt.Errorf("load reputation: %w", err)
	}
	return r, nil
}

// RecordStake conta uma aposta (toda chamada bem-sucedida de stake) e acumula o total apostado
func (e *Engine) RecordStake(ctx context.Context, repo domain.ReputationRepo, p domain.Principal, amount domain.Amount) (domain.Reputation, error) {
	r, err := e.Get(ctx, repo, p)
	if err != nil {
		return domain.Reputation{}, err
	}
	if r.PredictionsCount == ^uint64(0) {
		return domain.Reputation{}, fmt.Errorf("predictions count: %w", domain.ErrOverflow)
	}
	r.PredictionsCount++
	if r.TotalStaked, err = r.TotalStaked.Add(amount); err != nil {
		return domain.Reputation{}, fmt.Errorf("total staked: %w", err)
	}
	return e.save(ctx, repo, r)
}

// UpdateOnClaim registra um acerto liquidado
func (e *Engine) UpdateOnClaim(ctx context.Context, repo domain.ReputationRepo, p domain.Principal, reward domain.Amount) (domain.Reputation, error) {
	r, err := e.Get(ctx, repo, p)
	if err != nil {
		return domain.Reputation{}, err
	}
	r.CorrectCount++
	if r.TotalEarned, err = r.TotalEarned.Add(reward); err != nil {
		return domain.Reputation{}, fmt.Errorf("total earned: %w", err)
	}
	return e.save(ctx, repo, r)
}

// save recalcula o score do zero antes de gravar
func (e *Engine) save(ctx context.Context, repo domain.ReputationRepo, r domain.Reputation) (domain.Reputation, error) {
	score, err := Score(r.CorrectCount, r.PredictionsCount)
	if err != nil {
		return domain.Reputation{}, err
	}
	r.Score = score
	if err := repo.PutReputation(ctx, r); err != nil {
		return domain.Reputation{}, fmt.Errorf("save reputation: %w", err)
	}
	return r, nil
}
