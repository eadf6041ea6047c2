package settlement

import (
	"context"
	"fmt"

	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/reputation"
)

// Repo é o recorte do estado usado na liquidação
type Repo interface {
	domain.PredictionRepo
	domain.PositionRepo
	domain.ReputationRepo
	domain.TreasuryRepo
}

// ReadRepo é o recorte para o preview
type ReadRepo interface {
	domain.PredictionRepo
	domain.PositionRepo
}

// Settled é o resultado local de um claim; a transferência do prêmio fica com o chamador
type Settled struct {
	Prediction domain.Prediction
	Position   domain.Position
	Payout     Payout
	Treasury   domain.Amount
	Reputation domain.Reputation
}

type Engine struct {
	params     domain.Params
	reputation *reputation.Engine
}

func NewEngine(params domain.Params, rep *reputation.Engine) *Engine {
	return &Engine{params: params, reputation: rep}
}

func (e *Engine) load(ctx context.Context, repo ReadRepo, participant domain.Principal, id domain.PredictionID) (domain.Prediction, domain.Position, error) {
	p, err := repo.Prediction(ctx, id)
	if err != nil {
		return domain.Prediction{}, domain.Position{}, err
	}
	pos, err := repo.Position(ctx, participant, id)
	if err != nil {
		return domain.Prediction{}, domain.Position{}, err
	}
	return p, pos, nil
}

// Preview calcula o pagamento sem alterar estado
func (e *Engine) Preview(ctx context.Context, repo ReadRepo, participant domain.Principal, id domain.PredictionID) (Payout, error) {
	p, pos, err := e.load(ctx, repo, participant, id)
	if err != nil {
		return Payout{}, err
	}
	return ComputePayout(e.params, p, pos)
}

// Claim liquida a posição vencedora: marca como paga, credita a tesouraria e
// atualiza a reputação. Tudo roda na transação do chamador.
func (e *Engine) Claim(ctx context.Context, repo Repo, participant domain.Principal, id domain.PredictionID) (Settled, error) {
	if participant == "" {
		return Settled{}, fmt.Errorf("participant required: %w", domain.ErrUnauthorized)
	}
	p, pos, err := e.load(ctx, repo, participant, id)
	if err != nil {
		return Settled{}, err
	}
	outcome, ok := p.Outcome()
	if !ok {
		return Settled{}, fmt.Errorf("prediction %d: %w", id, domain.ErrNotResolved)
	}
	if pos.Claimed {
		return Settled{}, fmt.Errorf("position %s/%d: %w", participant, id, domain.ErrAlreadyClaimed)
	}
	if pos.Side != outcome {
		return Settled{}, fmt.Errorf("prediction %d: %w", id, domain.ErrWrongSide)
	}

	payout, err := ComputePayout(e.params, p, pos)
	if err != nil {
		return Settled{}, err
	}

	pos.Claimed = true
	if err := repo.PutPosition(ctx, pos); err != nil {
		return Settled{}, fmt.Errorf("mark claimed: %w", err)
	}

	treasury, err := repo.Treasury(ctx)
	if err != nil {
		return Settled{}, fmt.Errorf("load treasury: %w", err)
	}
	if treasury, err = treasury.Add(payout.FeeShare); err != nil {
		return Settled{}, fmt.Errorf("treasury: %w", err)
	}
	if err := repo.PutTreasury(ctx, treasury); err != nil {
		return Settled{}, fmt.Errorf("save treasury: %w", err)
	}

	rep, err := e.reputation.UpdateOnClaim(ctx, repo, participant, payout.Reward)
	if err != nil {
		return Settled{}, err
	}
	return Settled{Prediction: p, Position: pos, Payout: payout, Treasury: treasury, Reputation: rep}, nil
}
