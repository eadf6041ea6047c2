package staking

import (
	"context"
	"errors"
	"fmt"

	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/reputation"
)

// Repo é o recorte do estado usado pelo ledger de apostas
type Repo interface {
	domain.PredictionRepo
	domain.PositionRepo
	domain.ReputationRepo
}

// Result devolve o estado após a aposta
type Result struct {
	Prediction domain.Prediction
	Position   domain.Position
	Reputation domain.Reputation
}

// Ledger agrega as posições de cada participante por mercado
type Ledger struct {
	params     domain.Params
	reputation *reputation.Engine
}

func NewLedger(params domain.Params, rep *reputation.Engine) *Ledger {
	return &Ledger{params: params, reputation: rep}
}

// Stake registra a aposta localmente. O débito externo é feito pelo chamador
// dentro da mesma transação; se falhar, nada aqui é confirmado.
func (l *Ledger) Stake(ctx context.Context, repo Repo, height uint64, participant domain.Principal, id domain.PredictionID, side domain.Side, amount domain.Amount) (Result, error) {
	if participant == "" {
		return Result{}, fmt.Errorf("participant required: %w", domain.ErrUnauthorized)
	}
	p, err := repo.Prediction(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if amount.IsZero() {
		return Result{}, fmt.Errorf("stake amount is zero: %w", domain.ErrInvalidInput)
	}
	if amount.LessThan(l.params.MinStake) {
		return Result{}, fmt.Errorf("stake %s below minimum %s: %w", amount, l.params.MinStake, domain.ErrInsufficientStake)
	}
	if amount.GreaterThan(l.params.MaxStake) {
		return Result{}, fmt.Errorf("stake %s above maximum %s: %w", amount, l.params.MaxStake, domain.ErrOverflow)
	}
	sideTotal, err := p.SideTotal(side).Add(amount)
	if err != nil {
		return Result{}, fmt.Errorf("side total: %w", err)
	}
	if sideTotal.GreaterThan(l.params.MaxStake) {
		return Result{}, fmt.Errorf("side total %s above maximum %s: %w", sideTotal, l.params.MaxStake, domain.ErrOverflow)
	}
	if height >= p.EndHeight {
		return Result{}, fmt.Errorf("prediction %d closed at %d: %w", id, p.EndHeight, domain.ErrMarketClosed)
	}
	if p.IsResolved() {
		return Result{}, fmt.Errorf("prediction %d: %w", id, domain.ErrAlreadyResolved)
	}

	pos, err := repo.Position(ctx, participant, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		pos = domain.Position{Participant: participant, PredictionID: id, Side: side}
	case err != nil:
		return Result{}, fmt.Errorf("load position: %w", err)
	case pos.Side != side:
		// o lado é fixado pela primeira aposta
		return Result{}, fmt.Errorf("position on %s: %w", sideName(pos.Side), domain.ErrSideMismatch)
	}
	if pos.StakeAmount, err = pos.StakeAmount.Add(amount); err != nil {
		return Result{}, fmt.Errorf("position amount: %w", err)
	}

	p.SetSideTotal(side, sideTotal)
	if err := repo.UpdatePrediction(ctx, p); err != nil {
		return Result{}, fmt.Errorf("update prediction: %w", err)
	}
	if err := repo.PutPosition(ctx, pos); err != nil {
		return Result{}, fmt.Errorf("save position: %w", err)
	}
	rep, err := l.reputation.RecordStake(ctx, repo, participant, amount)
	if err != nil {
		return Result{}, err
	}
	return Result{Prediction: p, Position: pos, Reputation: rep}, nil
}

// Position lê a posição de um participante
func (l *Ledger) Position(ctx context.Context, repo domain.PositionRepo, participant domain.Principal, id domain.PredictionID) (domain.Position, error) {
	return repo.Position(ctx, participant, id)
}

func sideName(s domain.Side) string {
	if s {
		return "yes"
	}
	return "no"
}
