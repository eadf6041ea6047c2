package settlement

import (
	"fmt"

	"github.com/radieske/stake-predict-platform/internal/domain"
)

// Payout é o resultado do cálculo pari-mutuel para uma posição vencedora
type Payout struct {
	Reward domain.Amount // stake + parte do pool
	Fee    domain.Amount // taxa total do mercado
	// FeeShare é a parte da taxa atribuída a esta posição: floor(stake*fee/won)
	FeeShare domain.Amount
	Pool     domain.Amount
	Won      domain.Amount
	Lost     domain.Amount
}

// ComputePayout é a única fórmula de pagamento; Preview e Claim passam por aqui.
//
//	fee    = floor(lost * FeeBPS / FeeDenominator)
//	pool   = lost - fee
//	reward = stake + floor(stake * pool / won)
func ComputePayout(params domain.Params, p domain.Prediction, pos domain.Position) (Payout, error) {
	outcome, ok := p.Outcome()
	if !ok {
		return Payout{}, fmt.Errorf("prediction %d: %w", p.ID, domain.ErrNotResolved)
	}
	if pos.Side != outcome {
		return Payout{}, fmt.Errorf("prediction %d: %w", p.ID, domain.ErrWrongSide)
	}
	won, lost := p.SideTotal(outcome), p.SideTotal(!outcome)
	if won.IsZero() {
		return Payout{}, fmt.Errorf("winning side total: %w", domain.ErrDivisionByZero)
	}
	if params.FeeDenominator == 0 {
		return Payout{}, fmt.Errorf("fee denominator: %w", domain.ErrDivisionByZero)
	}

	fee, err := mulDiv(lost, domain.NewAmount(params.FeeBPS), domain.NewAmount(params.FeeDenominator))
	if err != nil {
		return Payout{}, fmt.Errorf("fee: %w", err)
	}
	pool, err := lost.Sub(fee)
	if err != nil {
		return Payout{}, fmt.Errorf("pool: %w", err)
	}
	share, err := mulDiv(pos.StakeAmount, pool, won)
	if err != nil {
		return Payout{}, fmt.Errorf("pool share: %w", err)
	}
	reward, err := pos.StakeAmount.Add(share)
	if err != nil {
		return Payout{}, fmt.Errorf("reward: %w", err)
	}
	feeShare, err := mulDiv(pos.StakeAmount, fee, won)
	if err != nil {
		return Payout{}, fmt.Errorf("fee share: %w", err)
	}
	return Payout{Reward: reward, Fee: fee, FeeShare: feeShare, Pool: pool, Won: won, Lost: lost}, nil
}

func mulDiv(a, b, c domain.Amount) (domain.Amount, error) {
	prod, err := a.Mul(b)
	if err != nil {
		return domain.Amount{}, err
	}
	return prod.Div(c)
}
