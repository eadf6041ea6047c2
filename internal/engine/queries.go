package engine

import (
	"context"

	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/settlement"
)

// PredictionView é a previsão com o estado calculado na altura corrente
type PredictionView struct {
	Prediction domain.Prediction
	Status     domain.Status
	Quality    uint8
	Height     uint64
}

// Leituras nunca falham por pausa

func (s *Service) Prediction(ctx context.Context, id domain.PredictionID) (v PredictionView, err error) {
	h := s.deps.Heights.CurrentHeight()
	err = s.deps.Store.View(ctx, func(tx domain.Tx) error {
		p, err := s.markets.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		q, err := s.curation.Quality(ctx, tx, id)
		if err != nil {
			return err
		}
		v = PredictionView{Prediction: p, Status: p.Status(h), Quality: q, Height: h}
		return nil
	})
	return v, err
}

func (s *Service) Position(ctx context.Context, participant domain.Principal, id domain.PredictionID) (pos domain.Position, err error) {
	err = s.deps.Store.View(ctx, func(tx domain.Tx) error {
		pos, err = s.stakes.Position(ctx, tx, participant, id)
		return err
	})
	return pos, err
}

// PreviewPayout usa a mesma fórmula do claim, sem alterar estado
func (s *Service) PreviewPayout(ctx context.Context, participant domain.Principal, id domain.PredictionID) (p settlement.Payout, err error) {
	err = s.deps.Store.View(ctx, func(tx domain.Tx) error {
		p, err = s.settle.Preview(ctx, tx, participant, id)
		return err
	})
	return p, err
}

func (s *Service) Reputation(ctx context.Context, participant domain.Principal) (r domain.Reputation, err error) {
	err = s.deps.Store.View(ctx, func(tx domain.Tx) error {
		r, err = s.rep.Get(ctx, tx, participant)
		return err
	})
	return r, err
}

func (s *Service) Certification(ctx context.Context, id domain.CertificationID) (c domain.Certification, err error) {
	err = s.deps.Store.View(ctx, func(tx domain.Tx) error {
		c, err = s.issuer.Get(ctx, tx, id)
		return err
	})
	return c, err
}

func (s *Service) Curator(ctx context.Context, curator domain.Principal) (c domain.CuratorRecord, err error) {
	err = s.deps.Store.View(ctx, func(tx domain.Tx) error {
		c, err = s.curation.Curator(ctx, tx, curator)
		return err
	})
	return c, err
}

func (s *Service) Treasury(ctx context.Context) (a domain.Amount, err error) {
	err = s.deps.Store.View(ctx, func(tx domain.Tx) error {
		a, err = tx.Treasury(ctx)
		return err
	})
	return a, err
}

func (s *Service) Platform(ctx context.Context) (st domain.PlatformState, err error) {
	err = s.deps.Store.View(ctx, func(tx domain.Tx) error {
		st, err = tx.Platform(ctx)
		return err
	})
	return st, err
}

// Height expõe a altura corrente
func (s *Service) Height() uint64 { return s.deps.Heights.CurrentHeight() }
