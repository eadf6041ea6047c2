package curation

import (
	"context"
	"errors"
	"fmt"

	"github.com/radieske/stake-predict-platform/internal/domain"
)

// Repo é o recorte do estado usado pela curadoria
type Repo interface {
	domain.PredictionRepo
	domain.CurationRepo
}

type Registry struct {
	params domain.Params
}

func NewRegistry(params domain.Params) *Registry { return &Registry{params: params} }

// Curator é get-or-default: sem registro, o curador não é verificado
func (r *Registry) Curator(ctx context.Context, repo domain.CurationRepo, curator domain.Principal) (domain.CuratorRecord, error) {
	c, err := repo.Curator(ctx, curator)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.CuratorRecord{Curator: curator}, nil
	}
	if err != nil {
		return domain.CuratorRecord{}, fmt.Errorf("load curator: %w", err)
	}
	return c, nil
}

// SetVerified liga ou desliga a verificação de um curador (somente owner)
func (r *Registry) SetVerified(ctx context.Context, repo domain.CurationRepo, caller, owner, curator domain.Principal, verified bool) (domain.CuratorRecord, error) {
	if err := (domain.Grant{Owner: owner}).Require(caller, domain.RoleOwner); err != nil {
		return domain.CuratorRecord{}, err
	}
	if curator == "" {
		return domain.CuratorRecord{}, fmt.Errorf("curator required: %w", domain.ErrInvalidInput)
	}
	c, err := r.Curator(ctx, repo, curator)
	if err != nil {
		return domain.CuratorRecord{}, err
	}
	c.Verified = verified
	if err := repo.PutCurator(ctx, c); err != nil {
		return domain.CuratorRecord{}, fmt.Errorf("save curator: %w", err)
	}
	return c, nil
}

// Review registra a nota (0-100) de um curador verificado; uma por curador por previsão
func (r *Registry) Review(ctx context.Context, repo Repo, caller domain.Principal, id domain.PredictionID, score uint8) (domain.QualityTally, error) {
	c, err := r.Curator(ctx, repo, caller)
	if err != nil {
		return domain.QualityTally{}, err
	}
	if err := (domain.Grant{Curator: c.Verified}).Require(caller, domain.RoleVerifiedCurator); err != nil {
		return domain.QualityTally{}, err
	}
	if score > domain.MaxQuality {
		return domain.QualityTally{}, fmt.Errorf("score %d above %d: %w", score, domain.MaxQuality, domain.ErrInvalidInput)
	}
	if _, err := repo.Prediction(ctx, id); err != nil {
		return domain.QualityTally{}, err
	}
	if err := repo.InsertReview(ctx, domain.QualityReview{Curator: caller, PredictionID: id, Score: score}); err != nil {
		return domain.QualityTally{}, err
	}

	t, err := repo.QualityTally(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		t = domain.QualityTally{PredictionID: id}
	case err != nil:
		return domain.QualityTally{}, fmt.Errorf("load tally: %w", err)
	}
	t.ReviewsCount++
	t.ScoreSum += uint64(score)
	if err := repo.PutQualityTally(ctx, t); err != nil {
		return domain.QualityTally{}, fmt.Errorf("save tally: %w", err)
	}

	c.ReviewsCount++
	if err := repo.PutCurator(ctx, c); err != nil {
		return domain.QualityTally{}, fmt.Errorf("save curator: %w", err)
	}
	return t, nil
}

// Quality é a média das notas, ou a nota padrão da previsão quando ainda não houve revisão
func (r *Registry) Quality(ctx context.Context, repo Repo, id domain.PredictionID) (uint8, error) {
	p, err := repo.Prediction(ctx, id)
	if err != nil {
		return 0, err
	}
	t, err := repo.QualityTally(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && t.ReviewsCount == 0) {
		return p.QualityScore, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load tally: %w", err)
	}
	return uint8(t.ScoreSum / t.ReviewsCount), nil
}
