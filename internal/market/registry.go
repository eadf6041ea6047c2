package market

import (
	"context"
	"fmt"
	"strings"

	"github.com/radieske/stake-predict-platform/internal/domain"
)

// Repo é o recorte do estado usado pelo registry
type Repo interface {
	domain.PredictionRepo
	domain.SequenceRepo
}

// CreateInput são os campos informados pelo criador
type CreateInput struct {
	Title       string
	Description string
	Domain      string
	Duration    uint64
}

// Registry controla a criação e o ciclo de vida das previsões
type Registry struct {
	params domain.Params
}

func NewRegistry(params domain.Params) *Registry { return &Registry{params: params} }

// Create valida a entrada e só então consome um id da sequência
func (r *Registry) Create(ctx context.Context, repo Repo, height uint64, creator domain.Principal, in CreateInput) (domain.Prediction, error) {
	if creator == "" {
		return domain.Prediction{}, fmt.Errorf("creator required: %w", domain.ErrUnauthorized)
	}
	if err := r.validate(in); err != nil {
		return domain.Prediction{}, err
	}
	if in.Duration > ^uint64(0)-height {
		return domain.Prediction{}, fmt.Errorf("end height: %w", domain.ErrOverflow)
	}

	id, err := repo.NextID(ctx, domain.SeqPrediction)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("next prediction id: %w", err)
	}

	p := domain.Prediction{
		ID:            domain.PredictionID(id),
		Creator:       creator,
		Title:         in.Title,
		Description:   in.Description,
		Domain:        in.Domain,
		CreatedHeight: height,
		EndHeight:     height + in.Duration,
		QualityScore:  r.params.DefaultQualityScore,
	}
	if err := repo.InsertPrediction(ctx, p); err != nil {
		return domain.Prediction{}, fmt.Errorf("insert prediction: %w", err)
	}
	return p, nil
}

func (r *Registry) validate(in CreateInput) error {
	if in.Duration == 0 || in.Duration > r.params.MaxDuration {
		return fmt.Errorf("duration %d outside 1..%d: %w", in.Duration, r.params.MaxDuration, domain.ErrInvalidInput)
	}
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"title", in.Title, r.params.MaxTitleLen},
		{"description", in.Description, r.params.MaxDescriptionLen},
		{"domain", in.Domain, r.params.MaxDomainLen},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s is empty: %w", f.name, domain.ErrInvalidInput)
		}
		if len(f.value) > f.max {
			return fmt.Errorf("%s longer than %d: %w", f.name, f.max, domain.ErrInvalidInput)
		}
	}
	return nil
}

// Resolve grava o resultado. Só o criador ou o owner podem resolver, e só depois do fim.
func (r *Registry) Resolve(ctx context.Context, repo domain.PredictionRepo, height uint64, caller, owner domain.Principal, id domain.PredictionID, outcome bool) (domain.Prediction, error) {
	p, err := repo.Prediction(ctx, id)
	if err != nil {
		return domain.Prediction{}, err
	}
	grant := domain.Grant{Owner: owner, Creator: p.Creator}
	if err := grant.Require(caller, domain.RoleCreatorOrOwner); err != nil {
		return domain.Prediction{}, err
	}
	if height < p.EndHeight {
		return domain.Prediction{}, fmt.Errorf("prediction %d ends at %d: %w", id, p.EndHeight, domain.ErrStillOpen)
	}
	if err := p.Resolve(outcome, height); err != nil {
		return domain.Prediction{}, err
	}
	if err := repo.UpdatePrediction(ctx, p); err != nil {
		return domain.Prediction{}, fmt.Errorf("update prediction: %w", err)
	}
	return p, nil
}

// Get lê uma previsão
func (r *Registry) Get(ctx context.Context, repo domain.PredictionRepo, id domain.PredictionID) (domain.Prediction, error) {
	return repo.Prediction(ctx, id)
}

// Status é o estado da previsão na altura informada. Apostas só em OPEN; resolução só a partir de CLOSED.
func Status(p domain.Prediction, height uint64) domain.Status { return p.Status(height) }
