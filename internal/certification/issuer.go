package certification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/reputation"
)

// Repo é o recorte do estado usado na emissão
type Repo interface {
	domain.PredictionRepo
	domain.PositionRepo
	domain.ReputationRepo
	domain.SequenceRepo
	domain.CertificationRepo
}

// Issuer emite certificações de acerto para participantes com reputação acima do limiar
type Issuer struct {
	params     domain.Params
	reputation *reputation.Engine
}

func NewIssuer(params domain.Params, rep *reputation.Engine) *Issuer {
	return &Issuer{params: params, reputation: rep}
}

// check revalida todas as condições de emissão e devolve a previsão e a
// reputação lidas na transação corrente
func (i *Issuer) check(ctx context.Context, repo Repo, participant domain.Principal, id domain.PredictionID, uri string) (domain.Prediction, domain.Reputation, error) {
	if participant == "" {
		return domain.Prediction{}, domain.Reputation{}, fmt.Errorf("participant required: %w", domain.ErrUnauthorized)
	}
	if strings.TrimSpace(uri) == "" || len(uri) > i.params.MaxURILen {
		return domain.Prediction{}, domain.Reputation{}, fmt.Errorf("uri must have 1..%d bytes: %w", i.params.MaxURILen, domain.ErrInvalidInput)
	}
	p, err := repo.Prediction(ctx, id)
	if err != nil {
		return domain.Prediction{}, domain.Reputation{}, err
	}
	outcome, ok := p.Outcome()
	if !ok {
		return domain.Prediction{}, domain.Reputation{}, fmt.Errorf("resolved prediction %d: %w", id, domain.ErrNotFound)
	}
	pos, err := repo.Position(ctx, participant, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Prediction{}, domain.Reputation{}, fmt.Errorf("no position on %d: %w", id, domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.Prediction{}, domain.Reputation{}, fmt.Errorf("load position: %w", err)
	}
	if !pos.Claimed {
		return domain.Prediction{}, domain.Reputation{}, fmt.Errorf("position on %d not claimed: %w", id, domain.ErrUnauthorized)
	}
	if pos.Side != outcome {
		return domain.Prediction{}, domain.Reputation{}, fmt.Errorf("prediction %d: %w", id, domain.ErrWrongOutcome)
	}
	_, err = repo.CertificationFor(ctx, participant, id)
	switch {
	case err == nil:
		return domain.Prediction{}, domain.Reputation{}, fmt.Errorf("certification for %s/%d: %w", participant, id, domain.ErrAlreadyExists)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Prediction{}, domain.Reputation{}, fmt.Errorf("load certification: %w", err)
	}

	rep, err := i.reputation.Get(ctx, repo, participant)
	if err != nil {
		return domain.Prediction{}, domain.Reputation{}, err
	}
	if rep.Score < i.params.ThresholdScore() {
		return domain.Prediction{}, domain.Reputation{}, fmt.Errorf("score %d below %d: %w", rep.Score, i.params.ThresholdScore(), domain.ErrThresholdNotMet)
	}
	return p, rep, nil
}

// Reserve valida a emissão e avança o contador de certificações. Deve rodar numa
// transação própria: o id reservado nunca volta, mesmo que a emissão falhe depois
// de o registro externo já ter gravado a posse.
func (i *Issuer) Reserve(ctx context.Context, repo Repo, participant domain.Principal, id domain.PredictionID, uri string) (domain.CertificationID, error) {
	if _, _, err := i.check(ctx, repo, participant, id, uri); err != nil {
		return 0, err
	}
	next, err := repo.NextID(ctx, domain.SeqCertification)
	if err != nil {
		return 0, fmt.Errorf("next certification id: %w", err)
	}
	return domain.CertificationID(next), nil
}

// Mint emite a certificação certID (obtido com Reserve) para um claim correto.
// As condições são revalidadas; o registro externo é chamado antes de gravar os
// metadados e, se falhar, a transação inteira é descartada.
func (i *Issuer) Mint(ctx context.Context, repo Repo, certs domain.CertificationStore, height uint64, participant domain.Principal, id domain.PredictionID, uri string, certID domain.CertificationID) (domain.Certification, error) {
	p, rep, err := i.check(ctx, repo, participant, id, uri)
	if err != nil {
		return domain.Certification{}, err
	}
	c := domain.Certification{
		ID:            certID,
		PredictionID:  id,
		Creator:       participant,
		AccuracyScore: rep.Score,
		Domain:        p.Domain,
		IssuedHeight:  height,
		URI:           uri,
	}
	if err := certs.Issue(ctx, c.ID, participant); err != nil {
		return domain.Certification{}, fmt.Errorf("issue certification %d: %w", c.ID, err)
	}
	if err := repo.InsertCertification(ctx, c); err != nil {
		return domain.Certification{}, fmt.Errorf("insert certification: %w", err)
	}
	return c, nil
}

// Get lê os metadados de uma certificação
func (i *Issuer) Get(ctx context.Context, repo domain.CertificationRepo, id domain.CertificationID) (domain.Certification, error) {
	return repo.Certification(ctx, id)
}

// Transfer repassa a posse. Os metadados não mudam; quem valida caller == dono é o registro externo.
func (i *Issuer) Transfer(ctx context.Context, repo domain.CertificationRepo, certs domain.CertificationStore, caller domain.Principal, id domain.CertificationID, to domain.Principal) error {
	if caller == "" {
		return fmt.Errorf("caller required: %w", domain.ErrUnauthorized)
	}
	if to == "" {
		return fmt.Errorf("recipient required: %w", domain.ErrInvalidInput)
	}
	if _, err := repo.Certification(ctx, id); err != nil {
		return err
	}
	if err := certs.TransferOwnership(ctx, id, caller, to); err != nil {
		return fmt.Errorf("transfer certification %d: %w", id, err)
	}
	return nil
}
