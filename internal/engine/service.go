package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/stake-predict-platform/internal/certification"
	"github.com/radieske/stake-predict-platform/internal/curation"
	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/market"
	"github.com/radieske/stake-predict-platform/internal/reputation"
	"github.com/radieske/stake-predict-platform/internal/settlement"
	"github.com/radieske/stake-predict-platform/internal/staking"
	"github.com/radieske/stake-predict-platform/pkg/contracts/events"
)

// Deps são os colaboradores externos do engine
type Deps struct {
	Store   domain.Store
	Ledger  domain.CreditLedger
	Certs   domain.CertificationStore
	Heights domain.HeightSource
	Events  domain.EventSink // opcional
}

// Config identifica o owner da plataforma e a conta que custodia as apostas
type Config struct {
	Owner  domain.Principal
	Escrow domain.Principal
	Params domain.Params
}

// Service orquestra os componentes: cada operação roda numa transação do
// store, relê as pré-condições lá dentro e só emite eventos após o commit.
type Service struct {
	log  *zap.Logger
	deps Deps
	cfg  Config

	markets  *market.Registry
	stakes   *staking.Ledger
	settle   *settlement.Engine
	rep      *reputation.Engine
	issuer   *certification.Issuer
	curation *curation.Registry

	// OnOperation recebe (op, resultado) de cada chamada; resultado é "OK" ou o código do erro
	OnOperation func(op, result string)
	// OnTransferFailure é chamado quando o pagamento de um claim falha após o commit
	OnTransferFailure func()
}

func New(log *zap.Logger, deps Deps, cfg Config) *Service {
	rep := reputation.New(cfg.Params)
	return &Service{
		log:      log,
		deps:     deps,
		cfg:      cfg,
		markets:  market.NewRegistry(cfg.Params),
		stakes:   staking.NewLedger(cfg.Params, rep),
		settle:   settlement.NewEngine(cfg.Params, rep),
		rep:      rep,
		issuer:   certification.NewIssuer(cfg.Params, rep),
		curation: curation.NewRegistry(cfg.Params),
	}
}

func (s *Service) observe(op string, err error) {
	if s.OnOperation == nil {
		return
	}
	result := "OK"
	if err != nil {
		result = domain.Code(err)
	}
	s.OnOperation(op, result)
}

// mutate roda fn numa transação depois de checar as flags administrativas
func (s *Service) mutate(ctx context.Context, fn func(tx domain.Tx) error) error {
	return s.mutateAt(ctx, func(tx domain.Tx, _ uint64) error { return fn(tx) })
}

// mutateAt lê a altura já dentro da transação, depois de obtidos os locks,
// para que a checagem de prazo use a altura do momento da escrita
func (s *Service) mutateAt(ctx context.Context, fn func(tx domain.Tx, height uint64) error) error {
	return s.deps.Store.Atomic(ctx, func(tx domain.Tx) error {
		st, err := tx.Platform(ctx)
		if err != nil {
			return fmt.Errorf("load platform state: %w", err)
		}
		if !st.Initialized {
			return fmt.Errorf("platform not initialized: %w", domain.ErrPaused)
		}
		if st.Paused {
			return domain.ErrPaused
		}
		return fn(tx, s.deps.Heights.CurrentHeight())
	})
}

func (s *Service) emit(ctx context.Context, t events.Type, id domain.PredictionID, height uint64, payload any) {
	if s.deps.Events == nil {
		return
	}
	env, err := events.New(t, uint64(id), height, payload)
	if err == nil {
		err = s.deps.Events.Publish(ctx, env)
	}
	if err != nil {
		s.log.Warn("event publish failed",
			zap.String("type", string(t)),
			zap.Uint64("prediction_id", uint64(id)),
			zap.Error(err))
	}
}

// Initialize habilita a plataforma (somente owner, uma única vez)
func (s *Service) Initialize(ctx context.Context, caller domain.Principal) (err error) {
	defer func() { s.observe("initialize", err) }()
	return s.deps.Store.Atomic(ctx, func(tx domain.Tx) error {
		if err := (domain.Grant{Owner: s.cfg.Owner}).Require(caller, domain.RoleOwner); err != nil {
			return err
		}
		st, err := tx.Platform(ctx)
		if err != nil {
			return fmt.Errorf("load platform state: %w", err)
		}
		if st.Initialized {
			return domain.ErrAlreadyInitialized
		}
		st.Initialized = true
		return tx.PutPlatform(ctx, st)
	})
}

// SetPaused liga ou desliga a pausa (somente owner)
func (s *Service) SetPaused(ctx context.Context, caller domain.Principal, paused bool) (err error) {
	defer func() { s.observe("set_paused", err) }()
	err = s.deps.Store.Atomic(ctx, func(tx domain.Tx) error {
		if err := (domain.Grant{Owner: s.cfg.Owner}).Require(caller, domain.RoleOwner); err != nil {
			return err
		}
		st, err := tx.Platform(ctx)
		if err != nil {
			return fmt.Errorf("load platform state: %w", err)
		}
		st.Paused = paused
		return tx.PutPlatform(ctx, st)
	})
	if err == nil {
		s.log.Info("platform pause changed", zap.Bool("paused", paused), zap.String("caller", string(caller)))
	}
	return err
}

func (s *Service) Create(ctx context.Context, creator domain.Principal, in market.CreateInput) (p domain.Prediction, err error) {
	defer func() { s.observe("create", err) }()
	var h uint64
	err = s.mutateAt(ctx, func(tx domain.Tx, height uint64) error {
		var err error
		h = height
		p, err = s.markets.Create(ctx, tx, h, creator, in)
		return err
	})
	if err != nil {
		return domain.Prediction{}, err
	}
	s.emit(ctx, events.TypePredictionCreated, p.ID, h, events.PredictionCreated{
		PredictionID: uint64(p.ID),
		Creator:      string(p.Creator),
		Title:        p.Title,
		Domain:       p.Domain,
		EndHeight:    p.EndHeight,
	})
	return p, nil
}

// Stake registra a aposta e debita o participante na mesma transação.
// Se o débito falhar, nada é confirmado.
func (s *Service) Stake(ctx context.Context, participant domain.Principal, id domain.PredictionID, side domain.Side, amount domain.Amount) (res staking.Result, err error) {
	defer func() { s.observe("stake", err) }()
	var h uint64
	err = s.mutateAt(ctx, func(tx domain.Tx, height uint64) error {
		var err error
		h = height
		if res, err = s.stakes.Stake(ctx, tx, h, participant, id, side, amount); err != nil {
			return err
		}
		ref := StakeRef(id, res.Reputation.PredictionsCount, amount)
		if err := s.deps.Ledger.Transfer(ctx, amount, participant, s.cfg.Escrow, ref); err != nil {
			s.log.Warn("stake debit failed",
				zap.Uint64("prediction_id", uint64(id)),
				zap.String("participant", string(participant)),
				zap.String("amount", amount.String()),
				zap.String("ref", ref),
				zap.Error(err))
			return fmt.Errorf("debit stake: %w", err)
		}
		return nil
	})
	if err != nil {
		return staking.Result{}, err
	}
	s.emit(ctx, events.TypeStakePlaced, id, h, events.StakePlaced{
		PredictionID:  uint64(id),
		Participant:   string(participant),
		Side:          side,
		Amount:        amount.String(),
		PositionTotal: res.Position.StakeAmount.String(),
		StakeYesTotal: res.Prediction.StakeYesTotal.String(),
		StakeNoTotal:  res.Prediction.StakeNoTotal.String(),
	})
	return res, nil
}

// Resolve grava o resultado (criador ou owner, após o fim)
func (s *Service) Resolve(ctx context.Context, caller domain.Principal, id domain.PredictionID, outcome bool) (p domain.Prediction, err error) {
	defer func() { s.observe("resolve", err) }()
	var h uint64
	err = s.mutateAt(ctx, func(tx domain.Tx, height uint64) error {
		var err error
		h = height
		p, err = s.markets.Resolve(ctx, tx, h, caller, s.cfg.Owner, id, outcome)
		return err
	})
	if err != nil {
		return domain.Prediction{}, err
	}
	s.emit(ctx, events.TypePredictionResolved, id, h, events.PredictionResolved{
		PredictionID:   uint64(id),
		Resolver:       string(caller),
		Outcome:        outcome,
		ResolvedHeight: h,
	})
	return p, nil
}

// Claim liquida localmente e só depois transfere o prêmio. Uma falha na
// transferência não desfaz o claim: retorna ErrTransferFailed e fica registrada
// para reconciliação manual.
func (s *Service) Claim(ctx context.Context, participant domain.Principal, id domain.PredictionID) (st settlement.Settled, err error) {
	defer func() { s.observe("claim", err) }()
	var h uint64
	err = s.mutateAt(ctx, func(tx domain.Tx, height uint64) error {
		var err error
		h = height
		st, err = s.settle.Claim(ctx, tx, participant, id)
		return err
	})
	if err != nil {
		return settlement.Settled{}, err
	}

	status := events.TransferSettled
	ref := ClaimRef(id, participant)
	if terr := s.deps.Ledger.Transfer(ctx, st.Payout.Reward, s.cfg.Escrow, participant, ref); terr != nil {
		status = events.TransferFailed
		s.log.Error("reward transfer failed",
			zap.Bool("reconcile", true),
			zap.Uint64("prediction_id", uint64(id)),
			zap.String("participant", string(participant)),
			zap.String("amount", st.Payout.Reward.String()),
			zap.String("escrow", string(s.cfg.Escrow)),
			zap.String("ref", ref),
			zap.Error(terr))
		if s.OnTransferFailure != nil {
			s.OnTransferFailure()
		}
		err = fmt.Errorf("%w: %w", domain.ErrTransferFailed, terr)
	}
	s.emit(ctx, events.TypeRewardsClaimed, id, h, events.RewardsClaimed{
		PredictionID:   uint64(id),
		Participant:    string(participant),
		Reward:         st.Payout.Reward.String(),
		Fee:            st.Payout.FeeShare.String(),
		TransferStatus: status,
		Score:          st.Reputation.Score,
	})
	return st, err
}

// MintCertification emite a certificação de acerto do participante. O id é
// reservado numa transação própria antes de chamar o registro externo, então
// uma emissão com resposta perdida só deixa um id sem metadados para trás.
func (s *Service) MintCertification(ctx context.Context, participant domain.Principal, id domain.PredictionID, uri string) (c domain.Certification, err error) {
	defer func() { s.observe("mint_certification", err) }()
	var certID domain.CertificationID
	err = s.mutate(ctx, func(tx domain.Tx) error {
		var err error
		certID, err = s.issuer.Reserve(ctx, tx, participant, id, uri)
		return err
	})
	if err != nil {
		return domain.Certification{}, err
	}

	var h uint64
	err = s.mutateAt(ctx, func(tx domain.Tx, height uint64) error {
		var err error
		h = height
		c, err = s.issuer.Mint(ctx, tx, s.deps.Certs, h, participant, id, uri, certID)
		return err
	})
	if err != nil {
		s.log.Warn("certification issue failed",
			zap.Uint64("certification_id", uint64(certID)),
			zap.Uint64("prediction_id", uint64(id)),
			zap.String("participant", string(participant)),
			zap.Error(err))
		return domain.Certification{}, err
	}
	s.emit(ctx, events.TypeCertificationIssued, id, h, events.CertificationIssued{
		CertificationID: uint64(c.ID),
		PredictionID:    uint64(id),
		Owner:           string(participant),
		AccuracyScore:   c.AccuracyScore,
		Domain:          c.Domain,
		URI:             c.URI,
	})
	return c, nil
}

func (s *Service) TransferCertification(ctx context.Context, caller domain.Principal, id domain.CertificationID, to domain.Principal) (err error) {
	defer func() { s.observe("transfer_certification", err) }()
	return s.mutate(ctx, func(tx domain.Tx) error {
		return s.issuer.Transfer(ctx, tx, s.deps.Certs, caller, id, to)
	})
}

func (s *Service) SetCuratorVerified(ctx context.Context, caller, curator domain.Principal, verified bool) (c domain.CuratorRecord, err error) {
	defer func() { s.observe("set_curator", err) }()
	err = s.mutate(ctx, func(tx domain.Tx) error {
		var err error
		c, err = s.curation.SetVerified(ctx, tx, caller, s.cfg.Owner, curator, verified)
		return err
	})
	return c, err
}

func (s *Service) Review(ctx context.Context, curator domain.Principal, id domain.PredictionID, score uint8) (t domain.QualityTally, err error) {
	defer func() { s.observe("review", err) }()
	err = s.mutate(ctx, func(tx domain.Tx) error {
		var err error
		t, err = s.curation.Review(ctx, tx, curator, id, score)
		return err
	})
	return t, err
}

// StakeRef identifica o débito de uma aposta no ledger. predictionsCount já
// inclui a aposta corrente; se a transação local for desfeita o contador volta
// e um novo envio idêntico reaproveita o mesmo ref.
func StakeRef(id domain.PredictionID, predictionsCount uint64, amount domain.Amount) string {
	return fmt.Sprintf("stake:%d:%d:%s", id, predictionsCount, amount)
}

// ClaimRef identifica o pagamento de um claim (um por participante e previsão)
func ClaimRef(id domain.PredictionID, participant domain.Principal) string {
	return fmt.Sprintf("claim:%d:%s", id, participant)
}
