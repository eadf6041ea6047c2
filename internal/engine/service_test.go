package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/height"
	"github.com/radieske/stake-predict-platform/internal/market"
	"github.com/radieske/stake-predict-platform/internal/store/memory"
	"github.com/radieske/stake-predict-platform/pkg/contracts/events"
)

type fakeLedger struct {
	mu       sync.Mutex
	balances map[domain.Principal]domain.Amount
	failTo   domain.Principal
	refs     []string
}

func (l *fakeLedger) Mint(_ context.Context, amount domain.Amount, to domain.Principal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, err := l.balances[to].Add(amount)
	if err != nil {
		return err
	}
	l.balances[to] = v
	return nil
}

func (l *fakeLedger) Transfer(_ context.Context, amount domain.Amount, from, to domain.Principal, ref string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refs = append(l.refs, ref)
	if to == l.failTo {
		return errors.New("ledger unavailable")
	}
	v, err := l.balances[from].Sub(amount)
	if err != nil {
		return domain.ErrInsufficientBalance
	}
	l.balances[from] = v
	l.balances[to], _ = l.balances[to].Add(amount)
	return nil
}

func (l *fakeLedger) balance(p domain.Principal) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[p].String()
}

type fakeCerts struct {
	mu     sync.Mutex
	owners map[domain.CertificationID]domain.Principal
	lost   error // grava e ainda assim falha
}

func (f *fakeCerts) Issue(_ context.Context, id domain.CertificationID, owner domain.Principal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.owners[id]; ok && cur != owner {
		return domain.ErrAlreadyExists
	}
	f.owners[id] = owner
	return f.lost
}

func (f *fakeCerts) TransferOwnership(_ context.Context, id domain.CertificationID, from, to domain.Principal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.owners[id] != from {
		return domain.ErrUnauthorized
	}
	f.owners[id] = to
	return nil
}

type sink struct {
	mu  sync.Mutex
	got []events.Envelope
}

func (s *sink) Publish(_ context.Context, e events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, e)
	return nil
}

func (s *sink) types() []events.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Type, 0, len(s.got))
	for _, e := range s.got {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	svc     *Service
	ledger  *fakeLedger
	certs   *fakeCerts
	sink    *sink
	heights *height.Manual
	ops     map[string]int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		ledger:  &fakeLedger{balances: make(map[domain.Principal]domain.Amount)},
		certs:   &fakeCerts{owners: make(map[domain.CertificationID]domain.Principal)},
		sink:    &sink{},
		heights: height.NewManual(0),
		ops:     make(map[string]int),
	}
	h.svc = New(zap.NewNop(), Deps{
		Store:   memory.New(),
		Ledger:  h.ledger,
		Certs:   h.certs,
		Heights: h.heights,
		Events:  h.sink,
	}, Config{Owner: "owner", Escrow: "escrow", Params: domain.DefaultParams()})
	h.svc.OnOperation = func(op, result string) { h.ops[op+":"+result]++ }

	ctx := context.Background()
	require.NoError(t, h.svc.Initialize(ctx, "owner"))
	for _, p := range []domain.Principal{"alice", "bob", "carol"} {
		require.NoError(t, h.ledger.Mint(ctx, domain.NewAmount(10_000_000), p))
	}
	return h
}

func (h *harness) create(t *testing.T) domain.Prediction {
	t.Helper()
	p, err := h.svc.Create(context.Background(), "creator", market.CreateInput{
		Title: "Will it rain", Description: "At noon", Domain: "weather", Duration: 10,
	})
	require.NoError(t, err)
	return p
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := h.create(t)

	_, err := h.svc.Stake(ctx, "alice", p.ID, domain.SideYes, domain.NewAmount(1_000_000))
	require.NoError(t, err)
	_, err = h.svc.Stake(ctx, "bob", p.ID, domain.SideNo, domain.NewAmount(3_000_000))
	require.NoError(t, err)
	assert.Equal(t, "4000000", h.ledger.balance("escrow"))
	assert.Equal(t, "9000000", h.ledger.balance("alice"))

	_, err = h.svc.Resolve(ctx, "creator", p.ID, true)
	assert.ErrorIs(t, err, domain.ErrStillOpen)

	h.heights.Set(10)
	view, err := h.svc.Prediction(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, view.Status)

	_, err = h.svc.Stake(ctx, "carol", p.ID, domain.SideYes, domain.NewAmount(1_000_000))
	assert.ErrorIs(t, err, domain.ErrMarketClosed)

	_, err = h.svc.Resolve(ctx, "creator", p.ID, true)
	require.NoError(t, err)
	_, err = h.svc.Resolve(ctx, "creator", p.ID, false)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)

	preview, err := h.svc.PreviewPayout(ctx, "alice", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "3850000", preview.Reward.String())

	st, err := h.svc.Claim(ctx, "alice", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "3850000", st.Payout.Reward.String())
	assert.Equal(t, "12850000", h.ledger.balance("alice"))
	assert.Equal(t, "150000", h.ledger.balance("escrow"))

	treasury, err := h.svc.Treasury(ctx)
	require.NoError(t, err)
	assert.Equal(t, "150000", treasury.String())

	_, err = h.svc.Claim(ctx, "alice", p.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
	_, err = h.svc.Claim(ctx, "bob", p.ID)
	assert.ErrorIs(t, err, domain.ErrWrongSide)

	// 1 aposta, 1 acerto: score 6666 < 8000
	_, err = h.svc.MintCertification(ctx, "alice", p.ID, "ipfs://alice")
	assert.ErrorIs(t, err, domain.ErrThresholdNotMet)

	assert.Equal(t, []events.Type{
		events.TypePredictionCreated,
		events.TypeStakePlaced,
		events.TypeStakePlaced,
		events.TypePredictionResolved,
		events.TypeRewardsClaimed,
	}, h.sink.types())
	assert.Equal(t, 1, h.ops["claim:OK"])
	assert.Equal(t, 1, h.ops["claim:ALREADY_CLAIMED"])
}

func TestCertificationAfterThreeWins(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	for i := 0; i < 3; i++ {
		p := h.create(t)
		_, err := h.svc.Stake(ctx, "alice", p.ID, domain.SideYes, domain.NewAmount(1_000_000))
		require.NoError(t, err)
		h.heights.Advance(10)
		_, err = h.svc.Resolve(ctx, "owner", p.ID, true)
		require.NoError(t, err)
		_, err = h.svc.Claim(ctx, "alice", p.ID)
		require.NoError(t, err)
	}

	rep, err := h.svc.Reputation(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint16(8000), rep.Score)

	c, err := h.svc.MintCertification(ctx, "alice", 3, "ipfs://alice")
	require.NoError(t, err)
	assert.Equal(t, domain.CertificationID(1), c.ID)
	assert.Equal(t, domain.Principal("alice"), h.certs.owners[c.ID])

	require.NoError(t, h.svc.TransferCertification(ctx, "alice", c.ID, "dave"))
	assert.Equal(t, domain.Principal("dave"), h.certs.owners[c.ID])
	assert.ErrorIs(t, h.svc.TransferCertification(ctx, "alice", c.ID, "erin"), domain.ErrUnauthorized)
}

func TestStakeRollsBackWhenDebitFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := h.create(t)

	_, err := h.svc.Stake(ctx, "zoe", p.ID, domain.SideYes, domain.NewAmount(1_000_000))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	_, err = h.svc.Position(ctx, "zoe", p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	view, err := h.svc.Prediction(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, view.Prediction.StakeYesTotal.IsZero())
	rep, err := h.svc.Reputation(ctx, "zoe")
	require.NoError(t, err)
	assert.Zero(t, rep.PredictionsCount)
}

func TestClaimTransferFailureKeepsClaim(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	var failures int
	h.svc.OnTransferFailure = func() { failures++ }

	p := h.create(t)
	_, err := h.svc.Stake(ctx, "alice", p.ID, domain.SideYes, domain.NewAmount(1_000_000))
	require.NoError(t, err)
	h.heights.Set(10)
	_, err = h.svc.Resolve(ctx, "creator", p.ID, true)
	require.NoError(t, err)

	h.ledger.failTo = "alice"
	st, err := h.svc.Claim(ctx, "alice", p.ID)
	assert.ErrorIs(t, err, domain.ErrTransferFailed)
	assert.Equal(t, "TRANSFER_FAILED", domain.Code(err))
	assert.True(t, st.Position.Claimed)
	assert.Equal(t, 1, failures)

	// sem retry automático: o claim já está marcado
	h.ledger.failTo = ""
	_, err = h.svc.Claim(ctx, "alice", p.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)

	var claimed events.RewardsClaimed
	last := h.sink.got[len(h.sink.got)-1]
	require.NoError(t, last.Decode(&claimed))
	assert.Equal(t, events.TransferFailed, claimed.TransferStatus)
}

func TestAdminFlags(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	assert.ErrorIs(t, h.svc.Initialize(ctx, "owner"), domain.ErrAlreadyInitialized)
	assert.ErrorIs(t, h.svc.SetPaused(ctx, "alice", true), domain.ErrUnauthorized)

	p := h.create(t)
	require.NoError(t, h.svc.SetPaused(ctx, "owner", true))

	_, err := h.svc.Stake(ctx, "alice", p.ID, domain.SideYes, domain.NewAmount(1_000_000))
	assert.ErrorIs(t, err, domain.ErrPaused)
	_, err = h.svc.Create(ctx, "alice", market.CreateInput{Title: "t", Description: "d", Domain: "x", Duration: 1})
	assert.ErrorIs(t, err, domain.ErrPaused)

	// leituras continuam funcionando
	_, err = h.svc.Prediction(ctx, p.ID)
	assert.NoError(t, err)

	require.NoError(t, h.svc.SetPaused(ctx, "owner", false))
	_, err = h.svc.Stake(ctx, "alice", p.ID, domain.SideYes, domain.NewAmount(1_000_000))
	assert.NoError(t, err)
}

func TestUninitializedPlatformRejectsWrites(t *testing.T) {
	svc := New(zap.NewNop(), Deps{
		Store:   memory.New(),
		Ledger:  &fakeLedger{balances: make(map[domain.Principal]domain.Amount)},
		Certs:   &fakeCerts{owners: make(map[domain.CertificationID]domain.Principal)},
		Heights: height.NewManual(0),
	}, Config{Owner: "owner", Escrow: "escrow", Params: domain.DefaultParams()})

	_, err := svc.Create(context.Background(), "alice", market.CreateInput{Title: "t", Description: "d", Domain: "x", Duration: 1})
	assert.ErrorIs(t, err, domain.ErrPaused)
}

func TestCurationThroughService(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := h.create(t)

	_, err := h.svc.Review(ctx, "carol", p.ID, 90)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = h.svc.SetCuratorVerified(ctx, "owner", "carol", true)
	require.NoError(t, err)
	_, err = h.svc.Review(ctx, "carol", p.ID, 90)
	require.NoError(t, err)

	view, err := h.svc.Prediction(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint8(90), view.Quality)
	assert.Equal(t, uint8(50), view.Prediction.QualityScore)

	c, err := h.svc.Curator(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.ReviewsCount)
}

// lockWait simula a espera por locks: a altura avança enquanto a transação aguarda
type lockWait struct {
	domain.Store
	heights *height.Manual
	to      uint64
}

func (l lockWait) Atomic(ctx context.Context, fn func(tx domain.Tx) error) error {
	return l.Store.Atomic(ctx, func(tx domain.Tx) error {
		l.heights.Set(l.to)
		return fn(tx)
	})
}

func TestStakeUsesHeightReadInsideTransaction(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := h.create(t)

	svc := New(zap.NewNop(), Deps{
		Store:   lockWait{Store: h.svc.deps.Store, heights: h.heights, to: p.EndHeight},
		Ledger:  h.ledger,
		Certs:   h.certs,
		Heights: h.heights,
	}, h.svc.cfg)

	_, err := svc.Stake(ctx, "alice", p.ID, domain.SideYes, domain.NewAmount(1_000_000))
	assert.ErrorIs(t, err, domain.ErrMarketClosed)
	assert.Equal(t, "10000000", h.ledger.balance("alice"))
}

func TestLedgerTransfersCarryDeterministicRefs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := h.create(t)

	h.ledger.failTo = "escrow"
	_, err := h.svc.Stake(ctx, "alice", p.ID, domain.SideYes, domain.NewAmount(1_000_000))
	require.Error(t, err)
	h.ledger.failTo = ""
	_, err = h.svc.Stake(ctx, "alice", p.ID, domain.SideYes, domain.NewAmount(1_000_000))
	require.NoError(t, err)
	_, err = h.svc.Stake(ctx, "alice", p.ID, domain.SideYes, domain.NewAmount(2_000_000))
	require.NoError(t, err)

	h.heights.Set(p.EndHeight)
	_, err = h.svc.Resolve(ctx, "creator", p.ID, true)
	require.NoError(t, err)
	_, err = h.svc.Claim(ctx, "alice", p.ID)
	require.NoError(t, err)

	// a tentativa desfeita e o reenvio usam o mesmo ref
	assert.Equal(t, []string{
		"stake:1:1:1000000",
		"stake:1:1:1000000",
		"stake:1:2:2000000",
		"claim:1:alice",
	}, h.ledger.refs)
}

func TestLostCertificationIssueDoesNotReuseID(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	for i := 0; i < 3; i++ {
		p := h.create(t)
		_, err := h.svc.Stake(ctx, "alice", p.ID, domain.SideYes, domain.NewAmount(1_000_000))
		require.NoError(t, err)
		h.heights.Advance(10)
		_, err = h.svc.Resolve(ctx, "owner", p.ID, true)
		require.NoError(t, err)
		_, err = h.svc.Claim(ctx, "alice", p.ID)
		require.NoError(t, err)
	}

	h.certs.lost = context.DeadlineExceeded
	_, err := h.svc.MintCertification(ctx, "alice", 3, "ipfs://alice")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	h.certs.lost = nil
	c, err := h.svc.MintCertification(ctx, "alice", 3, "ipfs://alice")
	require.NoError(t, err)
	assert.Equal(t, domain.CertificationID(2), c.ID)
	assert.Equal(t, map[domain.CertificationID]domain.Principal{1: "alice", 2: "alice"}, h.certs.owners)

	_, err = h.svc.MintCertification(ctx, "alice", 3, "ipfs://alice")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}
