package ledger

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	ledgerhttp "github.com/radieske/stake-predict-platform/internal/credit-ledger/http"
	"github.com/radieske/stake-predict-platform/internal/domain"
)

// memRepo é um ledger em memória com a mesma semântica do repo Postgres
type memRepo struct {
	mu       sync.Mutex
	balances map[domain.Principal]domain.Amount
	certs    map[domain.CertificationID]domain.Principal
	refs     map[string]bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		balances: map[domain.Principal]domain.Amount{},
		certs:    map[domain.CertificationID]domain.Principal{},
		refs:     map[string]bool{},
	}
}

func (m *memRepo) Balance(_ context.Context, p domain.Principal) (domain.Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[p], nil
}

func (m *memRepo) Mint(_ context.Context, to domain.Principal, amount domain.Amount, _ string) (domain.Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, err := m.balances[to].Add(amount)
	if err != nil {
		return domain.Amount{}, err
	}
	m.balances[to] = bal
	return bal, nil
}

func (m *memRepo) Transfer(_ context.Context, from, to domain.Principal, amount domain.Amount, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := string(from) + "/" + ref
	if ref != "" && m.refs[key] {
		return nil
	}
	debited, err := m.balances[from].Sub(amount)
	if err != nil {
		return domain.ErrInsufficientBalance
	}
	m.balances[from] = debited
	m.balances[to], _ = m.balances[to].Add(amount)
	if ref != "" {
		m.refs[key] = true
	}
	return nil
}

func (m *memRepo) IssueCertificate(_ context.Context, id domain.CertificationID, owner domain.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.certs[id]; ok {
		if cur == owner {
			return nil
		}
		return domain.ErrAlreadyExists
	}
	m.certs[id] = owner
	return nil
}

func (m *memRepo) TransferCertificate(_ context.Context, id domain.CertificationID, from, to domain.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.certs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if owner != from {
		return domain.ErrUnauthorized
	}
	m.certs[id] = to
	return nil
}

func (m *memRepo) Certificate(_ context.Context, id domain.CertificationID) (domain.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.certs[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return owner, nil
}

func newClient(t *testing.T) (*Client, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	srv := httptest.NewServer(ledgerhttp.NewServer(zap.NewNop(), repo).Router())
	t.Cleanup(srv.Close)
	return New(srv.URL), repo
}

func TestMintAndTransfer(t *testing.T) {
	c, repo := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.Mint(ctx, domain.NewAmount(500), "alice"))
	require.NoError(t, c.Transfer(ctx, domain.NewAmount(200), "alice", "escrow", "stake:1:1:200"))

	assert.Equal(t, "300", repo.balances["alice"].String())
	assert.Equal(t, "200", repo.balances["escrow"].String())
}

func TestTransferRefIsSentToTheLedger(t *testing.T) {
	c, repo := newClient(t)
	ctx := context.Background()
	require.NoError(t, c.Mint(ctx, domain.NewAmount(500), "alice"))

	// a mesma transferência reenviada (resposta perdida) não debita duas vezes
	require.NoError(t, c.Transfer(ctx, domain.NewAmount(200), "alice", "escrow", "stake:4:2:200"))
	require.NoError(t, c.Transfer(ctx, domain.NewAmount(200), "alice", "escrow", "stake:4:2:200"))

	assert.Equal(t, "300", repo.balances["alice"].String())
	assert.True(t, repo.refs["alice/stake:4:2:200"])
}

func TestTransferMapsInsufficientBalance(t *testing.T) {
	c, _ := newClient(t)
	err := c.Transfer(context.Background(), domain.NewAmount(1), "alice", "escrow", "")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestLargeAmountsSurviveTheWire(t *testing.T) {
	c, repo := newClient(t)
	big := domain.MustAmount("340282366920938463463374607431768211455")
	require.NoError(t, c.Mint(context.Background(), big, "whale"))
	assert.True(t, repo.balances["whale"].Equal(big))
}

func TestCertificateOwnership(t *testing.T) {
	c, repo := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.Issue(ctx, 1, "alice"))
	require.NoError(t, c.Issue(ctx, 1, "alice"), "reissuing to the same owner is a no-op")
	assert.ErrorIs(t, c.Issue(ctx, 1, "bob"), domain.ErrAlreadyExists)

	assert.ErrorIs(t, c.TransferOwnership(ctx, 1, "bob", "carol"), domain.ErrUnauthorized)
	assert.ErrorIs(t, c.TransferOwnership(ctx, 7, "alice", "carol"), domain.ErrNotFound)

	require.NoError(t, c.TransferOwnership(ctx, 1, "alice", "bob"))
	assert.Equal(t, domain.Principal("bob"), repo.certs[1])
}
