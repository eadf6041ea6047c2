package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/engine"
	"github.com/radieske/stake-predict-platform/internal/height"
	"github.com/radieske/stake-predict-platform/internal/store/memory"
)

type ledger struct {
	mu       sync.Mutex
	balances map[domain.Principal]domain.Amount
	down     bool
}

func (l *ledger) Mint(_ context.Context, amount domain.Amount, to domain.Principal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[to], _ = l.balances[to].Add(amount)
	return nil
}

func (l *ledger) Transfer(_ context.Context, amount domain.Amount, from, to domain.Principal, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down {
		return errors.New("connection refused")
	}
	v, err := l.balances[from].Sub(amount)
	if err != nil {
		return domain.ErrInsufficientBalance
	}
	l.balances[from] = v
	l.balances[to], _ = l.balances[to].Add(amount)
	return nil
}

type certs struct{}

func (certs) Issue(context.Context, domain.CertificationID, domain.Principal) error { return nil }
func (certs) TransferOwnership(context.Context, domain.CertificationID, domain.Principal, domain.Principal) error {
	return nil
}

type fixture struct {
	srv     *httptest.Server
	ledger  *ledger
	heights *height.Manual
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ledger:  &ledger{balances: map[domain.Principal]domain.Amount{}},
		heights: height.NewManual(0),
	}
	svc := engine.New(zap.NewNop(), engine.Deps{
		Store:   memory.New(),
		Ledger:  f.ledger,
		Certs:   certs{},
		Heights: f.heights,
	}, engine.Config{Owner: "owner", Escrow: "escrow", Params: domain.DefaultParams()})

	f.srv = httptest.NewServer(New(zap.NewNop(), svc, nil).Router())
	t.Cleanup(f.srv.Close)

	for _, p := range []domain.Principal{"alice", "bob"} {
		require.NoError(t, f.ledger.Mint(context.Background(), domain.NewAmount(10_000_000), p))
	}
	return f
}

// do executa a requisição e devolve status e corpo decodificado
func (f *fixture) do(t *testing.T, method, path, who, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if who != "" {
		req.Header.Set(ParticipantHeader, who)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res.StatusCode, out
}

func TestMutationsRequireIdentity(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, http.MethodPost, "/v1/predictions", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestPausedUntilInitialized(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, http.MethodPost, "/v1/predictions", "creator",
		`{"title":"t","description":"d","domain":"x","duration":10}`)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "PAUSED", body["code"])

	status, body = f.do(t, http.MethodPost, "/v1/admin/initialize", "mallory", ``)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	status, body = f.do(t, http.MethodPost, "/v1/admin/initialize", "owner", ``)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["initialized"])

	status, _ = f.do(t, http.MethodPost, "/v1/admin/initialize", "owner", ``)
	assert.Equal(t, http.StatusConflict, status)
}

func TestPredictionLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)
	status, _ := f.do(t, http.MethodPost, "/v1/admin/initialize", "owner", ``)
	require.Equal(t, http.StatusOK, status)

	status, body := f.do(t, http.MethodPost, "/v1/predictions", "creator",
		`{"title":"Will it rain","description":"At noon","domain":"weather","duration":10}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 1.0, body["id"])
	assert.Equal(t, 10.0, body["end_height"])

	status, body = f.do(t, http.MethodPost, "/v1/predictions/1/stakes", "alice", `{"side":"yes","amount":"1000000"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1000000", body["position"].(map[string]any)["stake_amount"])

	status, _ = f.do(t, http.MethodPost, "/v1/predictions/1/stakes", "bob", `{"side":"no","amount":3000000}`)
	require.Equal(t, http.StatusOK, status)

	status, body = f.do(t, http.MethodPost, "/v1/predictions/1/stakes", "alice", `{"side":"no","amount":"1000000"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "SIDE_MISMATCH", body["code"])

	status, body = f.do(t, http.MethodPost, "/v1/predictions/1/stakes", "alice", `{"side":"yes","amount":"5"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INSUFFICIENT_STAKE", body["code"])

	status, body = f.do(t, http.MethodPost, "/v1/predictions/1/resolve", "creator", `{"outcome":true}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "STILL_OPEN", body["code"])

	f.heights.Set(10)
	status, body = f.do(t, http.MethodGet, "/v1/predictions/1", "", ``)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "CLOSED", body["status"])
	assert.Nil(t, body["outcome"])

	status, body = f.do(t, http.MethodPost, "/v1/predictions/1/resolve", "creator", `{"outcome":true}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["outcome"])

	status, body = f.do(t, http.MethodGet, "/v1/predictions/1/payout?participant=alice", "", ``)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "3850000", body["reward"])

	status, body = f.do(t, http.MethodPost, "/v1/predictions/1/claim", "alice", ``)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "3850000", body["reward"])
	assert.Equal(t, "150000", body["treasury"])

	status, body = f.do(t, http.MethodPost, "/v1/predictions/1/claim", "bob", ``)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "WRONG_SIDE", body["code"])

	status, body = f.do(t, http.MethodGet, "/v1/predictions/1/positions/alice", "", ``)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["claimed"])
	assert.Equal(t, "yes", body["side"])

	status, body = f.do(t, http.MethodGet, "/v1/reputation/alice", "", ``)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["correct_count"])

	status, body = f.do(t, http.MethodGet, "/v1/treasury", "", ``)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "150000", body["treasury"])
}

func TestClaimTransferFailureIsBadGateway(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/v1/admin/initialize", "owner", ``)
	f.do(t, http.MethodPost, "/v1/predictions", "creator",
		`{"title":"t","description":"d","domain":"x","duration":1}`)
	status, _ := f.do(t, http.MethodPost, "/v1/predictions/1/stakes", "alice", `{"side":"yes","amount":"1000000"}`)
	require.Equal(t, http.StatusOK, status)
	f.heights.Set(1)
	status, _ = f.do(t, http.MethodPost, "/v1/predictions/1/resolve", "creator", `{"outcome":true}`)
	require.Equal(t, http.StatusOK, status)

	f.ledger.down = true
	status, body := f.do(t, http.MethodPost, "/v1/predictions/1/claim", "alice", ``)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "TRANSFER_FAILED", body["code"])
}

func TestValidationErrors(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodPost, "/v1/predictions", "creator", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "BAD_JSON", body["code"])

	status, body = f.do(t, http.MethodPost, "/v1/predictions/1/stakes", "alice", `{"side":"maybe","amount":"1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_INPUT", body["code"])

	status, _ = f.do(t, http.MethodPost, "/v1/predictions/1/resolve", "creator", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = f.do(t, http.MethodGet, "/v1/predictions/abc", "", ``)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = f.do(t, http.MethodGet, "/v1/predictions/99", "", ``)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestCuratorRoutes(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/v1/admin/initialize", "owner", ``)

	status, _ := f.do(t, http.MethodPut, "/v1/curators/cora", "alice", `{"verified":true}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := f.do(t, http.MethodPut, "/v1/curators/cora", "owner", `{"verified":true}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["verified"])

	status, body = f.do(t, http.MethodGet, "/v1/curators/cora", "", ``)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["verified"])
}
