package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/radieske/stake-predict-platform/internal/domain"
)

// stubRepo responde valores fixos e registra a última chamada
type stubRepo struct {
	lastRef string
	err     error
}

func (s *stubRepo) Balance(context.Context, domain.Principal) (domain.Amount, error) {
	return domain.NewAmount(42), s.err
}

func (s *stubRepo) Mint(_ context.Context, _ domain.Principal, amount domain.Amount, ref string) (domain.Amount, error) {
	s.lastRef = ref
	return amount, s.err
}

func (s *stubRepo) Transfer(context.Context, domain.Principal, domain.Principal, domain.Amount, string) error {
	return s.err
}

func (s *stubRepo) IssueCertificate(context.Context, domain.CertificationID, domain.Principal) error {
	return s.err
}

func (s *stubRepo) TransferCertificate(context.Context, domain.CertificationID, domain.Principal, domain.Principal) error {
	return s.err
}

func (s *stubRepo) Certificate(context.Context, domain.CertificationID) (domain.Principal, error) {
	return "alice", s.err
}

func serve(repo Repo, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	NewServer(zap.NewNop(), repo).Router().ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestBalance(t *testing.T) {
	rec := serve(&stubRepo{}, http.MethodGet, "/credits/balance?principal=alice", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"principal":"alice","balance":"42"}`, rec.Body.String())

	rec = serve(&stubRepo{}, http.MethodGet, "/credits/balance", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMintPassesExternalRef(t *testing.T) {
	repo := &stubRepo{}
	rec := serve(repo, http.MethodPost, "/credits/mint", `{"principal":"alice","amount":"7","external_ref":"faucet-9"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "faucet-9", repo.lastRef)
}

func TestRequestValidation(t *testing.T) {
	rec := serve(&stubRepo{}, http.MethodPost, "/credits/transfer", `{"from":"alice","amount":"1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")

	rec = serve(&stubRepo{}, http.MethodPost, "/credits/transfer", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(&stubRepo{}, http.MethodPost, "/credits/mint", `{"principal":"alice","amount":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDomainErrorsKeepTheirCode(t *testing.T) {
	rec := serve(&stubRepo{err: domain.ErrInsufficientBalance}, http.MethodPost, "/credits/transfer",
		`{"from":"alice","to":"bob","amount":"1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "INSUFFICIENT_BALANCE")

	rec = serve(&stubRepo{err: domain.ErrNotFound}, http.MethodGet, "/certificates/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCertificateRoutes(t *testing.T) {
	rec := serve(&stubRepo{}, http.MethodPost, "/certificates/issue", `{"id":1,"owner":"alice"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(&stubRepo{}, http.MethodGet, "/certificates/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"owner":"alice"}`, rec.Body.String())

	rec = serve(&stubRepo{}, http.MethodGet, "/certificates/x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
