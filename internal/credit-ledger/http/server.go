package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/stake-predict-platform/internal/credit-ledger/dto"
	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/shared/httpx"
)

// Repo define as operações do ledger usadas pelo handler HTTP
type Repo interface {
	Balance(ctx context.Context, principal domain.Principal) (domain.Amount, error)
	Mint(ctx context.Context, to domain.Principal, amount domain.Amount, externalRef string) (domain.Amount, error)
	Transfer(ctx context.Context, from, to domain.Principal, amount domain.Amount, externalRef string) error
	IssueCertificate(ctx context.Context, id domain.CertificationID, owner domain.Principal) error
	TransferCertificate(ctx context.Context, id domain.CertificationID, from, to domain.Principal) error
	Certificate(ctx context.Context, id domain.CertificationID) (domain.Principal, error)
}

// Server expõe o ledger de créditos e o registro de certificações
type Server struct {
	log      *zap.Logger
	repo     Repo
	validate *validator.Validate
}

func NewServer(log *zap.Logger, repo Repo) *Server {
	return &Server{log: log, repo: repo, validate: validator.New()}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/credits/balance", s.balance)     // GET ?principal=...
	r.Post("/credits/mint", s.mint)          // POST
	r.Post("/credits/transfer", s.transfer)  // POST
	r.Post("/certificates/issue", s.issue)   // POST
	r.Post("/certificates/transfer", s.move) // POST
	r.Get("/certificates/{id}", s.certificate)
	return r
}

// decode lê o JSON e aplica as tags de validação; responde 400/422 quando falha
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "BAD_JSON", "bad json")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		httpx.WriteProblem(w, http.StatusUnprocessableEntity, "INVALID_INPUT", err.Error())
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		s.log.Error(op+" failed", zap.Error(err))
	}
	httpx.WriteError(w, err)
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	principal := r.URL.Query().Get("principal")
	if principal == "" {
		httpx.WriteProblem(w, http.StatusBadRequest, "INVALID_INPUT", "principal required")
		return
	}
	bal, err := s.repo.Balance(r.Context(), domain.Principal(principal))
	if err != nil {
		s.fail(w, "balance", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.BalanceResponse{Principal: principal, Balance: bal})
}

func (s *Server) mint(w http.ResponseWriter, r *http.Request) {
	var req dto.MintRequest
	if !s.decode(w, r, &req) {
		return
	}
	bal, err := s.repo.Mint(r.Context(), domain.Principal(req.Principal), req.Amount, req.ExternalRef)
	if err != nil {
		s.fail(w, "mint", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.BalanceResponse{Principal: req.Principal, Balance: bal})
}

func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if !s.decode(w, r, &req) {
		return
	}
	err := s.repo.Transfer(r.Context(), domain.Principal(req.From), domain.Principal(req.To), req.Amount, req.ExternalRef)
	if err != nil {
		s.fail(w, "transfer", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.StatusResponse{Status: "TRANSFERRED"})
}

func (s *Server) issue(w http.ResponseWriter, r *http.Request) {
	var req dto.IssueCertificateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.repo.IssueCertificate(r.Context(), domain.CertificationID(req.ID), domain.Principal(req.Owner)); err != nil {
		s.fail(w, "issue certificate", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, dto.CertificateResponse{ID: req.ID, Owner: req.Owner})
}

func (s *Server) move(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferCertificateRequest
	if !s.decode(w, r, &req) {
		return
	}
	err := s.repo.TransferCertificate(r.Context(), domain.CertificationID(req.ID), domain.Principal(req.From), domain.Principal(req.To))
	if err != nil {
		s.fail(w, "transfer certificate", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.CertificateResponse{ID: req.ID, Owner: req.To})
}

func (s *Server) certificate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "INVALID_INPUT", "invalid id")
		return
	}
	owner, err := s.repo.Certificate(r.Context(), domain.CertificationID(id))
	if err != nil {
		s.fail(w, "certificate", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.CertificateResponse{ID: id, Owner: string(owner)})
}
