package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/engine"
	"github.com/radieske/stake-predict-platform/internal/shared/httpx"
)

// ParticipantHeader carrega a identidade já autenticada pelo gateway
const ParticipantHeader = "X-Participant-ID"

type ctxKey struct{}

// API expõe o engine via REST e o feed ao vivo via WebSocket
type API struct {
	log      *zap.Logger
	engine   *engine.Service
	feed     http.Handler // opcional
	validate *validator.Validate
}

func New(log *zap.Logger, svc *engine.Service, feed http.Handler) *API {
	return &API{log: log, engine: svc, feed: feed, validate: validator.New()}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, identity)

	if a.feed != nil {
		r.Handle("/ws", a.feed)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/platform", a.platform)
		r.Get("/treasury", a.treasury)
		r.Get("/predictions/{id}", a.getPrediction)
		r.Get("/predictions/{id}/payout", a.previewPayout)
		r.Get("/predictions/{id}/positions/{participant}", a.getPosition)
		r.Get("/certifications/{id}", a.getCertification)
		r.Get("/reputation/{participant}", a.getReputation)
		r.Get("/curators/{curator}", a.getCurator)

		// rotas que mudam estado exigem identidade
		r.Group(func(r chi.Router) {
			r.Use(requireIdentity)
			r.Post("/admin/initialize", a.initialize)
			r.Post("/admin/pause", a.pause)
			r.Post("/predictions", a.createPrediction)
			r.Post("/predictions/{id}/stakes", a.stake)
			r.Post("/predictions/{id}/resolve", a.resolve)
			r.Post("/predictions/{id}/claim", a.claim)
			r.Post("/predictions/{id}/certifications", a.mintCertification)
			r.Post("/predictions/{id}/reviews", a.review)
			r.Post("/certifications/{id}/transfer", a.transferCertification)
			r.Put("/curators/{curator}", a.setCurator)
		})
	})
	return r
}

// identity coloca o principal do header no contexto
func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(ParticipantHeader); id != "" {
			r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, domain.Principal(id)))
		}
		next.ServeHTTP(w, r)
	})
}

func requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if caller(r) == "" {
			httpx.WriteProblem(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+ParticipantHeader)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func caller(r *http.Request) domain.Principal {
	p, _ := r.Context().Value(ctxKey{}).(domain.Principal)
	return p
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "BAD_JSON", "bad json")
		return false
	}
	if err := a.validate.Struct(v); err != nil {
		httpx.WriteProblem(w, http.StatusUnprocessableEntity, "INVALID_INPUT", err.Error())
		return false
	}
	return true
}

// fail responde o erro; só 5xx vão para o log, o resto é erro do cliente
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		a.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	}
	httpx.WriteError(w, err)
}

func uintParam(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "INVALID_INPUT", "invalid "+name)
		return 0, false
	}
	return v, true
}
