package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/engine-service/dto"
	"github.com/radieske/stake-predict-platform/internal/market"
	"github.com/radieske/stake-predict-platform/internal/shared/httpx"
)

func (a *API) platform(w http.ResponseWriter, r *http.Request) {
	st, err := a.engine.Platform(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.PlatformResponse{Initialized: st.Initialized, Paused: st.Paused, Height: a.engine.Height()})
}

func (a *API) treasury(w http.ResponseWriter, r *http.Request) {
	t, err := a.engine.Treasury(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.TreasuryResponse{Treasury: t})
}

func (a *API) initialize(w http.ResponseWriter, r *http.Request) {
	if err := a.engine.Initialize(r.Context(), caller(r)); err != nil {
		a.fail(w, r, err)
		return
	}
	a.platform(w, r)
}

func (a *API) pause(w http.ResponseWriter, r *http.Request) {
	var req dto.PauseRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.engine.SetPaused(r.Context(), caller(r), *req.Paused); err != nil {
		a.fail(w, r, err)
		return
	}
	a.platform(w, r)
}

func (a *API) createPrediction(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePredictionRequest
	if !a.decode(w, r, &req) {
		return
	}
	p, err := a.engine.Create(r.Context(), caller(r), market.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Domain:      req.Domain,
		Duration:    req.Duration,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, dto.FromPrediction(p))
}

func (a *API) getPrediction(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	v, err := a.engine.Prediction(r.Context(), domain.PredictionID(id))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FromView(v))
}

func (a *API) stake(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	var req dto.StakeRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.engine.Stake(r.Context(), caller(r), domain.PredictionID(id), req.SideValue(), req.Amount)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.StakeResponse{
		Prediction: dto.FromPrediction(res.Prediction),
		Position:   dto.FromPosition(res.Position),
		Reputation: dto.FromReputation(res.Reputation),
	})
}

func (a *API) resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	var req dto.ResolveRequest
	if !a.decode(w, r, &req) {
		return
	}
	p, err := a.engine.Resolve(r.Context(), caller(r), domain.PredictionID(id), *req.Outcome)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FromPrediction(p))
}

// previewPayout usa ?participant= e, na falta dele, a identidade do header
func (a *API) previewPayout(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	participant := domain.Principal(r.URL.Query().Get("participant"))
	if participant == "" {
		participant = caller(r)
	}
	if participant == "" {
		httpx.WriteProblem(w, http.StatusBadRequest, "INVALID_INPUT", "participant required")
		return
	}
	p, err := a.engine.PreviewPayout(r.Context(), participant, domain.PredictionID(id))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FromPayout(p))
}

func (a *API) claim(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	st, err := a.engine.Claim(r.Context(), caller(r), domain.PredictionID(id))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.ClaimResponse{
		Reward:     st.Payout.Reward,
		Payout:     dto.FromPayout(st.Payout),
		Position:   dto.FromPosition(st.Position),
		Reputation: dto.FromReputation(st.Reputation),
		Treasury:   st.Treasury,
	})
}

func (a *API) getPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	pos, err := a.engine.Position(r.Context(), domain.Principal(chi.URLParam(r, "participant")), domain.PredictionID(id))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FromPosition(pos))
}

func (a *API) mintCertification(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	var req dto.MintCertificationRequest
	if !a.decode(w, r, &req) {
		return
	}
	c, err := a.engine.MintCertification(r.Context(), caller(r), domain.PredictionID(id), req.URI)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, dto.FromCertification(c))
}

func (a *API) getCertification(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	c, err := a.engine.Certification(r.Context(), domain.CertificationID(id))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FromCertification(c))
}

func (a *API) transferCertification(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	var req dto.TransferCertificationRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.engine.TransferCertification(r.Context(), caller(r), domain.CertificationID(id), domain.Principal(req.To)); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getReputation(w http.ResponseWriter, r *http.Request) {
	rep, err := a.engine.Reputation(r.Context(), domain.Principal(chi.URLParam(r, "participant")))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FromReputation(rep))
}

func (a *API) review(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	var req dto.ReviewRequest
	if !a.decode(w, r, &req) {
		return
	}
	t, err := a.engine.Review(r.Context(), caller(r), domain.PredictionID(id), *req.Score)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.TallyResponse{
		PredictionID: uint64(t.PredictionID), ReviewsCount: t.ReviewsCount, ScoreSum: t.ScoreSum,
	})
}

func (a *API) setCurator(w http.ResponseWriter, r *http.Request) {
	var req dto.CuratorRequest
	if !a.decode(w, r, &req) {
		return
	}
	c, err := a.engine.SetCuratorVerified(r.Context(), caller(r), domain.Principal(chi.URLParam(r, "curator")), *req.Verified)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FromCurator(c))
}

func (a *API) getCurator(w http.ResponseWriter, r *http.Request) {
	c, err := a.engine.Curator(r.Context(), domain.Principal(chi.URLParam(r, "curator")))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FromCurator(c))
}
