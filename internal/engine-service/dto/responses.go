package dto

import (
	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/engine"
	"github.com/radieske/stake-predict-platform/internal/settlement"
)

type PredictionResponse struct {
	ID             uint64        `json:"id"`
	Creator        string        `json:"creator"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Domain         string        `json:"domain"`
	CreatedHeight  uint64        `json:"created_height"`
	EndHeight      uint64        `json:"end_height"`
	StakeYesTotal  domain.Amount `json:"stake_yes_total"`
	StakeNoTotal   domain.Amount `json:"stake_no_total"`
	QualityScore   uint8         `json:"quality_score"`
	Outcome        *bool         `json:"outcome"`
	ResolvedHeight *uint64       `json:"resolved_height"`
	Status         string        `json:"status,omitempty"`
	Height         uint64        `json:"height,omitempty"`
}

func FromPrediction(p domain.Prediction) PredictionResponse {
	out := PredictionResponse{
		ID:            uint64(p.ID),
		Creator:       string(p.Creator),
		Title:         p.Title,
		Description:   p.Description,
		Domain:        p.Domain,
		CreatedHeight: p.CreatedHeight,
		EndHeight:     p.EndHeight,
		StakeYesTotal: p.StakeYesTotal,
		StakeNoTotal:  p.StakeNoTotal,
		QualityScore:  p.QualityScore,
	}
	if p.Resolution != nil {
		outcome, height := p.Resolution.Outcome, p.Resolution.Height
		out.Outcome, out.ResolvedHeight = &outcome, &height
	}
	return out
}

// FromView usa a qualidade curada no lugar da nota inicial
func FromView(v engine.PredictionView) PredictionResponse {
	out := FromPrediction(v.Prediction)
	out.QualityScore = v.Quality
	out.Status = string(v.Status)
	out.Height = v.Height
	return out
}

type PositionResponse struct {
	Participant  string        `json:"participant"`
	PredictionID uint64        `json:"prediction_id"`
	StakeAmount  domain.Amount `json:"stake_amount"`
	Side         string        `json:"side"`
	Claimed      bool          `json:"claimed"`
}

func FromPosition(p domain.Position) PositionResponse {
	side := "no"
	if p.Side {
		side = "yes"
	}
	return PositionResponse{
		Participant:  string(p.Participant),
		PredictionID: uint64(p.PredictionID),
		StakeAmount:  p.StakeAmount,
		Side:         side,
		Claimed:      p.Claimed,
	}
}

type ReputationResponse struct {
	Participant      string        `json:"participant"`
	PredictionsCount uint64        `json:"predictions_count"`
	CorrectCount     uint64        `json:"correct_count"`
	TotalStaked      domain.Amount `json:"total_staked"`
	TotalEarned      domain.Amount `json:"total_earned"`
	Score            uint16        `json:"score"`
}

func FromReputation(r domain.Reputation) ReputationResponse {
	return ReputationResponse{
		Participant:      string(r.Participant),
		PredictionsCount: r.PredictionsCount,
		CorrectCount:     r.CorrectCount,
		TotalStaked:      r.TotalStaked,
		TotalEarned:      r.TotalEarned,
		Score:            r.Score,
	}
}

type StakeResponse struct {
	Prediction PredictionResponse `json:"prediction"`
	Position   PositionResponse   `json:"position"`
	Reputation ReputationResponse `json:"reputation"`
}

type PayoutResponse struct {
	Reward   domain.Amount `json:"reward"`
	Fee      domain.Amount `json:"fee"`
	FeeShare domain.Amount `json:"fee_share"`
	Pool     domain.Amount `json:"pool"`
	Won      domain.Amount `json:"won"`
	Lost     domain.Amount `json:"lost"`
}

func FromPayout(p settlement.Payout) PayoutResponse {
	return PayoutResponse{Reward: p.Reward, Fee: p.Fee, FeeShare: p.FeeShare, Pool: p.Pool, Won: p.Won, Lost: p.Lost}
}

type ClaimResponse struct {
	Reward     domain.Amount      `json:"reward"`
	Payout     PayoutResponse     `json:"payout"`
	Position   PositionResponse   `json:"position"`
	Reputation ReputationResponse `json:"reputation"`
	Treasury   domain.Amount      `json:"treasury"`
}

type CertificationResponse struct {
	ID            uint64 `json:"id"`
	PredictionID  uint64 `json:"prediction_id"`
	Creator       string `json:"creator"`
	AccuracyScore uint16 `json:"accuracy_score"`
	Domain        string `json:"domain"`
	IssuedHeight  uint64 `json:"issued_height"`
	URI           string `json:"uri"`
}

func FromCertification(c domain.Certification) CertificationResponse {
	return CertificationResponse{
		ID:            uint64(c.ID),
		PredictionID:  uint64(c.PredictionID),
		Creator:       string(c.Creator),
		AccuracyScore: c.AccuracyScore,
		Domain:        c.Domain,
		IssuedHeight:  c.IssuedHeight,
		URI:           c.URI,
	}
}

type CuratorResponse struct {
	Curator      string `json:"curator"`
	Verified     bool   `json:"verified"`
	ReviewsCount uint64 `json:"reviews_count"`
}

func FromCurator(c domain.CuratorRecord) CuratorResponse {
	return CuratorResponse{Curator: string(c.Curator), Verified: c.Verified, ReviewsCount: c.ReviewsCount}
}

type TallyResponse struct {
	PredictionID uint64 `json:"prediction_id"`
	ReviewsCount uint64 `json:"reviews_count"`
	ScoreSum     uint64 `json:"score_sum"`
}

type TreasuryResponse struct {
	Treasury domain.Amount `json:"treasury"`
}

type PlatformResponse struct {
	Initialized bool   `json:"initialized"`
	Paused      bool   `json:"paused"`
	Height      uint64 `json:"height"`
}
