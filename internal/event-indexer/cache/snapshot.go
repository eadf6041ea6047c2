package cache

import (
	"fmt"
	"time"

	"github.com/radieske/stake-predict-platform/pkg/contracts/events"
)

// Snapshot é o último estado conhecido de uma previsão, montado a partir dos eventos
type Snapshot struct {
	PredictionID   uint64    `json:"prediction_id"`
	Creator        string    `json:"creator,omitempty"`
	Title          string    `json:"title,omitempty"`
	Domain         string    `json:"domain,omitempty"`
	EndHeight      uint64    `json:"end_height,omitempty"`
	StakeYesTotal  string    `json:"stake_yes_total"`
	StakeNoTotal   string    `json:"stake_no_total"`
	Stakes         uint64    `json:"stakes"`
	Outcome        *bool     `json:"outcome"`
	ResolvedHeight uint64    `json:"resolved_height,omitempty"`
	Claims         uint64    `json:"claims"`
	ClaimFailures  uint64    `json:"claim_failures"`
	Certifications uint64    `json:"certifications"`
	LastEventID    string    `json:"last_event_id"`
	LastHeight     uint64    `json:"last_height"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Apply incorpora um envelope ao snapshot. Tipos desconhecidos são erro.
func Apply(s Snapshot, e events.Envelope) (Snapshot, error) {
	s.PredictionID = e.PredictionID
	if s.StakeYesTotal == "" {
		s.StakeYesTotal = "0"
	}
	if s.StakeNoTotal == "" {
		s.StakeNoTotal = "0"
	}

	switch e.Type {
	case events.TypePredictionCreated:
		var p events.PredictionCreated
		if err := e.Decode(&p); err != nil {
			return s, err
		}
		s.Creator, s.Title, s.Domain, s.EndHeight = p.Creator, p.Title, p.Domain, p.EndHeight
	case events.TypeStakePlaced:
		var p events.StakePlaced
		if err := e.Decode(&p); err != nil {
			return s, err
		}
		// os totais vêm prontos do engine; não somamos aqui
		s.StakeYesTotal, s.StakeNoTotal = p.StakeYesTotal, p.StakeNoTotal
		s.Stakes++
	case events.TypePredictionResolved:
		var p events.PredictionResolved
		if err := e.Decode(&p); err != nil {
			return s, err
		}
		outcome := p.Outcome
		s.Outcome, s.ResolvedHeight = &outcome, p.ResolvedHeight
	case events.TypeRewardsClaimed:
		var p events.RewardsClaimed
		if err := e.Decode(&p); err != nil {
			return s, err
		}
		s.Claims++
		if p.TransferStatus == events.TransferFailed {
			s.ClaimFailures++
		}
	case events.TypeCertificationIssued:
		s.Certifications++
	default:
		return s, fmt.Errorf("unknown event type %q", e.Type)
	}

	s.LastEventID = e.EventID
	if e.Height > s.LastHeight {
		s.LastHeight = e.Height
	}
	s.UpdatedAt = e.Ts
	return s, nil
}
