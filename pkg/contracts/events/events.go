package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type identifica o tipo de evento publicado no tópico "prediction_events"
type Type string

const (
	TypePredictionCreated   Type = "prediction-created"
	TypeStakePlaced         Type = "stake-placed"
	TypePredictionResolved  Type = "prediction-resolved"
	TypeRewardsClaimed      Type = "rewards-claimed"
	TypeCertificationIssued Type = "certification-issued"
)

// Envelope é a mensagem publicada no Kafka; o payload depende de Type.
// Valores monetários trafegam como string decimal (u128).
type Envelope struct {
	EventID      string          `json:"event_id"` // uuid, usado para deduplicação no indexer
	Type         Type            `json:"type"`
	PredictionID uint64          `json:"prediction_id"`
	Height       uint64          `json:"height"`
	Ts           time.Time       `json:"ts"`
	Payload      json.RawMessage `json:"payload"`
}

// New monta um envelope com id novo
func New(t Type, predictionID, height uint64, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Envelope{
		EventID:      uuid.NewString(),
		Type:         t,
		PredictionID: predictionID,
		Height:       height,
		Ts:           time.Now().UTC(),
		Payload:      b,
	}, nil
}

// Decode desserializa o payload no tipo informado
func (e Envelope) Decode(dst any) error {
	return json.Unmarshal(e.Payload, dst)
}

type PredictionCreated struct {
	PredictionID uint64 `json:"prediction_id"`
	Creator      string `json:"creator"`
	Title        string `json:"title"`
	Domain       string `json:"domain"`
	EndHeight    uint64 `json:"end_height"`
}

type StakePlaced struct {
	PredictionID  uint64 `json:"prediction_id"`
	Participant   string `json:"participant"`
	Side          bool   `json:"side"`
	Amount        string `json:"amount"`
	PositionTotal string `json:"position_total"`
	StakeYesTotal string `json:"stake_yes_total"`
	StakeNoTotal  string `json:"stake_no_total"`
}

type PredictionResolved struct {
	PredictionID   uint64 `json:"prediction_id"`
	Resolver       string `json:"resolver"`
	Outcome        bool   `json:"outcome"`
	ResolvedHeight uint64 `json:"resolved_height"`
}

// Status da transferência externa do prêmio
const (
	TransferSettled = "SETTLED"
	TransferFailed  = "FAILED" // exige reconciliação manual
)

type RewardsClaimed struct {
	PredictionID   uint64 `json:"prediction_id"`
	Participant    string `json:"participant"`
	Reward         string `json:"reward"`
	Fee            string `json:"fee"`
	TransferStatus string `json:"transfer_status"`
	Score          uint16 `json:"score"`
}

type CertificationIssued struct {
	CertificationID uint64 `json:"certification_id"`
	PredictionID    uint64 `json:"prediction_id"`
	Owner           string `json:"owner"`
	AccuracyScore   uint16 `json:"accuracy_score"`
	Domain          string `json:"domain"`
	URI             string `json:"uri"`
}
