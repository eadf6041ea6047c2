package dto

import "github.com/radieske/stake-predict-platform/internal/domain"

type PauseRequest struct {
	Paused *bool `json:"paused" validate:"required"`
}

type CreatePredictionRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Domain      string `json:"domain" validate:"required"`
	Duration    uint64 `json:"duration" validate:"required"` // em blocos
}

type StakeRequest struct {
	Side   string        `json:"side" validate:"required,oneof=yes no"`
	Amount domain.Amount `json:"amount"`
}

// SideValue converte "yes"/"no" no lado do domínio
func (r StakeRequest) SideValue() domain.Side { return r.Side == "yes" }

type ResolveRequest struct {
	Outcome *bool `json:"outcome" validate:"required"`
}

type MintCertificationRequest struct {
	URI string `json:"uri" validate:"required"`
}

type TransferCertificationRequest struct {
	To string `json:"to" validate:"required"`
}

type ReviewRequest struct {
	Score *uint8 `json:"score" validate:"required"`
}

type CuratorRequest struct {
	Verified *bool `json:"verified" validate:"required"`
}
