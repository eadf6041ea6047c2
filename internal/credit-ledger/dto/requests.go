package dto

import "github.com/radieske/stake-predict-platform/internal/domain"

type MintRequest struct {
	Principal   string        `json:"principal" validate:"required,max=128"`
	Amount      domain.Amount `json:"amount"`
	ExternalRef string        `json:"external_ref,omitempty" validate:"max=128"` // opcional p/ idempotência
}

type TransferRequest struct {
	From        string        `json:"from" validate:"required,max=128"`
	To          string        `json:"to" validate:"required,max=128"`
	Amount      domain.Amount `json:"amount"`
	ExternalRef string        `json:"external_ref,omitempty" validate:"max=128"`
}

type IssueCertificateRequest struct {
	ID    uint64 `json:"id" validate:"required"`
	Owner string `json:"owner" validate:"required,max=128"`
}

type TransferCertificateRequest struct {
	ID   uint64 `json:"id" validate:"required"`
	From string `json:"from" validate:"required,max=128"`
	To   string `json:"to" validate:"required,max=128"`
}
