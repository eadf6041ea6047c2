package dto

import "github.com/radieske/stake-predict-platform/internal/domain"

type BalanceResponse struct {
	Principal string        `json:"principal"`
	Balance   domain.Amount `json:"balance"`
}

type CertificateResponse struct {
	ID    uint64 `json:"id"`
	Owner string `json:"owner"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
