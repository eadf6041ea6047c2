package domain

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInsufficientStake  = errors.New("insufficient stake")
	ErrMarketClosed       = errors.New("market closed")
	ErrStillOpen          = errors.New("market still open")
	ErrAlreadyResolved    = errors.New("already resolved")
	ErrNotResolved        = errors.New("not resolved")
	ErrInvalidOutcome     = errors.New("invalid outcome")
	ErrWrongSide          = errors.New("position is on the losing side")
	ErrWrongOutcome       = errors.New("position does not match the resolved outcome")
	ErrSideMismatch       = errors.New("position side cannot change")
	ErrAlreadyClaimed     = errors.New("already claimed")
	ErrThresholdNotMet    = errors.New("accuracy threshold not met")
	ErrDivisionByZero     = errors.New("division by zero")
	ErrOverflow           = errors.New("arithmetic overflow")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPaused             = errors.New("platform paused")
	ErrAlreadyInitialized = errors.New("already initialized")

	// Erros dos colaboradores externos
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransferFailed      = errors.New("reward transfer failed; manual reconciliation required")
)

// codes mapeia cada erro de domínio para um código estável exposto pela API
var codes = []struct {
	err  error
	code string
}{
	{ErrTransferFailed, "TRANSFER_FAILED"},
	{ErrUnauthorized, "UNAUTHORIZED"},
	{ErrNotFound, "NOT_FOUND"},
	{ErrAlreadyExists, "ALREADY_EXISTS"},
	{ErrInsufficientStake, "INSUFFICIENT_STAKE"},
	{ErrMarketClosed, "MARKET_CLOSED"},
	{ErrStillOpen, "STILL_OPEN"},
	{ErrAlreadyResolved, "ALREADY_RESOLVED"},
	{ErrNotResolved, "NOT_RESOLVED"},
	{ErrInvalidOutcome, "INVALID_OUTCOME"},
	{ErrWrongSide, "WRONG_SIDE"},
	{ErrWrongOutcome, "WRONG_OUTCOME"},
	{ErrSideMismatch, "SIDE_MISMATCH"},
	{ErrAlreadyClaimed, "ALREADY_CLAIMED"},
	{ErrThresholdNotMet, "THRESHOLD_NOT_MET"},
	{ErrDivisionByZero, "DIVISION_BY_ZERO"},
	{ErrOverflow, "OVERFLOW"},
	{ErrInvalidInput, "INVALID_INPUT"},
	{ErrPaused, "PAUSED"},
	{ErrAlreadyInitialized, "ALREADY_INITIALIZED"},
	{ErrInsufficientBalance, "INSUFFICIENT_BALANCE"},
}

// Code retorna o código estável do erro, ou "INTERNAL" para erros desconhecidos.
// ErrTransferFailed vem primeiro porque costuma embrulhar o erro do ledger.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "INTERNAL"
}

// ErrorForCode faz o caminho inverso de Code (usado pelos clientes HTTP)
func ErrorForCode(code string) (error, bool) {
	for _, c := range codes {
		if c.code == code {
			return c.err, true
		}
	}
	return nil, false
}
