// Package httpx concentra o formato JSON de resposta e de erro comum às APIs
// internas, nos dois sentidos (servidor e cliente).
package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/radieske/stake-predict-platform/internal/domain"
)

// ErrorBody é o corpo de qualquer resposta de erro
type ErrorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor traduz um erro de domínio em status HTTP
func StatusFor(err error) int {
	switch domain.Code(err) {
	case "NOT_FOUND":
		return http.StatusNotFound
	case "UNAUTHORIZED":
		return http.StatusForbidden
	case "INSUFFICIENT_STAKE", "INVALID_OUTCOME", "INVALID_INPUT", "OVERFLOW", "DIVISION_BY_ZERO":
		return http.StatusUnprocessableEntity
	case "PAUSED":
		return http.StatusServiceUnavailable
	case "TRANSFER_FAILED":
		return http.StatusBadGateway
	case "INTERNAL":
		return http.StatusInternalServerError
	default:
		// demais erros de domínio são conflitos de estado
		return http.StatusConflict
	}
}

// WriteError responde com {code, error}. Erros internos não vazam detalhes.
func WriteError(w http.ResponseWriter, err error) {
	code := domain.Code(err)
	msg := err.Error()
	if code == "INTERNAL" {
		msg = "internal error"
	}
	WriteJSON(w, StatusFor(err), ErrorBody{Code: code, Error: msg})
}

// WriteProblem responde com um código fixo, para erros de borda (json, header)
func WriteProblem(w http.ResponseWriter, status int, code, msg string) {
	WriteJSON(w, status, ErrorBody{Code: code, Error: msg})
}

// DecodeError reconstrói o erro de domínio a partir de uma resposta >= 300
func DecodeError(res *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	var body ErrorBody
	if json.Unmarshal(raw, &body) == nil {
		if sentinel, ok := domain.ErrorForCode(body.Code); ok {
			return fmt.Errorf("%w: %s", sentinel, body.Error)
		}
	}
	return fmt.Errorf("http %d: %s", res.StatusCode, string(raw))
}
