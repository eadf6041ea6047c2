package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/engine-service/dto"
	httpapi "github.com/radieske/stake-predict-platform/internal/engine-service/http"
	"github.com/radieske/stake-predict-platform/internal/shared/httpx"
)

// Client chama a API do engine-service em nome de um participante
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(base string) *Client {
	return &Client{BaseURL: base, HTTP: &http.Client{Timeout: 5 * time.Second}}
}

func (c *Client) do(ctx context.Context, method, path string, who domain.Principal, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if who != "" {
		req.Header.Set(httpapi.ParticipantHeader, string(who))
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %w", method, path, httpx.DecodeError(res))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *Client) Create(ctx context.Context, who domain.Principal, req dto.CreatePredictionRequest) (dto.PredictionResponse, error) {
	var out dto.PredictionResponse
	err := c.do(ctx, http.MethodPost, "/v1/predictions", who, req, &out)
	return out, err
}

func (c *Client) Stake(ctx context.Context, who domain.Principal, id uint64, req dto.StakeRequest) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/predictions/%d/stakes", id), who, req, nil)
}

func (c *Client) Resolve(ctx context.Context, who domain.Principal, id uint64, outcome bool) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/predictions/%d/resolve", id), who, dto.ResolveRequest{Outcome: &outcome}, nil)
}

func (c *Client) Claim(ctx context.Context, who domain.Principal, id uint64) (dto.ClaimResponse, error) {
	var out dto.ClaimResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/predictions/%d/claim", id), who, nil, &out)
	return out, err
}
