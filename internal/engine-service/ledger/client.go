package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	ledgerdto "github.com/radieske/stake-predict-platform/internal/credit-ledger/dto"
	"github.com/radieske/stake-predict-platform/internal/domain"
	"github.com/radieske/stake-predict-platform/internal/shared/httpx"
)

// Client fala com o credit-ledger-service. Implementa domain.CreditLedger e
// domain.CertificationStore; erros voltam como os sentinelas do domínio.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

var (
	_ domain.CreditLedger       = (*Client)(nil)
	_ domain.CertificationStore = (*Client)(nil)
)

func (c *Client) post(ctx context.Context, path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("ledger %s: %w", path, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("ledger %s: %w", path, httpx.DecodeError(res))
	}
	return nil
}

func (c *Client) Mint(ctx context.Context, amount domain.Amount, to domain.Principal) error {
	return c.post(ctx, "/credits/mint", ledgerdto.MintRequest{Principal: string(to), Amount: amount})
}

func (c *Client) Transfer(ctx context.Context, amount domain.Amount, from, to domain.Principal, ref string) error {
	return c.post(ctx, "/credits/transfer", ledgerdto.TransferRequest{From: string(from), To: string(to), Amount: amount, ExternalRef: ref})
}

func (c *Client) Issue(ctx context.Context, id domain.CertificationID, owner domain.Principal) error {
	return c.post(ctx, "/certificates/issue", ledgerdto.IssueCertificateRequest{ID: uint64(id), Owner: string(owner)})
}

func (c *Client) TransferOwnership(ctx context.Context, id domain.CertificationID, from, to domain.Principal) error {
	return c.post(ctx, "/certificates/transfer", ledgerdto.TransferCertificateRequest{ID: uint64(id), From: string(from), To: string(to)})
}
