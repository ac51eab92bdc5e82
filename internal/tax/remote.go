package tax

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-acara/internal/catalog"
	"github.com/noah-isme/backend-acara/internal/resilience"
)

// HTTPClient calls the hosted tax estimation service.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	HTTP    *resilience.HTTPClient
}

type estimateRequest struct {
	LineItems     []LineItem      `json:"lineItems"`
	Address       catalog.Address `json:"address"`
	AddressSource string          `json:"addressSource"`
}

// EstimateTax implements Client.
func (c *HTTPClient) EstimateTax(ctx context.Context, in Input) (Estimate, error) {
	if c == nil || c.HTTP == nil || strings.TrimSpace(c.BaseURL) == "" {
		return Estimate{}, fmt.Errorf("%w: remote client not configured", ErrTaxUnavailable)
	}
	if in.Address == nil {
		return Estimate{}, fmt.Errorf("%w: no address", ErrTaxUnavailable)
	}
	payload, err := json.Marshal(estimateRequest{
		LineItems:     in.LineItems,
		Address:       *in.Address,
		AddressSource: in.AddressSource,
	})
	if err != nil {
		return Estimate{}, fmt.Errorf("tax: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.BaseURL, "/")+"/v1/tax/estimate", bytes.NewReader(payload))
	if err != nil {
		return Estimate{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return Estimate{}, fmt.Errorf("%w: %v", ErrTaxUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return Estimate{}, fmt.Errorf("%w: status %d", ErrTaxUnavailable, resp.StatusCode)
	}
	var est Estimate
	if err := json.NewDecoder(resp.Body).Decode(&est); err != nil {
		return Estimate{}, fmt.Errorf("%w: decode: %v", ErrTaxUnavailable, err)
	}
	if est.Amount < 0 {
		return Estimate{}, fmt.Errorf("%w: negative amount", ErrTaxUnavailable)
	}
	return est, nil
}
