package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/noah-isme/backend-acara/internal/catalog"
	"github.com/noah-isme/backend-acara/internal/resilience"
)

// ErrDistanceUnavailable is returned when no distance can be resolved between
// two addresses. Callers degrade delivery eligibility instead of failing the
// quote.
var ErrDistanceUnavailable = errors.New("geo: distance unavailable")

// Distancer resolves road distance in miles between two addresses.
type Distancer interface {
	Distance(ctx context.Context, origin, destination catalog.Address) (float64, error)
}

// HTTPDistancer calls a hosted geocoding/distance service. All failures,
// including malformed responses, collapse into ErrDistanceUnavailable.
type HTTPDistancer struct {
	BaseURL string
	APIKey  string
	HTTP    *resilience.HTTPClient
}

type distanceResponse struct {
	Miles float64 `json:"miles"`
}

// Distance implements Distancer.
func (c *HTTPDistancer) Distance(ctx context.Context, origin, destination catalog.Address) (float64, error) {
	if c == nil || c.HTTP == nil || strings.TrimSpace(c.BaseURL) == "" {
		return 0, ErrDistanceUnavailable
	}
	q := url.Values{}
	q.Set("origin", formatAddress(origin))
	q.Set("destination", formatAddress(destination))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.BaseURL, "/")+"/v1/distance?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDistanceUnavailable, err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDistanceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrDistanceUnavailable, resp.StatusCode)
	}
	var body distanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: decode: %v", ErrDistanceUnavailable, err)
	}
	if body.Miles < 0 {
		return 0, fmt.Errorf("%w: negative distance", ErrDistanceUnavailable)
	}
	return body.Miles, nil
}

// StaticDistancer returns a fixed distance and is useful for testing and
// development.
type StaticDistancer struct {
	Miles float64
	Err   error
}

// Distance implements Distancer.
func (s StaticDistancer) Distance(ctx context.Context, origin, destination catalog.Address) (float64, error) {
	_ = ctx
	if s.Err != nil {
		return 0, s.Err
	}
	return s.Miles, nil
}

func formatAddress(a catalog.Address) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Line1, a.City, a.State, a.PostalCode, a.Country} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}
