package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Ramsey-B/yarrow/pkg/geo"
)

// Place is the reverse-resolution result for a coordinate.
type Place struct {
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

// Resolver resolves coordinates through an external geocoding provider.
// Implementations return (nil, nil) on not-found; errors are reserved for
// transport failures.
type Resolver interface {
	Forward(ctx context.Context, zip string) (*geo.Coordinate, error)
	Reverse(ctx context.Context, coord geo.Coordinate) (*Place, error)
}

// HTTPResolverConfig configures the HTTP geocoding client.
type HTTPResolverConfig struct {
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// HTTPResolver resolves against a JSON geocoding service.
type HTTPResolver struct {
	client  *http.Client
	baseURL string
}

// NewHTTPResolver creates a resolver for the given service.
func NewHTTPResolver(config HTTPResolverConfig) *HTTPResolver {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPResolver{
		client:  &http.Client{Timeout: timeout},
		baseURL: config.BaseURL,
	}
}

// Forward resolves a 5-digit ZIP to its centroid coordinate.
func (r *HTTPResolver) Forward(ctx context.Context, zip string) (*geo.Coordinate, error) {
	var result geo.Coordinate
	found, err := r.getJSON(ctx, fmt.Sprintf("%s/geocode/zip/%s", r.baseURL, url.PathEscape(zip)), &result)
	if err != nil || !found {
		return nil, err
	}
	if !result.Valid() {
		return nil, nil
	}
	return &result, nil
}

// Reverse resolves a coordinate to its city/state/ZIP.
func (r *HTTPResolver) Reverse(ctx context.Context, coord geo.Coordinate) (*Place, error) {
	var result Place
	endpoint := fmt.Sprintf("%s/geocode/reverse?lat=%f&lon=%f", r.baseURL, coord.Latitude, coord.Longitude)
	found, err := r.getJSON(ctx, endpoint, &result)
	if err != nil || !found {
		return nil, err
	}
	return &result, nil
}

func (r *HTTPResolver) getJSON(ctx context.Context, endpoint string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("geocode request returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	return true, nil
}
