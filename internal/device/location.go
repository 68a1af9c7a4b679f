package device

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
)

// HTTPLocationProvider resolves position fixes from a local fix endpoint
// (gpsd bridge or similar) returning {lat, lon, accuracy} JSON.
type HTTPLocationProvider struct {
	fixURL     string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewHTTPLocationProvider creates a provider for the given fix endpoint.
func NewHTTPLocationProvider(fixURL string, timeout time.Duration, log *logger.Logger) *HTTPLocationProvider {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPLocationProvider{
		fixURL:     fixURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// CurrentLocation requests one high-accuracy fix.
func (p *HTTPLocationProvider) CurrentLocation(ctx context.Context) (Location, error) {
	if p.fixURL == "" {
		return ZeroLocation(), fmt.Errorf("no location fix endpoint configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.fixURL, nil)
	if err != nil {
		return ZeroLocation(), fmt.Errorf("failed to build fix request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ZeroLocation(), fmt.Errorf("fix request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ZeroLocation(), fmt.Errorf("fix endpoint returned %d", resp.StatusCode)
	}

	var loc Location
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return ZeroLocation(), fmt.Errorf("failed to decode fix: %w", err)
	}
	return loc, nil
}

// StaticLocationProvider returns a fixed position, for stationary installs.
type StaticLocationProvider struct {
	location Location
}

// NewStaticLocationProvider creates a provider that always returns loc.
func NewStaticLocationProvider(loc Location) *StaticLocationProvider {
	return &StaticLocationProvider{location: loc}
}

// CurrentLocation returns the configured position.
func (p *StaticLocationProvider) CurrentLocation(ctx context.Context) (Location, error) {
	return p.location, nil
}
