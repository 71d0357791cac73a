package services

import (
	"context"
	"time"

	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
	"github.com/custodia-labs/pagechat/internal/core/ports/driving"
)

// Ensure HealthService implements the interface.
var _ driving.HealthService = (*HealthService)(nil)

// HealthService checks backend reachability.
type HealthService struct {
	backend driven.Backend
	apiURL  string
}

// NewHealthService creates a health service for the backend at apiURL.
func NewHealthService(backend driven.Backend, apiURL string) *HealthService {
	return &HealthService{backend: backend, apiURL: apiURL}
}

// Check calls the backend health endpoint and times the round trip.
func (s *HealthService) Check(ctx context.Context) driving.HealthReport {
	start := time.Now()
	err := s.backend.Health(ctx)
	return driving.HealthReport{
		APIURL:  s.apiURL,
		Healthy: err == nil,
		Latency: time.Since(start),
		Err:     err,
	}
}
