package driving

import (
	"context"
	"time"
)

// HealthService checks whether the backend is reachable.
type HealthService interface {
	// Check calls the backend health endpoint.
	Check(ctx context.Context) HealthReport
}

// HealthReport is the outcome of a health check.
type HealthReport struct {
	// APIURL is the backend that was checked.
	APIURL string

	// Healthy is true when the backend answered.
	Healthy bool

	// Latency is the round-trip time of the check.
	Latency time.Duration

	// Err is the failure cause when Healthy is false.
	Err error
}
