// Package health reports mission liveness over HTTP for fleet tooling and
// pre-run checks.
package health

import (
	"time"
)

// Status represents the health state of the mission controller.
type Status struct {
	Healthy   bool           `json:"healthy"` // true if status is "healthy"
	Status    string         `json:"status"`  // "healthy", "degraded", "unhealthy"
	Message   string         `json:"message,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Checks    map[string]any `json:"checks,omitempty"`
}

// Checker supplies liveness facts. The engine implements this.
type Checker interface {
	Health() map[string]any
}

// FromChecks derives a Status from an engine health snapshot. A stopped
// engine is unhealthy; a running engine with the operator link down is
// degraded but still executing its plan.
func FromChecks(checks map[string]any) Status {
	s := Status{
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}

	running, _ := checks["running"].(bool)
	dropped, _ := checks["operator_dropped"].(bool)

	switch {
	case !running:
		s.Status = "unhealthy"
		s.Message = "mission engine not running"
	case dropped:
		s.Status = "degraded"
		s.Message = "operator link down, reconnecting"
	default:
		s.Status = "healthy"
		s.Healthy = true
	}
	return s
}

// IsHealthy returns true if the status is healthy
func (s Status) IsHealthy() bool {
	return s.Status == "healthy"
}

// IsDegraded returns true if the status is degraded
func (s Status) IsDegraded() bool {
	return s.Status == "degraded"
}

// IsUnhealthy returns true if the status is unhealthy
func (s Status) IsUnhealthy() bool {
	return s.Status == "unhealthy"
}
