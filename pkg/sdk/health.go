package simdex

import (
	"context"

	healthuc "github.com/kailas-cloud/simdex/internal/usecase/health"
)

// HealthStatus represents the aggregated recommender health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// Health reports storage connectivity (when enabled) and whether an index is loaded.
func (r *Recommender) Health(ctx context.Context) HealthStatus {
	report := r.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
