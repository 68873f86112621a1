// Package health provides a small health check registry backing /healthz.
package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// CheckFunc is one named health probe.
type CheckFunc func(ctx context.Context) CheckResult

// Report aggregates all check results.
type Report struct {
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	Status    Status        `json:"status"`
	Uptime    time.Duration `json:"uptime"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks"`
}

// Registry manages named health checkers.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]CheckFunc
	service  string
	version  string
	startAt  time.Time
}

// NewRegistry creates a new health check registry.
func NewRegistry(service, version string) *Registry {
	return &Registry{
		checkers: make(map[string]CheckFunc),
		service:  service,
		version:  version,
		startAt:  time.Now(),
	}
}

// RegisterFunc adds a check function under the given name.
func (r *Registry) RegisterFunc(name string, fn CheckFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = fn
}

// Check runs all health checks and returns the aggregate report. The
// overall status is unhealthy if any single check is.
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	names := make([]string, 0, len(r.checkers))
	fns := make([]CheckFunc, 0, len(r.checkers))
	for name, fn := range r.checkers {
		names = append(names, name)
		fns = append(fns, fn)
	}
	r.mu.RUnlock()

	report := &Report{
		Service:   r.service,
		Version:   r.version,
		Status:    StatusHealthy,
		Uptime:    time.Since(r.startAt),
		Timestamp: time.Now(),
		Checks:    make([]CheckResult, 0, len(fns)),
	}

	for i, fn := range fns {
		start := time.Now()
		result := fn(ctx)
		result.Duration = time.Since(start)
		if result.Name == "" {
			result.Name = names[i]
		}
		if result.Status != StatusHealthy {
			report.Status = StatusUnhealthy
		}
		report.Checks = append(report.Checks, result)
	}

	return report
}
