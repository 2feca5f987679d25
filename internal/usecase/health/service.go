package health

import (
	"context"
	"sort"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Search and injection keep answering with fewer results.
	Degraded Status = "degraded"
	// Unhealthy indicates every component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in the report.
const (
	ComponentSearchBackend = "search_backend"
	ComponentMemoryStore   = "memory_store"
	ComponentEmbedding     = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	pingers   map[string]Pinger
	embedding EmbeddingChecker
}

// New creates a Service. Nil components are skipped.
func New(searchBackend, memoryStore Pinger, embedding EmbeddingChecker) *Service {
	pingers := make(map[string]Pinger, 2)
	if searchBackend != nil {
		pingers[ComponentSearchBackend] = searchBackend
	}
	if memoryStore != nil {
		pingers[ComponentMemoryStore] = memoryStore
	}
	return &Service{pingers: pingers, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.pingers)+1)

	names := make([]string, 0, len(s.pingers))
	for name := range s.pingers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		checks[name] = result(s.pingers[name].Ping(ctx))
	}

	if s.embedding != nil {
		checks[ComponentEmbedding] = result(s.embedding.HealthCheck(ctx))
	}

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
