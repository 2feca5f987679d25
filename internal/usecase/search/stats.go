package search

import "sync/atomic"

// PerformanceStats is a snapshot of the engine's rolling counters.
type PerformanceStats struct {
	TotalSearches  int64   `json:"total_searches"`
	TotalLatencyMS float64 `json:"total_latency_ms"`
	AvgLatencyMS   float64 `json:"avg_latency_ms"`
	Timeouts       int64   `json:"timeouts"`
	ProviderErrors int64   `json:"provider_errors"`
}

type counters struct {
	searches       atomic.Int64
	latencyMicros  atomic.Int64
	timeouts       atomic.Int64
	providerErrors atomic.Int64
}

func (c *counters) record(latencyMicros int64, outcomes ...Outcome) {
	c.searches.Add(1)
	c.latencyMicros.Add(latencyMicros)
	for _, o := range outcomes {
		switch o.Status {
		case StatusTimeout:
			c.timeouts.Add(1)
		case StatusError:
			c.providerErrors.Add(1)
		case StatusOK, StatusSkipped:
		}
	}
}

func (c *counters) snapshot() PerformanceStats {
	n := c.searches.Load()
	total := float64(c.latencyMicros.Load()) / 1000
	s := PerformanceStats{
		TotalSearches:  n,
		TotalLatencyMS: total,
		Timeouts:       c.timeouts.Load(),
		ProviderErrors: c.providerErrors.Load(),
	}
	if n > 0 {
		s.AvgLatencyMS = total / float64(n)
	}
	return s
}
