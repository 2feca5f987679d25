package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "recall"

// Search and injection Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Hybrid search latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.15, 0.2, 0.25, 0.5, 1},
		},
		[]string{"mode"},
	)

	SearchProviderTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_provider_calls_total",
			Help:      "Search provider calls by outcome",
		},
		[]string{"provider", "status"}, // status: ok / timeout / error / skipped
	)

	SearchQueryKindTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_query_kind_total",
			Help:      "Auto-mode queries by classification",
		},
		[]string{"kind"},
	)

	InjectionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "injection_cache_total",
			Help:      "Injection cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	InjectionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "injection_duration_seconds",
			Help:      "Injection preparation latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
		[]string{"status"}, // "ok" / "fallback"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search and injection metrics. Safe to call twice.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchProviderTotal)
	prometheus.MustRegister(SearchQueryKindTotal)
	prometheus.MustRegister(InjectionCacheTotal)
	prometheus.MustRegister(InjectionDuration)
	searchMetricsRegistered = true
}
