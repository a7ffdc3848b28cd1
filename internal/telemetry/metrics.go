package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the agenda pipeline. Registered on the default registry
// and exposed by the HTTP server's /metrics route.
var (
	AgendasBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "confpilot",
		Name:      "agendas_built_total",
		Help:      "Agendas successfully assembled.",
	})

	AgendaBuildFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "confpilot",
		Name:      "agenda_build_failures_total",
		Help:      "Agenda builds that returned an error.",
	})

	ConflictsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "confpilot",
		Name:      "conflicts_detected_total",
		Help:      "Schedule conflicts found during builds, by type.",
	}, []string{"type"})

	AdvisorFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "confpilot",
		Name:      "advisor_fallbacks_total",
		Help:      "Builds that fell back to heuristic resolution after an advisor failure.",
	})

	OracleFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "confpilot",
		Name:      "oracle_fallbacks_total",
		Help:      "Builds that ran keyword-only after a semantic search failure.",
	})

	CatalogCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "confpilot",
		Name:      "catalog_cache_hits_total",
		Help:      "Catalog reads served from redis.",
	})

	CatalogCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "confpilot",
		Name:      "catalog_cache_misses_total",
		Help:      "Catalog reads that fell through to Postgres.",
	})

	CatalogRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "confpilot",
		Name:      "catalog_refreshes_total",
		Help:      "Scheduled catalog refresh runs.",
	})

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "confpilot",
		Name:      "agenda_build_seconds",
		Help:      "Wall time of agenda builds.",
		Buckets:   prometheus.DefBuckets,
	})
)
