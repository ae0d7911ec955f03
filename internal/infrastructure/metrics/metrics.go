package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthzDecisions tracks authorization outcomes per object kind and check
	AuthzDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnsadmin_authz_decisions_total",
		Help: "Total number of authorization decisions",
	}, []string{"kind", "check", "result"})

	// SerialBumps tracks zone serial increments
	SerialBumps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dnsadmin_serial_bumps_total",
		Help: "Total number of zone serial increments",
	})

	// Mutations tracks committed and failed administrative mutations
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnsadmin_mutations_total",
		Help: "Total number of administrative mutations by operation and outcome",
	}, []string{"operation", "result"})

	// CacheOperations tracks allowed-object view cache hits and misses
	CacheOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnsadmin_cache_operations_total",
		Help: "Total number of view cache hits and misses",
	}, []string{"kind", "result"})

	// RequestDuration tracks API request processing time
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dnsadmin_request_duration_seconds",
		Help:    "Histogram of API request processing duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	// DBConnectionsActive tracks open database connections
	DBConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dnsadmin_db_connections_active",
		Help: "Number of active database connections",
	})
)
