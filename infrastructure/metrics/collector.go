// Package metrics wires github.com/prometheus/client_golang into the
// application, grounded on 2lar-b2/backend's
// internal/infrastructure/observability/metrics.go Collector shape
// (a private registry plus a MustRegister block) repurposed from that
// repo's generic node/edge business counters to this one's investigation
// graph events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds every Prometheus metric the API process exposes. It owns
// a private registry rather than using the global default one, so tests
// can construct throwaway collectors without colliding registrations.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	EntitiesCreated prometheus.Counter
	EntitiesDeleted prometheus.Counter
	EntitiesMerged  prometheus.Counter
	EdgesCreated    prometheus.Counter

	WorkflowStepsCompleted *prometheus.CounterVec

	GraphStoreOperations *prometheus.CounterVec
	GraphStoreDuration   *prometheus.HistogramVec
}

// NewCollector builds and registers a fresh metrics collector under the
// given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		EntitiesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_created_total",
			Help:      "Total number of entities created across all investigations.",
		}),
		EntitiesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_deleted_total",
			Help:      "Total number of entities deleted across all investigations.",
		}),
		EntitiesMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entity_merges_total",
			Help:      "Total number of entity merge operations.",
		}),
		EdgesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_created_total",
			Help:      "Total number of edges created across all investigations.",
		}),
		WorkflowStepsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_steps_completed_total",
			Help:      "Total number of extraction workflow steps completed, by step name.",
		}, []string{"step"}),
		GraphStoreOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_store_operations_total",
			Help:      "Total number of graph store operations, by operation and outcome.",
		}, []string{"operation", "status"}),
		GraphStoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_store_operation_duration_seconds",
			Help:      "Graph store operation duration in seconds, by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	registry.MustRegister(
		c.HTTPRequests, c.HTTPDuration,
		c.EntitiesCreated, c.EntitiesDeleted, c.EntitiesMerged, c.EdgesCreated,
		c.WorkflowStepsCompleted,
		c.GraphStoreOperations, c.GraphStoreDuration,
	)
	return c
}

// Registry exposes the private registry for promhttp.HandlerFor.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }
