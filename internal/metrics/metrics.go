// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts search outcomes with Prometheus collectors held on
// a private registry. A CLI run can dump the registry in the text
// exposition format for the node_exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives search outcome events. Implementations must be safe
// for concurrent use.
type Recorder interface {
	// ProviderFetch records one adapter call and its status
	// ("ok", "empty", "degraded").
	ProviderFetch(provider, status string)
	// SnapshotLookup records whether a degraded call was served from the
	// offline snapshot.
	SnapshotLookup(hit bool)
	// Search records one orchestrated search by strategy name.
	Search(strategy string)
	// Sentinel records a "no results" response.
	Sentinel()
}

// Metrics is the Prometheus-backed Recorder.
type Metrics struct {
	registry *prometheus.Registry

	providerFetches *prometheus.CounterVec
	snapshotLookups *prometheus.CounterVec
	searches        *prometheus.CounterVec
	sentinels       prometheus.Counter
}

// New registers the evidence-engine collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		providerFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_provider_fetch_total",
			Help: "Adapter calls by provider and outcome (ok, empty, degraded)",
		}, []string{"provider", "status"}),
		snapshotLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_snapshot_lookup_total",
			Help: "Offline snapshot lookups made after a backend failure",
		}, []string{"result"}),
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_search_total",
			Help: "Orchestrated searches by provider strategy",
		}, []string{"strategy"}),
		sentinels: factory.NewCounter(prometheus.CounterOpts{
			Name: "evidence_no_results_total",
			Help: "Searches answered with the no-results sentinel",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ProviderFetch(provider, status string) {
	m.providerFetches.WithLabelValues(provider, status).Inc()
}

func (m *Metrics) SnapshotLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.snapshotLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Search(strategy string) {
	m.searches.WithLabelValues(strategy).Inc()
}

func (m *Metrics) Sentinel() { m.sentinels.Inc() }

// WriteTextfile writes the current metric values to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Nop is a Recorder that drops every event.
type Nop struct{}

func (Nop) ProviderFetch(string, string) {}
func (Nop) SnapshotLookup(bool)          {}
func (Nop) Search(string)                {}
func (Nop) Sentinel()                    {}
