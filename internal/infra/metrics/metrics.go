// Package metrics holds the Prometheus collectors shared by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortkey_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	LinksCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortkey_links_created_total",
			Help: "Total number of links created",
		},
		[]string{"key_source"}, // custom, random
	)

	KeyCollisionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortkey_key_collisions_total",
			Help: "Total number of unique-key violations hit while creating links",
		},
	)

	ProbeFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortkey_probe_failures_total",
			Help: "Total number of target URLs rejected by the reachability probe",
		},
	)

	RedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortkey_redirects_total",
			Help: "Total number of redirect lookups by outcome",
		},
		[]string{"result"}, // hit, not_found
	)

	AdminActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortkey_admin_actions_total",
			Help: "Total number of admin operations",
		},
		[]string{"action"}, // info, activate, deactivate
	)

	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortkey_cache_hits_total",
			Help: "Total number of link cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortkey_cache_misses_total",
			Help: "Total number of link cache misses",
		},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortkey_events_published_total",
			Help: "Total number of link lifecycle events published",
		},
		[]string{"type", "status"}, // status: ok, error
	)
)
