// Package metrics defines the Prometheus collectors shared by the toolbox.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "geotoolbox"

var (
	upstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests sent to upstream services by status code",
		},
		[]string{"service", "code"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result",
		},
		[]string{"namespace", "result"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests by route and status code",
		},
		[]string{"route", "code"},
	)
)

// ObserveUpstream counts an upstream response. A code of 0 marks a transport error.
func ObserveUpstream(service string, code int) {
	upstreamRequests.WithLabelValues(service, codeLabel(code)).Inc()
}

// ObserveCache counts a cache lookup.
func ObserveCache(ns string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(ns, result).Inc()
}

// ObserveHTTP counts an API request.
func ObserveHTTP(route string, code int) {
	httpRequests.WithLabelValues(route, codeLabel(code)).Inc()
}

func codeLabel(code int) string {
	if code == 0 {
		return "error"
	}
	return strconv.Itoa(code)
}
