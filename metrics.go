package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// This file defines the Prometheus metrics that are exposed by the application.

// httpRequestsTotal is partitioned by the matched route pattern, HTTP method, and the resulting status code.
var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "homer_http_requests_total",
	Help: "Total number of HTTP requests by route, method and code.",
}, []string{"path", "method", "code"})

var upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "homer_upstream_requests_total",
	Help: "Calls to external services by upstream and outcome.",
}, []string{"upstream", "outcome"})

var upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "homer_upstream_request_duration_seconds",
	Help:    "Latency of calls to external services.",
	Buckets: prometheus.DefBuckets,
}, []string{"upstream"})

var locationResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "homer_location_resolutions_total",
	Help: "Resolved locations by the tier that produced them.",
}, []string{"source"})

var panelRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "homer_panel_refreshes_total",
	Help: "Dashboard panel refreshes by panel and outcome.",
}, []string{"panel", "outcome"})

// observeUpstream records one upstream call. Use it with defer:
//
//	defer observeUpstream("open-meteo", time.Now(), &err)
func observeUpstream(upstream string, start time.Time, err *error) {
	upstreamRequestDuration.WithLabelValues(upstream).Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil && *err != nil {
		outcome = "error"
	}
	upstreamRequestsTotal.WithLabelValues(upstream, outcome).Inc()
}

func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
