// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package refactor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for requestsTotal.
const (
	outcomeApplicable    = "applicable"
	outcomeNotApplicable = "not_applicable"
	outcomeClientError   = "client_error"
	outcomeServerError   = "server_error"
	outcomeRateLimited   = "rate_limited"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jsxref",
		Subsystem: "http",
		Name:      "refactor_requests_total",
		Help:      "Refactor API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jsxref",
		Subsystem: "http",
		Name:      "refactor_request_duration_seconds",
		Help:      "Refactor API request latency",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"endpoint"})

	editsPerResponse = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "jsxref",
		Subsystem: "http",
		Name:      "refactor_text_changes",
		Help:      "Text changes returned per applicable edits response",
		Buckets:   prometheus.LinearBuckets(0, 1, 6),
	})
)

func observeRequest(endpoint, outcome string, start time.Time) {
	requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func observeEdits(resp *EditsResponse) {
	n := 0
	for _, fc := range resp.Edits {
		n += len(fc.TextChanges)
	}
	editsPerResponse.Observe(float64(n))
}
