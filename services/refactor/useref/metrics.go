// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package useref

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("jsxref.useref")
	meter  = otel.Meter("jsxref.useref")
)

var (
	invocationLatency metric.Float64Histogram
	invocationTotal   metric.Int64Counter
	metricsOnce       sync.Once
	metricsInitErr    error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		invocationLatency, err = meter.Float64Histogram(
			"jsxref_useref_duration_seconds",
			metric.WithDescription("Duration of useRef refactor invocations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsInitErr = err
			return
		}

		invocationTotal, err = meter.Int64Counter(
			"jsxref_useref_invocations_total",
			metric.WithDescription("useRef refactor invocations by path and outcome"),
		)
		if err != nil {
			metricsInitErr = err
		}
	})
	return metricsInitErr
}

// recordInvocation records one invocation of the discovery or edit path.
func recordInvocation(ctx context.Context, path string, reason DeclineReason, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("path", path),
		attribute.String("outcome", reason.String()),
	)
	invocationLatency.Record(ctx, duration.Seconds(), attrs)
	invocationTotal.Add(ctx, 1, attrs)
}

func startSpan(ctx context.Context, name string, rc fileAndOffset) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("useref.file", rc.file),
			attribute.Int("useref.offset", rc.offset),
		),
	)
}

type fileAndOffset struct {
	file   string
	offset int
}
