// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("jsxref.ast")

// parseInstruments are created on first use so that telemetry.Init, when
// it runs, installs the meter provider first.
type parseInstruments struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	nodes    metric.Int64Histogram
}

var (
	instrumentsOnce sync.Once
	instruments     *parseInstruments
)

func parseMetrics() *parseInstruments {
	instrumentsOnce.Do(func() {
		meter := otel.Meter("jsxref.ast")
		duration, err1 := meter.Float64Histogram("jsxref_parse_duration_seconds",
			metric.WithDescription("Time to parse a source file into a tree"),
			metric.WithUnit("s"))
		total, err2 := meter.Int64Counter("jsxref_parse_total",
			metric.WithDescription("Parse attempts by dialect and outcome"))
		nodes, err3 := meter.Int64Histogram("jsxref_parse_nodes",
			metric.WithDescription("Arena nodes per parsed tree"))
		if errors.Join(err1, err2, err3) != nil {
			return
		}
		instruments = &parseInstruments{duration: duration, total: total, nodes: nodes}
	})
	return instruments
}

// parseOutcome classifies a Parse result for the outcome attribute.
func parseOutcome(tree *SourceTree, err error) string {
	switch {
	case err == nil && tree != nil && tree.HasErrors():
		return "syntax_error"
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnsupportedDialect):
		return "unsupported"
	case errors.Is(err, ErrFileTooLarge):
		return "too_large"
	case errors.Is(err, ErrInvalidContent):
		return "invalid_content"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "failed"
	}
}

// observeParse ends span and records the parse metrics.
func observeParse(ctx context.Context, span trace.Span, dialect Dialect, start time.Time, tree *SourceTree, err error) {
	outcome := parseOutcome(tree, err)
	span.SetAttributes(attribute.String("ast.outcome", outcome))
	if tree != nil {
		span.SetAttributes(attribute.Int("ast.node_count", tree.NodeCount()))
	}
	if err != nil {
		span.RecordError(err)
	}

	m := parseMetrics()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("dialect", dialect.String()),
		attribute.String("outcome", outcome),
	)
	m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	m.total.Add(ctx, 1, attrs)
	if tree != nil {
		m.nodes.Record(ctx, int64(tree.NodeCount()),
			metric.WithAttributes(attribute.String("dialect", dialect.String())))
	}
}
