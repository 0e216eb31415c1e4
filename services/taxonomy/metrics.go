// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package taxonomy

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for taxonomy operations.
var (
	tracer = otel.Tracer("gangway.taxonomy")
	meter  = otel.Meter("gangway.taxonomy")
)

// Metrics for taxonomy operations.
var (
	operationLatency metric.Float64Histogram
	operationTotal   metric.Int64Counter
	indexSize        metric.Int64Gauge
	searchLatency    metric.Float64Histogram
	searchResults    metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		operationLatency, err = meter.Float64Histogram(
			"taxonomy_operation_duration_seconds",
			metric.WithDescription("Duration of taxonomy index operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		operationTotal, err = meter.Int64Counter(
			"taxonomy_operation_total",
			metric.WithDescription("Total number of taxonomy index operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		indexSize, err = meter.Int64Gauge(
			"taxonomy_index_size",
			metric.WithDescription("Number of nodes in the active index"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		searchLatency, err = meter.Float64Histogram(
			"taxonomy_search_duration_seconds",
			metric.WithDescription("Duration of classification searches"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		searchResults, err = meter.Int64Histogram(
			"taxonomy_search_results",
			metric.WithDescription("Number of results per classification search"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startOperationSpan creates a span for a taxonomy operation.
func startOperationSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Index."+operation,
		trace.WithAttributes(
			attribute.String("taxonomy.operation", operation),
		),
	)
}

// setOperationSpanResult sets the result attributes on an operation span.
func setOperationSpanResult(span trace.Span, nodeCount int, success bool) {
	span.SetAttributes(
		attribute.Int("taxonomy.node_count", nodeCount),
		attribute.Bool("taxonomy.success", success),
	)
}

// recordOperationMetrics records metrics for a taxonomy operation.
func recordOperationMetrics(ctx context.Context, operation string, duration time.Duration, nodeCount int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	)

	operationLatency.Record(ctx, duration.Seconds(), attrs)
	operationTotal.Add(ctx, 1, attrs)
}

// recordSearchMetrics records the duration and result count of a search.
func recordSearchMetrics(ctx context.Context, duration time.Duration, count int) {
	if err := initMetrics(); err != nil {
		return
	}
	searchLatency.Record(ctx, duration.Seconds())
	searchResults.Record(ctx, int64(count))
}

// recordIndexSize records the size of a freshly built index.
func recordIndexSize(ctx context.Context, size int) {
	if err := initMetrics(); err != nil {
		return
	}
	indexSize.Record(ctx, int64(size))
}
