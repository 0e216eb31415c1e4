// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics contains pre-defined metrics for the intake service.
//
// Description:
//
//	Provides standard counters, histograms, and gauges for HTTP requests,
//	classification searches, wizard transitions, session storage, and
//	dataset reloads. All metrics use the "gangway_" prefix for consistent
//	naming.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// --- HTTP Metrics ---

	// HTTPRequestsTotal counts total HTTP requests by method, path, and status.
	HTTPRequestsTotal metric.Int64Counter

	// HTTPRequestDuration records HTTP request duration in seconds.
	HTTPRequestDuration metric.Float64Histogram

	// HTTPActiveRequests tracks currently active HTTP requests.
	HTTPActiveRequests metric.Int64UpDownCounter

	// --- Search Metrics ---

	// SearchesTotal counts classification searches by transport and status.
	SearchesTotal metric.Int64Counter

	// SearchDuration records search duration in seconds.
	SearchDuration metric.Float64Histogram

	// SearchResults records the result count distribution per search.
	SearchResults metric.Int64Histogram

	// --- Wizard Metrics ---

	// WizardTransitionsTotal counts wizard transitions by kind (open,
	// focus, select) and status.
	WizardTransitionsTotal metric.Int64Counter

	// SelectionsTotal counts completed classifications by code level.
	SelectionsTotal metric.Int64Counter

	// --- Session Metrics ---

	// SessionsCreatedTotal counts wizard sessions created.
	SessionsCreatedTotal metric.Int64Counter

	// SessionsActive tracks sessions with at least one open WebSocket.
	SessionsActive metric.Int64UpDownCounter

	// --- WebSocket Metrics ---

	// WSMessagesTotal counts WebSocket messages by direction and kind.
	WSMessagesTotal metric.Int64Counter

	// --- Dataset Metrics ---

	// DatasetReloadsTotal counts successful dataset reloads, the initial
	// load included. Failed reloads surface in logs; the old index stays
	// live so there is no separate failure series.
	DatasetReloadsTotal metric.Int64Counter

	// DatasetNodeCount reports the node count of the live index.
	// Registered separately via RegisterDatasetNodeCount.
	DatasetNodeCount metric.Int64ObservableGauge

	// --- Error Metrics ---

	// ErrorsTotal counts total errors by type and component.
	ErrorsTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
//
// Description:
//
//	Registers all pre-defined metrics with the provided meter.
//	Returns an error if any metric registration fails.
//
// Inputs:
//
//	meter - The OTel meter to use for metric registration.
//
// Outputs:
//
//	*Metrics - The metrics instance with all counters and histograms initialized.
//	error - Non-nil if metric registration fails.
//
// Example:
//
//	meter := otel.Meter("gangway")
//	metrics, err := telemetry.NewMetrics(meter)
//	if err != nil {
//	    return fmt.Errorf("create metrics: %w", err)
//	}
//	metrics.SearchesTotal.Add(ctx, 1, ...)
//
// Thread Safety: Safe for concurrent use after creation.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	// --- HTTP Metrics ---
	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"gangway_http_requests_total",
		metric.WithDescription("Total HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_requests_total: %w", err)
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"gangway_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_request_duration: %w", err)
	}

	m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"gangway_http_active_requests",
		metric.WithDescription("Currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_active_requests: %w", err)
	}

	// --- Search Metrics ---
	m.SearchesTotal, err = meter.Int64Counter(
		"gangway_searches_total",
		metric.WithDescription("Total classification searches"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create searches_total: %w", err)
	}

	m.SearchDuration, err = meter.Float64Histogram(
		"gangway_search_duration_seconds",
		metric.WithDescription("Classification search duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1),
	)
	if err != nil {
		return nil, fmt.Errorf("create search_duration: %w", err)
	}

	m.SearchResults, err = meter.Int64Histogram(
		"gangway_search_results",
		metric.WithDescription("Result count per classification search"),
		metric.WithUnit("{result}"),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 25, 50, 100, 250),
	)
	if err != nil {
		return nil, fmt.Errorf("create search_results: %w", err)
	}

	// --- Wizard Metrics ---
	m.WizardTransitionsTotal, err = meter.Int64Counter(
		"gangway_wizard_transitions_total",
		metric.WithDescription("Total wizard transitions (open, focus, select)"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create wizard_transitions_total: %w", err)
	}

	m.SelectionsTotal, err = meter.Int64Counter(
		"gangway_selections_total",
		metric.WithDescription("Total completed classification selections"),
		metric.WithUnit("{selection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create selections_total: %w", err)
	}

	// --- Session Metrics ---
	m.SessionsCreatedTotal, err = meter.Int64Counter(
		"gangway_sessions_created_total",
		metric.WithDescription("Total wizard sessions created"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sessions_created_total: %w", err)
	}

	m.SessionsActive, err = meter.Int64UpDownCounter(
		"gangway_sessions_active",
		metric.WithDescription("Sessions with an open WebSocket connection"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sessions_active: %w", err)
	}

	// --- WebSocket Metrics ---
	m.WSMessagesTotal, err = meter.Int64Counter(
		"gangway_ws_messages_total",
		metric.WithDescription("Total WebSocket messages by direction and kind"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ws_messages_total: %w", err)
	}

	// --- Dataset Metrics ---
	m.DatasetReloadsTotal, err = meter.Int64Counter(
		"gangway_dataset_reloads_total",
		metric.WithDescription("Successful dataset reloads"),
		metric.WithUnit("{reload}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create dataset_reloads_total: %w", err)
	}

	// Note: DatasetNodeCount requires a callback registration, handled separately

	// --- Error Metrics ---
	m.ErrorsTotal, err = meter.Int64Counter(
		"gangway_errors_total",
		metric.WithDescription("Total errors by type and component"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create errors_total: %w", err)
	}

	return m, nil
}

// RegisterDatasetNodeCount registers a callback for the live index size gauge.
//
// Description:
//
//	Sets up an observable gauge that reports the node count of the
//	currently live classification index. The callback is invoked each
//	time metrics are scraped, so a dataset reload is reflected on the
//	next scrape without any explicit recording.
//
// Inputs:
//
//	meter - The OTel meter to use for registration.
//	countFunc - A function that returns the current node count.
//
// Outputs:
//
//	metric.Registration - Registration handle for cleanup.
//	error - Non-nil if registration fails.
func (m *Metrics) RegisterDatasetNodeCount(meter metric.Meter, countFunc func() int64) (metric.Registration, error) {
	var err error
	m.DatasetNodeCount, err = meter.Int64ObservableGauge(
		"gangway_dataset_node_count",
		metric.WithDescription("Node count of the live classification index"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create dataset_node_count: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(m.DatasetNodeCount, countFunc())
		return nil
	}, m.DatasetNodeCount)
}
