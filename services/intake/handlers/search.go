// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/gangway/services/intake/datatypes"
	"github.com/AleutianAI/gangway/services/intake/telemetry"
	"github.com/AleutianAI/gangway/services/taxonomy/events"
	"github.com/AleutianAI/gangway/services/taxonomy/loader"
)

var intakeTracer = otel.Tracer("gangway.intake.handlers")

// HandleSearch serves GET /v1/classification/search.
//
// Query parameters:
//
//   - q: free-text query. Empty or whitespace-only returns zero results.
//   - limit: optional result cap, clamped to [1, 200], default 50. The
//     engine ranks the full result set first; the cut trims the tail.
func HandleSearch(provider *loader.Provider, metrics *telemetry.Metrics, emitter *events.Emitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := intakeTracer.Start(c.Request.Context(), "HandleSearch")
		defer span.End()

		query := c.Query("q")
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("limit must be an integer"))
				return
			}
			limit = n
		}
		limit = datatypes.ClampSearchLimit(limit)

		start := time.Now()
		matches := provider.Engine().Search(query)
		elapsed := time.Since(start)

		span.SetAttributes(
			attribute.Int("result_count", len(matches)),
			attribute.Int("limit", limit),
		)

		attrs := metric.WithAttributes(attribute.String("source", "http"))
		metrics.SearchesTotal.Add(ctx, 1, attrs)
		metrics.SearchDuration.Record(ctx, elapsed.Seconds(), attrs)
		metrics.SearchResults.Record(ctx, int64(len(matches)), attrs)

		emitter.Emit(events.TypeSearchPerformed, &events.SearchPerformedData{
			Query:       eventQuery(query),
			ResultCount: len(matches),
			Duration:    elapsed,
		})

		c.JSON(http.StatusOK, datatypes.NewSearchResponse(query, matches, limit))
	}
}

// eventQuery normalizes applicant free text for event payloads: lowercase,
// collapsed whitespace, truncated to 200 characters.
func eventQuery(q string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(q), " "))
	if len(norm) > 200 {
		norm = norm[:200]
	}
	return norm
}
