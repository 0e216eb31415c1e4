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
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// LoggerWithTrace returns a logger with trace correlation fields attached.
//
// Description:
//
//	Injects trace_id and span_id from the active span into the logger,
//	so log entries can be correlated with traces in Grafana/Loki.
//	Returns the logger unchanged if no valid span is present.
//
// Inputs:
//
//	ctx - Context potentially containing a span. May be nil.
//	logger - Base logger. If nil, slog.Default() is used.
//
// Outputs:
//
//	*slog.Logger - Logger with trace fields, or the base logger.
//
// Example:
//
//	log := telemetry.LoggerWithTrace(ctx, logger)
//	log.Info("search complete", slog.Int("results", n))
//
// Thread Safety: Safe for concurrent use.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		return logger
	}

	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return logger
	}

	return logger.With(
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	)
}

// LoggerWithSession returns a logger scoped to a wizard session.
//
// Description:
//
//	Attaches the session_id field so every log line from one applicant's
//	wizard flow can be filtered together.
//
// Inputs:
//
//	ctx - Context potentially containing a span (trace fields added too).
//	logger - Base logger. If nil, slog.Default() is used.
//	sessionID - Wizard session identifier.
//
// Outputs:
//
//	*slog.Logger - Logger with session_id (and trace fields if present).
//
// Thread Safety: Safe for concurrent use.
func LoggerWithSession(ctx context.Context, logger *slog.Logger, sessionID string) *slog.Logger {
	logger = LoggerWithTrace(ctx, logger)
	return logger.With(slog.String("session_id", sessionID))
}
