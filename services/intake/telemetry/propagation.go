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

	"go.opentelemetry.io/otel"
)

// MapCarrier implements propagation.TextMapCarrier for map[string]string.
//
// Description:
//
//	Allows trace context propagation with simple string maps. The
//	WebSocket transport carries trace headers in message metadata
//	maps rather than HTTP headers, so each message can continue the
//	client's trace.
type MapCarrier map[string]string

// Get returns the value for a key.
func (c MapCarrier) Get(key string) string {
	return c[key]
}

// Set sets a key-value pair.
func (c MapCarrier) Set(key, value string) {
	c[key] = value
}

// Keys returns all keys in the carrier.
func (c MapCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// ExtractFromMap extracts trace context from a string map.
//
// Description:
//
//	Useful for extracting trace context from non-HTTP transports like
//	WebSocket messages. Returns the original context when no trace
//	keys are present.
//
// Inputs:
//
//	ctx - Base context to extend.
//	carrier - Map containing trace context keys (e.g. traceparent).
//
// Outputs:
//
//	context.Context - Context with trace information attached.
//
// Example:
//
//	ctx = telemetry.ExtractFromMap(ctx, msg.Trace)
//	ctx, span := telemetry.StartSpan(ctx, "gangway.handlers", "WS.Search")
//
// Thread Safety: Safe for concurrent use.
func ExtractFromMap(ctx context.Context, carrier map[string]string) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, MapCarrier(carrier))
}

// InjectToMap injects trace context into a string map.
//
// Description:
//
//	Propagates trace context through non-HTTP transports. If carrier
//	is nil, a new map is created and returned.
//
// Inputs:
//
//	ctx - Context containing active span information.
//	carrier - Map to inject trace context into. May be nil.
//
// Outputs:
//
//	map[string]string - Map with trace context injected.
//
// Thread Safety: Safe for concurrent use.
func InjectToMap(ctx context.Context, carrier map[string]string) map[string]string {
	if carrier == nil {
		carrier = make(map[string]string)
	}
	otel.GetTextMapPropagator().Inject(ctx, MapCarrier(carrier))
	return carrier
}
