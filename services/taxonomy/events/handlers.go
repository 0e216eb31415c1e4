// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package events

import (
	"sync"

	"github.com/AleutianAI/gangway/pkg/logging"
)

// NewLoggingHandler returns a Handler that writes each event to a logger.
//
// Description:
//
//	Selection and reload events land at Info; the chattier focus, column,
//	and search events at Debug. Subscribe it for the types you want:
//
//	emitter.Subscribe(events.NewLoggingHandler(logger))
func NewLoggingHandler(logger *logging.Logger) Handler {
	return func(event *Event) {
		args := []any{
			"event_id", event.ID,
			"event_type", string(event.Type),
		}
		if event.SessionID != "" {
			args = append(args, "session_id", event.SessionID)
		}

		switch data := event.Data.(type) {
		case *NodeSelectedData:
			args = append(args, "code", data.Code, "level", data.Level)
			logger.Info("classification selected", args...)
		case *DatasetReloadedData:
			args = append(args, "version", data.Version, "node_count", data.NodeCount)
			logger.Info("dataset reloaded", args...)
		case *NodeFocusedData:
			args = append(args, "code", data.Code, "column_count", data.ColumnCount)
			logger.Debug("node focused", args...)
		case *ColumnOpenedData:
			args = append(args, "version", data.Version, "root_count", data.RootCount)
			logger.Debug("wizard opened", args...)
		case *SearchPerformedData:
			args = append(args, "result_count", data.ResultCount, "duration_ms", data.Duration.Milliseconds())
			logger.Debug("search performed", args...)
		default:
			logger.Debug("wizard event", args...)
		}
	}
}

// MetricsCollector counts events by type.
//
// Description:
//
//	A lightweight in-process collector for callers that want wizard funnel
//	numbers (opens vs. selections, searches per session) without wiring a
//	metrics backend. Subscribe its Handler to an Emitter and read counts
//	back with Count or Snapshot.
//
// Thread Safety:
//
//	Safe for concurrent use.
type MetricsCollector struct {
	mu     sync.RWMutex
	counts map[Type]int64
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counts: make(map[Type]int64),
	}
}

// Handler returns the Handler to subscribe to an Emitter.
func (c *MetricsCollector) Handler() Handler {
	return func(event *Event) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.counts[event.Type]++
	}
}

// Count returns the number of events seen for a type.
func (c *MetricsCollector) Count(eventType Type) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts[eventType]
}

// Snapshot returns a copy of all counts.
func (c *MetricsCollector) Snapshot() map[Type]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[Type]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}
