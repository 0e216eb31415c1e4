// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package events provides event types and handling for the intake wizard.
//
// Events allow external systems to observe wizard behavior, collect metrics,
// and implement logging without coupling to the cascade or loader
// implementations.
//
// Thread Safety:
//
//	All types in this package are designed for concurrent use.
package events

import "time"

// Type identifies the kind of event.
type Type string

const (
	// TypeColumnOpened is emitted when a wizard opens its root column.
	TypeColumnOpened Type = "column_opened"

	// TypeNodeFocused is emitted when focus moves to a classification node.
	TypeNodeFocused Type = "node_focused"

	// TypeNodeSelected is emitted when a node is selected as the answer.
	TypeNodeSelected Type = "node_selected"

	// TypeSearchPerformed is emitted after a classification search runs.
	TypeSearchPerformed Type = "search_performed"

	// TypeDatasetReloaded is emitted when the provider swaps in a freshly
	// built index.
	TypeDatasetReloaded Type = "dataset_reloaded"
)

// Event represents a wizard event.
//
// Description:
//
//	Events are the primary mechanism for observing wizard behavior. Each
//	event has a type that determines the structure of its Data field. Use
//	the matching typed data struct (ColumnOpenedData, NodeSelectedData,
//	etc.) when setting the Data field.
//
// Thread Safety:
//
//	Event structs should be treated as immutable after creation.
type Event struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`

	// Type identifies the kind of event.
	Type Type `json:"type"`

	// SessionID links the event to a wizard session, when one exists.
	SessionID string `json:"session_id,omitempty"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Data contains event-specific data. Should be one of the typed data
	// structs: ColumnOpenedData, NodeFocusedData, NodeSelectedData,
	// SearchPerformedData, or DatasetReloadedData.
	Data any `json:"data,omitempty"`

	// Metadata contains typed additional context for the event.
	Metadata *EventMetadata `json:"metadata,omitempty"`
}

// ColumnOpenedData is the data for column opened events.
type ColumnOpenedData struct {
	// Version is the taxonomy vintage backing the wizard.
	Version string `json:"version"`

	// RootCount is the number of sectors in the root column.
	RootCount int `json:"root_count"`
}

// NodeFocusedData is the data for node focused events.
type NodeFocusedData struct {
	// Code is the focused classification code.
	Code string `json:"code"`

	// Level is the hierarchy depth of the focused node.
	Level int `json:"level"`

	// ColumnCount is the number of materialized columns after the focus.
	ColumnCount int `json:"column_count"`
}

// NodeSelectedData is the data for node selected events.
type NodeSelectedData struct {
	// Code is the selected classification code.
	Code string `json:"code"`

	// Level is the hierarchy depth of the selected node.
	Level int `json:"level"`

	// Trail is the root-first lineage of codes ending at the selection.
	Trail []string `json:"trail"`
}

// SearchPerformedData is the data for search performed events.
type SearchPerformedData struct {
	// Query is the normalized search term, truncated to 200 characters.
	// Applicant free text ends up here; downstream sinks must treat it
	// accordingly.
	Query string `json:"query"`

	// ResultCount is the number of matches returned.
	ResultCount int `json:"result_count"`

	// Duration is how long the search took.
	Duration time.Duration `json:"duration"`
}

// DatasetReloadedData is the data for dataset reloaded events.
type DatasetReloadedData struct {
	// Version is the vintage of the freshly built index.
	Version string `json:"version"`

	// NodeCount is the number of nodes in the new index.
	NodeCount int `json:"node_count"`

	// Source is the dataset path or URL the reload came from.
	Source string `json:"source,omitempty"`
}
