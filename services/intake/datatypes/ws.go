// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// This file contains the WebSocket message envelope for live search.
package datatypes

import (
	"github.com/AleutianAI/gangway/services/taxonomy"
)

// =============================================================================
// WebSocket Actions
// =============================================================================

const (
	// WSActionSearch is sent by the client to run a live search.
	WSActionSearch = "search"

	// WSActionSessionCreated is sent by the server immediately after the
	// connection upgrades.
	WSActionSessionCreated = "session_created"

	// WSActionSearchResults carries ranked results back to the client.
	WSActionSearchResults = "search_results"

	// WSActionError reports a per-message failure without closing the
	// connection.
	WSActionError = "error"
)

// =============================================================================
// Client Messages
// =============================================================================

// WSSearchRequest is a live-search message from the client.
//
// # Description
//
// Each keystroke sends a new request with a strictly increasing Seq. The
// server echoes Seq on the response so the client can discard answers that
// arrive after a newer query was already sent. The server additionally
// drops requests whose Seq is at or below the highest already processed on
// the connection, so a slow search can never overwrite a fresh one.
//
// # Fields
//
//   - Action: Must be "search".
//   - Seq: Client-assigned sequence number, strictly increasing per
//     connection.
//   - Query: Free-text query. Empty queries return zero results.
//   - Limit: Optional result cap; clamped to [1, 200], default 50.
//   - Trace: Optional W3C trace context (traceparent et al.) so the search
//     span joins the client's trace.
//
// # Validation
//
//   - Action: required, must equal "search"
//   - Query: max 1024 bytes
//   - Limit: 0-200
type WSSearchRequest struct {
	Action string            `json:"action" validate:"required,eq=search"`
	Seq    uint64            `json:"seq"`
	Query  string            `json:"query" validate:"maxbytes"`
	Limit  int               `json:"limit" validate:"gte=0,lte=200"`
	Trace  map[string]string `json:"trace,omitempty"`
}

// Validate validates the WSSearchRequest fields.
func (r *WSSearchRequest) Validate() error {
	return intakeValidate.Struct(r)
}

// =============================================================================
// Server Messages
// =============================================================================

// WSSessionCreated announces the connection's session ID.
type WSSessionCreated struct {
	Action    string `json:"action"`
	SessionID string `json:"sessionId"`
}

// NewWSSessionCreated builds the post-upgrade greeting.
func NewWSSessionCreated(sessionID string) *WSSessionCreated {
	return &WSSessionCreated{
		Action:    WSActionSessionCreated,
		SessionID: sessionID,
	}
}

// WSSearchResponse carries ranked results for one request.
//
// Seq echoes the request's sequence number unchanged.
type WSSearchResponse struct {
	Action  string         `json:"action"`
	Seq     uint64         `json:"seq"`
	Query   string         `json:"query"`
	Total   int            `json:"total"`
	Count   int            `json:"count"`
	Results []SearchResult `json:"results"`
}

// NewWSSearchResponse builds a live-search response, cutting at limit.
func NewWSSearchResponse(seq uint64, query string, matches []taxonomy.Match, limit int) *WSSearchResponse {
	resp := NewSearchResponse(query, matches, limit)
	return &WSSearchResponse{
		Action:  WSActionSearchResults,
		Seq:     seq,
		Query:   resp.Query,
		Total:   resp.Total,
		Count:   resp.Count,
		Results: resp.Results,
	}
}

// WSErrorResponse reports a failure for one message.
type WSErrorResponse struct {
	Action string `json:"action"`
	Seq    uint64 `json:"seq"`
	Error  string `json:"error"`
}

// NewWSError builds a per-message error response.
func NewWSError(seq uint64, msg string) *WSErrorResponse {
	return &WSErrorResponse{
		Action: WSActionError,
		Seq:    seq,
		Error:  msg,
	}
}
