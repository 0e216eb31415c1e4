// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// This file contains the classification search types shared by the HTTP
// and WebSocket search surfaces.
package datatypes

import (
	"github.com/AleutianAI/gangway/services/taxonomy"
)

// =============================================================================
// Search Limits
// =============================================================================

const (
	// DefaultSearchLimit is applied when a request names no limit.
	DefaultSearchLimit = 50

	// MinSearchLimit and MaxSearchLimit bound caller-supplied limits.
	MinSearchLimit = 1
	MaxSearchLimit = 200

	// MaxQueryBytes is the maximum size of a free-text search query on
	// the WebSocket surface. Oversized queries are rejected, not truncated.
	MaxQueryBytes = 1024 // 1KB
)

// ClampSearchLimit normalizes a caller-supplied result limit.
//
// # Description
//
// Zero (absent) becomes DefaultSearchLimit; anything outside
// [MinSearchLimit, MaxSearchLimit] is pulled to the nearest bound. The
// search engine itself never caps results; the cut happens after ranking,
// so a clamped limit always trims from the tail of the full ordering.
func ClampSearchLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultSearchLimit
	case limit < MinSearchLimit:
		return MinSearchLimit
	case limit > MaxSearchLimit:
		return MaxSearchLimit
	default:
		return limit
	}
}

// =============================================================================
// Search Response Types
// =============================================================================

// SearchResult is one ranked hit.
//
// # Fields
//
//   - Code / Title / Level: The matched node.
//   - Rank: How the node matched; "exact_code", "code_prefix", or "title".
//     Results arrive rank-ascending, so exact hits always lead.
type SearchResult struct {
	Code  string `json:"code"`
	Title string `json:"title"`
	Level int    `json:"level"`
	Rank  string `json:"rank"`
}

// NewSearchResult projects an engine match into its API shape.
func NewSearchResult(m taxonomy.Match) SearchResult {
	return SearchResult{
		Code:  m.Node.Code,
		Title: m.Node.Title,
		Level: m.Node.Level(),
		Rank:  m.Rank.String(),
	}
}

// SearchResponse is the body for search requests.
//
// # Fields
//
//   - Query: Echo of the (raw) query string.
//   - Total: Number of matches before the limit cut.
//   - Count: Number of results returned (len(Results)).
//   - Results: Ranked matches, best first.
type SearchResponse struct {
	Query   string         `json:"query"`
	Total   int            `json:"total"`
	Count   int            `json:"count"`
	Results []SearchResult `json:"results"`
}

// NewSearchResponse builds a response from ranked matches, cutting at limit.
//
// # Inputs
//
//   - query: The raw query string to echo back.
//   - matches: Full ranked match list from the engine.
//   - limit: Maximum results to include. Callers should clamp first.
//
// # Outputs
//
//   - *SearchResponse: Response with at most limit results and the
//     pre-cut total preserved.
func NewSearchResponse(query string, matches []taxonomy.Match, limit int) *SearchResponse {
	total := len(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, NewSearchResult(m))
	}

	return &SearchResponse{
		Query:   query,
		Total:   total,
		Count:   len(results),
		Results: results,
	}
}
