// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"strings"
	"testing"
)

// =============================================================================
// WSSearchRequest Validation Tests
// =============================================================================

func TestWSSearchRequest_Validate_Success(t *testing.T) {
	req := &WSSearchRequest{
		Action: WSActionSearch,
		Seq:    1,
		Query:  "data processing",
	}

	if err := req.Validate(); err != nil {
		t.Errorf("expected valid request, got error: %v", err)
	}
}

func TestWSSearchRequest_Validate_EmptyQueryAllowed(t *testing.T) {
	// An empty query is a legal request that returns zero results.
	req := &WSSearchRequest{Action: WSActionSearch, Seq: 2}

	if err := req.Validate(); err != nil {
		t.Errorf("empty query should validate: %v", err)
	}
}

func TestWSSearchRequest_Validate_MissingAction(t *testing.T) {
	req := &WSSearchRequest{Seq: 1, Query: "data"}

	if err := req.Validate(); err == nil {
		t.Error("expected error for missing action, got nil")
	}
}

func TestWSSearchRequest_Validate_WrongAction(t *testing.T) {
	req := &WSSearchRequest{Action: "subscribe", Seq: 1, Query: "data"}

	if err := req.Validate(); err == nil {
		t.Error("expected error for wrong action, got nil")
	}
}

func TestWSSearchRequest_Validate_QueryTooLarge(t *testing.T) {
	req := &WSSearchRequest{
		Action: WSActionSearch,
		Seq:    1,
		Query:  strings.Repeat("a", MaxQueryBytes+1),
	}

	if err := req.Validate(); err == nil {
		t.Error("expected error for oversized query, got nil")
	}
}

func TestWSSearchRequest_Validate_QueryExactlyMax(t *testing.T) {
	req := &WSSearchRequest{
		Action: WSActionSearch,
		Seq:    1,
		Query:  strings.Repeat("a", MaxQueryBytes),
	}

	if err := req.Validate(); err != nil {
		t.Errorf("query at exactly max bytes should validate: %v", err)
	}
}

func TestWSSearchRequest_Validate_LimitTooHigh(t *testing.T) {
	req := &WSSearchRequest{
		Action: WSActionSearch,
		Seq:    1,
		Query:  "data",
		Limit:  MaxSearchLimit + 1,
	}

	if err := req.Validate(); err == nil {
		t.Error("expected error for limit above max, got nil")
	}
}

// =============================================================================
// Server Message Constructor Tests
// =============================================================================

func TestNewWSSessionCreated(t *testing.T) {
	msg := NewWSSessionCreated("abc-123")

	if msg.Action != WSActionSessionCreated {
		t.Errorf("Action = %q, want %q", msg.Action, WSActionSessionCreated)
	}
	if msg.SessionID != "abc-123" {
		t.Errorf("SessionID = %q, want %q", msg.SessionID, "abc-123")
	}
}

func TestNewWSSearchResponse_EchoesSeq(t *testing.T) {
	resp := NewWSSearchResponse(42, "518", testMatches(), 50)

	if resp.Action != WSActionSearchResults {
		t.Errorf("Action = %q, want %q", resp.Action, WSActionSearchResults)
	}
	if resp.Seq != 42 {
		t.Errorf("Seq = %d, want 42", resp.Seq)
	}
	if resp.Query != "518" {
		t.Errorf("Query = %q, want %q", resp.Query, "518")
	}
	if resp.Count != 4 {
		t.Errorf("Count = %d, want 4", resp.Count)
	}
}

func TestNewWSSearchResponse_CutsAtLimit(t *testing.T) {
	resp := NewWSSearchResponse(7, "518", testMatches(), 1)

	if resp.Total != 4 {
		t.Errorf("Total = %d, want 4", resp.Total)
	}
	if resp.Count != 1 {
		t.Errorf("Count = %d, want 1", resp.Count)
	}
	if resp.Results[0].Code != "518" {
		t.Errorf("Results[0].Code = %q, want best match first", resp.Results[0].Code)
	}
}

func TestNewWSError(t *testing.T) {
	msg := NewWSError(9, "invalid message")

	if msg.Action != WSActionError {
		t.Errorf("Action = %q, want %q", msg.Action, WSActionError)
	}
	if msg.Seq != 9 {
		t.Errorf("Seq = %d, want 9", msg.Seq)
	}
	if msg.Error != "invalid message" {
		t.Errorf("Error = %q", msg.Error)
	}
}
