// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request and response types for the intake
// service.
//
// This file contains the wizard session endpoint types. For search types
// see search.go, for WebSocket message types see ws.go.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/gangway/pkg/validation"
	"github.com/AleutianAI/gangway/services/intake/session"
	"github.com/AleutianAI/gangway/services/taxonomy"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// intakeValidate is the validator instance for intake datatypes.
// Initialized in init() with custom validators.
var intakeValidate *validator.Validate

func init() {
	intakeValidate = validator.New()

	// classcode enforces the 2-6 digit code syntax before any lookup runs.
	_ = intakeValidate.RegisterValidation("classcode", validateClassCode)

	// maxbytes caps free-text query size to prevent oversized payloads.
	_ = intakeValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateClassCode validates that a string field is a syntactically valid
// classification code (2-6 digits).
//
// # Inputs
//
//   - fl: Validator field level containing the string to validate
//
// # Outputs
//
//   - bool: true if the field parses as a classification code
func validateClassCode(fl validator.FieldLevel) bool {
	return validation.ValidateCode(fl.Field().String()) == nil
}

// validateMaxBytes validates that a string field does not exceed
// MaxQueryBytes. Checks byte length, not rune count.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxQueryBytes
}

// =============================================================================
// Wizard Request Types
// =============================================================================

// CodeRequest is the body for focus and select calls.
//
// # Description
//
// Both POST /v1/wizard/sessions/:id/focus and /select take a single
// classification code. The code must be syntactically valid (2-6 digits);
// whether it exists in the loaded taxonomy is checked by the cascade, not
// here.
//
// # Validation
//
//   - Code: required, classcode (2-6 digits)
type CodeRequest struct {
	Code string `json:"code" validate:"required,classcode"`
}

// Validate validates the CodeRequest fields.
func (r *CodeRequest) Validate() error {
	return intakeValidate.Struct(r)
}

// =============================================================================
// Wizard Response Types
// =============================================================================

// NodeView is the API projection of a taxonomy node.
//
// # Description
//
// Flattens the internal node for JSON clients: level is precomputed from
// the code length and has_children saves the client a second round trip
// when deciding whether a column can drill deeper.
type NodeView struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Level       int    `json:"level"`
	Parent      string `json:"parent,omitempty"`
	HasChildren bool   `json:"has_children"`
}

// NewNodeView projects a taxonomy node into its API shape.
func NewNodeView(n *taxonomy.Node) NodeView {
	return NodeView{
		Code:        n.Code,
		Title:       n.Title,
		Level:       n.Level(),
		Parent:      n.ParentCode,
		HasChildren: len(n.Children) > 0,
	}
}

// NewNodeViews projects a slice of taxonomy nodes.
func NewNodeViews(nodes []*taxonomy.Node) []NodeView {
	views := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, NewNodeView(n))
	}
	return views
}

// SessionResponse is the API view of a wizard session.
//
// # Fields
//
//   - SessionID: The session identifier to use in subsequent wizard calls.
//   - DatasetVersion: Taxonomy version the session was opened against.
//   - CreatedAt / UpdatedAt: RFC 3339 timestamps.
//   - FocusedCode / SelectedCode: Current wizard position, empty until set.
//   - Trail: Ancestor chain codes of the committed selection, root first;
//     empty until the first select.
type SessionResponse struct {
	SessionID      string    `json:"session_id"`
	DatasetVersion string    `json:"dataset_version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	FocusedCode    string    `json:"focused_code,omitempty"`
	SelectedCode   string    `json:"selected_code,omitempty"`
	Trail          []string  `json:"trail,omitempty"`
}

// NewSessionResponse converts a stored session into its API shape.
func NewSessionResponse(s *session.Session) *SessionResponse {
	return &SessionResponse{
		SessionID:      s.ID,
		DatasetVersion: s.DatasetVersion,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		FocusedCode:    s.FocusedCode,
		SelectedCode:   s.SelectedCode,
		Trail:          s.Trail,
	}
}

// ColumnsResponse carries the cascade columns for a session.
//
// # Description
//
// Columns are ordered left to right: column 0 lists the sector roots,
// column i+1 lists the children of the focused node at level i. A fresh
// session has exactly one column.
type ColumnsResponse struct {
	SessionID string       `json:"session_id"`
	Columns   [][]NodeView `json:"columns"`
}

// NewColumnsResponse projects cascade columns into their API shape.
func NewColumnsResponse(sessionID string, columns [][]*taxonomy.Node) *ColumnsResponse {
	out := make([][]NodeView, 0, len(columns))
	for _, col := range columns {
		out = append(out, NewNodeViews(col))
	}
	return &ColumnsResponse{SessionID: sessionID, Columns: out}
}

// TrailResponse carries the breadcrumb chain for a session or code.
type TrailResponse struct {
	SessionID string     `json:"session_id,omitempty"`
	Code      string     `json:"code,omitempty"`
	Trail     []NodeView `json:"trail"`
}

// NewTrailResponse projects an ancestor chain into its API shape.
func NewTrailResponse(sessionID, code string, trail []*taxonomy.Node) *TrailResponse {
	return &TrailResponse{
		SessionID: sessionID,
		Code:      code,
		Trail:     NewNodeViews(trail),
	}
}

// SelectionResponse is returned when a selection is committed.
type SelectionResponse struct {
	SessionID string     `json:"session_id"`
	Selected  NodeView   `json:"selected"`
	Trail     []NodeView `json:"trail"`
}

// =============================================================================
// Error Response Type
// =============================================================================

// ErrorResponse is the uniform error body for all intake endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewErrorResponse wraps an error message in the standard error body.
func NewErrorResponse(msg string) *ErrorResponse {
	return &ErrorResponse{Error: msg}
}
