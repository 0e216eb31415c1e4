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
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/gangway/services/intake/datatypes"
	"github.com/AleutianAI/gangway/services/intake/session"
	"github.com/AleutianAI/gangway/services/intake/telemetry"
	"github.com/AleutianAI/gangway/services/taxonomy"
	"github.com/AleutianAI/gangway/services/taxonomy/cascade"
	"github.com/AleutianAI/gangway/services/taxonomy/events"
	"github.com/AleutianAI/gangway/services/taxonomy/loader"
)

// HandleOpenSession serves POST /v1/wizard/sessions.
//
// Opens a fresh wizard session pinned to the currently loaded dataset
// version and returns it with status 201.
func HandleOpenSession(provider *loader.Provider, store session.Store, metrics *telemetry.Metrics, emitter *events.Emitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := intakeTracer.Start(c.Request.Context(), "HandleOpenSession")
		defer span.End()

		idx := provider.Index()
		sess, err := store.Create(ctx, idx.Version())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			telemetry.LoggerWithTrace(ctx, slog.Default()).Error("failed to create wizard session", "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("failed to create session"))
			return
		}

		metrics.SessionsCreatedTotal.Add(ctx, 1)
		metrics.WizardTransitionsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", "open"),
		))
		emitter.Emit(events.TypeColumnOpened, &events.ColumnOpenedData{
			Version:   idx.Version(),
			RootCount: len(idx.Roots()),
		})

		c.JSON(http.StatusCreated, datatypes.NewSessionResponse(sess))
	}
}

// HandleGetSession serves GET /v1/wizard/sessions/:id.
func HandleGetSession(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := intakeTracer.Start(c.Request.Context(), "HandleGetSession")
		defer span.End()

		sess, ok := loadSession(ctx, c, store)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, datatypes.NewSessionResponse(sess))
	}
}

// HandleDeleteSession serves DELETE /v1/wizard/sessions/:id.
//
// Deleting an unknown or already-expired session still returns 204; the
// end state is the same either way.
func HandleDeleteSession(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := intakeTracer.Start(c.Request.Context(), "HandleDeleteSession")
		defer span.End()

		err := store.Delete(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, session.ErrEmptySessionID) {
				c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("session id required"))
				return
			}
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			telemetry.LoggerWithTrace(ctx, slog.Default()).Error("failed to delete wizard session", "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("failed to delete session"))
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// HandleFocus serves POST /v1/wizard/sessions/:id/focus.
//
// Moves the wizard's highlight to a code and persists the new position.
// Focusing never commits a selection.
func HandleFocus(provider *loader.Provider, store session.Store, metrics *telemetry.Metrics, emitter *events.Emitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := intakeTracer.Start(c.Request.Context(), "HandleFocus")
		defer span.End()

		var req datatypes.CodeRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("invalid request body"))
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("invalid classification code"))
			return
		}

		sess, ok := loadSession(ctx, c, store)
		if !ok {
			return
		}

		idx := provider.Index()
		syncDatasetVersion(sess, idx.Version())
		ctrl, err := rehydrate(idx, sess)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("wizard unavailable"))
			return
		}

		if err := ctrl.Focus(req.Code); err != nil {
			c.JSON(http.StatusNotFound, datatypes.NewErrorResponse("unknown classification code"))
			return
		}

		node, _ := ctrl.Focused()
		sess.FocusedCode = node.Code

		if err := store.Save(ctx, sess); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			telemetry.LoggerWithTrace(ctx, slog.Default()).Error("failed to save wizard session", "error", err, "session_id", sess.ID)
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("failed to save session"))
			return
		}

		metrics.WizardTransitionsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", "focus"),
		))
		emitter.Emit(events.TypeNodeFocused, &events.NodeFocusedData{
			Code:        node.Code,
			Level:       node.Level(),
			ColumnCount: len(ctrl.GetColumns()),
		})

		c.JSON(http.StatusOK, datatypes.NewSessionResponse(sess))
	}
}

// HandleSelect serves POST /v1/wizard/sessions/:id/select.
//
// Commits a classification. Selecting also focuses, so the columns and
// trail afterwards reflect the selected code.
func HandleSelect(provider *loader.Provider, store session.Store, metrics *telemetry.Metrics, emitter *events.Emitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := intakeTracer.Start(c.Request.Context(), "HandleSelect")
		defer span.End()

		var req datatypes.CodeRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("invalid request body"))
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("invalid classification code"))
			return
		}

		sess, ok := loadSession(ctx, c, store)
		if !ok {
			return
		}

		idx := provider.Index()
		syncDatasetVersion(sess, idx.Version())
		ctrl, err := rehydrate(idx, sess)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("wizard unavailable"))
			return
		}

		sel, err := ctrl.Select(req.Code)
		if err != nil {
			c.JSON(http.StatusNotFound, datatypes.NewErrorResponse("unknown classification code"))
			return
		}

		sess.FocusedCode = sel.Node.Code
		sess.SelectedCode = sel.Node.Code
		sess.Trail = trailCodes(sel.Trail)

		if err := store.Save(ctx, sess); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			telemetry.LoggerWithTrace(ctx, slog.Default()).Error("failed to save wizard session", "error", err, "session_id", sess.ID)
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("failed to save session"))
			return
		}

		metrics.WizardTransitionsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", "select"),
		))
		metrics.SelectionsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.Int("level", sel.Node.Level()),
		))
		emitter.Emit(events.TypeNodeSelected, &events.NodeSelectedData{
			Code:  sel.Node.Code,
			Level: sel.Node.Level(),
			Trail: trailCodes(sel.Trail),
		})

		c.JSON(http.StatusOK, &datatypes.SelectionResponse{
			SessionID: sess.ID,
			Selected:  datatypes.NewNodeView(sel.Node),
			Trail:     datatypes.NewNodeViews(sel.Trail),
		})
	}
}

// HandleColumns serves GET /v1/wizard/sessions/:id/columns.
//
// Read-only: a stale position (code gone after a dataset swap) falls back
// to the root column for this response without rewriting the session.
func HandleColumns(provider *loader.Provider, store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := intakeTracer.Start(c.Request.Context(), "HandleColumns")
		defer span.End()

		sess, ok := loadSession(ctx, c, store)
		if !ok {
			return
		}

		idx := provider.Index()
		syncDatasetVersion(sess, idx.Version())
		ctrl, err := rehydrate(idx, sess)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("wizard unavailable"))
			return
		}

		c.JSON(http.StatusOK, datatypes.NewColumnsResponse(sess.ID, ctrl.GetColumns()))
	}
}

// HandleSessionTrail serves GET /v1/wizard/sessions/:id/trail.
//
// The trail is the breadcrumb of the committed selection. Before the first
// select it is empty; focus changes do not move it.
func HandleSessionTrail(provider *loader.Provider, store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := intakeTracer.Start(c.Request.Context(), "HandleSessionTrail")
		defer span.End()

		sess, ok := loadSession(ctx, c, store)
		if !ok {
			return
		}

		idx := provider.Index()
		syncDatasetVersion(sess, idx.Version())
		ctrl, err := rehydrate(idx, sess)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("wizard unavailable"))
			return
		}

		c.JSON(http.StatusOK, datatypes.NewTrailResponse(sess.ID, sess.SelectedCode, ctrl.GetTrail()))
	}
}

// =============================================================================
// Session Helpers
// =============================================================================

// loadSession fetches the session named in the :id path parameter. When it
// returns false the error response has already been written.
func loadSession(ctx context.Context, c *gin.Context, store session.Store) (*session.Session, bool) {
	sess, err := store.Get(ctx, c.Param("id"))
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, datatypes.NewErrorResponse("session not found"))
		return nil, false
	case errors.Is(err, session.ErrEmptySessionID):
		c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("session id required"))
		return nil, false
	case err != nil:
		telemetry.LoggerWithTrace(ctx, slog.Default()).Error("failed to load wizard session", "error", err)
		c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("failed to load session"))
		return nil, false
	}
	return sess, true
}

// syncDatasetVersion clears a session's wizard position when the taxonomy
// was swapped underneath it. Codes from the old vintage may not exist in
// the new one, so the wizard restarts from the root column.
func syncDatasetVersion(sess *session.Session, version string) {
	if sess.DatasetVersion == version {
		return
	}
	sess.DatasetVersion = version
	sess.FocusedCode = ""
	sess.SelectedCode = ""
	sess.Trail = nil
}

// rehydrate rebuilds a cascade controller at the session's stored position.
//
// The controller is constructed without an emitter: replaying stored
// transitions must not re-announce them. The handlers emit events
// themselves for the one transition each request actually performs.
// The selection is replayed before the focus so the trail survives a
// focus that wandered away from the selected code. A stored code that no
// longer resolves clears that part of the position instead of failing;
// the wizard falls back to the root column.
func rehydrate(idx *taxonomy.Index, sess *session.Session) (*cascade.Controller, error) {
	ctrl, err := cascade.New(idx)
	if err != nil {
		return nil, err
	}
	ctrl.Open()

	if sess.SelectedCode != "" {
		if _, err := ctrl.Select(sess.SelectedCode); err != nil {
			sess.SelectedCode = ""
			sess.Trail = nil
		}
	}
	if sess.FocusedCode != "" {
		if err := ctrl.Focus(sess.FocusedCode); err != nil {
			sess.FocusedCode = ""
		}
	}

	return ctrl, nil
}

// trailCodes flattens a node chain to its codes, root first.
func trailCodes(nodes []*taxonomy.Node) []string {
	if len(nodes) == 0 {
		return nil
	}
	codes := make([]string, 0, len(nodes))
	for _, n := range nodes {
		codes = append(codes, n.Code)
	}
	return codes
}
