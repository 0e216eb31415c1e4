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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/gangway/services/intake/session"
	"github.com/AleutianAI/gangway/services/intake/storage/badger"
	"github.com/AleutianAI/gangway/services/intake/telemetry"
	"github.com/AleutianAI/gangway/services/taxonomy/events"
	"github.com/AleutianAI/gangway/services/taxonomy/loader"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ============================================================================
// Test Setup
// ============================================================================

// handlerDataset is a small but structurally complete slice of the 2022
// NAICS release: one full chain from sector to national industry plus a
// second sector so root columns and title search have more than one hit.
const handlerDataset = `{
  "version": "2022",
  "entries": [
    {"code": "51", "title": "Information"},
    {"code": "518", "title": "Computing Infrastructure Providers, Data Processing, Web Hosting, and Related Services", "parent": "51"},
    {"code": "5182", "title": "Data Processing, Hosting, and Related Services", "parent": "518"},
    {"code": "51821", "title": "Data Processing, Hosting, and Related Services", "parent": "5182"},
    {"code": "518210", "title": "Data Processing, Hosting, and Related Services", "parent": "51821"},
    {"code": "52", "title": "Finance and Insurance"},
    {"code": "522", "title": "Credit Intermediation and Related Activities", "parent": "52"}
  ]
}`

// newTestProvider loads handlerDataset from a temp file and returns a live
// provider. Tests share the provider read-only, so no reload plumbing is
// wired here.
func newTestProvider(t *testing.T) *loader.Provider {
	t.Helper()

	path := filepath.Join(t.TempDir(), "naics.json")
	require.NoError(t, os.WriteFile(path, []byte(handlerDataset), 0o644))

	provider, err := loader.NewProvider(context.Background(), path)
	require.NoError(t, err)
	return provider
}

// newTestSessionStore opens an in-memory Badger store scoped to the test.
func newTestSessionStore(t *testing.T) session.Store {
	t.Helper()

	db, err := badger.OpenDB(badger.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := session.NewBadgerStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

// newTestMetrics builds the metric set against the global meter provider.
// Without telemetry.Init the instruments are no-ops, which is exactly what
// handler tests want.
func newTestMetrics(t *testing.T) *telemetry.Metrics {
	t.Helper()

	metrics, err := telemetry.NewMetrics(otel.Meter("handlers_test"))
	require.NoError(t, err)
	return metrics
}

func createTestRouter(method, path string, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	switch method {
	case http.MethodPost:
		router.POST(path, handler)
	case http.MethodGet:
		router.GET(path, handler)
	case http.MethodDelete:
		router.DELETE(path, handler)
	}
	return router
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeBody unmarshals a recorded JSON response into out, failing the test
// on malformed payloads.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

// countEvents subscribes a collector for the given types and returns it.
func countEvents(emitter *events.Emitter, types ...events.Type) *events.MetricsCollector {
	collector := events.NewMetricsCollector()
	emitter.Subscribe(collector.Handler(), types...)
	return collector
}
