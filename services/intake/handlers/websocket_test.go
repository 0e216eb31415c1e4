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
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/gangway/services/intake/datatypes"
	"github.com/AleutianAI/gangway/services/taxonomy/events"
)

// dialLiveSearch starts a test server around the live search handler and
// dials it, returning the client connection past the session_created
// greeting.
func dialLiveSearch(t *testing.T, emitter *events.Emitter) *websocket.Conn {
	t.Helper()

	router := gin.New()
	router.GET("/v1/classification/ws",
		HandleLiveSearch(newTestProvider(t), newTestMetrics(t), emitter))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/classification/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	var greeting datatypes.WSSessionCreated
	require.NoError(t, ws.ReadJSON(&greeting))
	require.Equal(t, datatypes.WSActionSessionCreated, greeting.Action)
	require.NotEmpty(t, greeting.SessionID)

	return ws
}

// ============================================================================
// HandleLiveSearch Tests
// ============================================================================

func TestHandleLiveSearch_SearchRoundTrip(t *testing.T) {
	ws := dialLiveSearch(t, events.NewEmitter())

	require.NoError(t, ws.WriteJSON(datatypes.WSSearchRequest{
		Action: datatypes.WSActionSearch,
		Seq:    7,
		Query:  "518",
	}))

	var resp datatypes.WSSearchResponse
	require.NoError(t, ws.ReadJSON(&resp))

	assert.Equal(t, datatypes.WSActionSearchResults, resp.Action)
	assert.Equal(t, uint64(7), resp.Seq)
	assert.Equal(t, "518", resp.Query)
	assert.Equal(t, 4, resp.Total)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "518", resp.Results[0].Code)
}

func TestHandleLiveSearch_DropsStaleSequence(t *testing.T) {
	ws := dialLiveSearch(t, events.NewEmitter())

	send := func(seq uint64, query string) {
		require.NoError(t, ws.WriteJSON(datatypes.WSSearchRequest{
			Action: datatypes.WSActionSearch,
			Seq:    seq,
			Query:  query,
		}))
	}

	send(2, "518")
	var resp datatypes.WSSearchResponse
	require.NoError(t, ws.ReadJSON(&resp))
	require.Equal(t, uint64(2), resp.Seq)

	// Sequence 1 arrives after 2 and must be dropped without a reply;
	// the next frame read belongs to sequence 3.
	send(1, "52")
	send(3, "finance")

	require.NoError(t, ws.ReadJSON(&resp))
	assert.Equal(t, uint64(3), resp.Seq)
	assert.Equal(t, "finance", resp.Query)
}

func TestHandleLiveSearch_InvalidMessage(t *testing.T) {
	ws := dialLiveSearch(t, events.NewEmitter())

	require.NoError(t, ws.WriteJSON(map[string]interface{}{
		"action": "subscribe",
		"seq":    9,
	}))

	var resp datatypes.WSErrorResponse
	require.NoError(t, ws.ReadJSON(&resp))

	assert.Equal(t, datatypes.WSActionError, resp.Action)
	assert.Equal(t, uint64(9), resp.Seq)
	assert.Equal(t, "invalid message", resp.Error)

	// The connection stays usable after a rejected message.
	require.NoError(t, ws.WriteJSON(datatypes.WSSearchRequest{
		Action: datatypes.WSActionSearch,
		Seq:    10,
		Query:  "52",
	}))
	var ok datatypes.WSSearchResponse
	require.NoError(t, ws.ReadJSON(&ok))
	assert.Equal(t, uint64(10), ok.Seq)
}

func TestHandleLiveSearch_EmitsSearchEvents(t *testing.T) {
	emitter := events.NewEmitter()
	collector := countEvents(emitter, events.TypeSearchPerformed)
	ws := dialLiveSearch(t, emitter)

	require.NoError(t, ws.WriteJSON(datatypes.WSSearchRequest{
		Action: datatypes.WSActionSearch,
		Seq:    1,
		Query:  "data processing",
	}))

	var resp datatypes.WSSearchResponse
	require.NoError(t, ws.ReadJSON(&resp))

	assert.Equal(t, int64(1), collector.Count(events.TypeSearchPerformed))
}
