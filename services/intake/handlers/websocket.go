package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/gangway/services/intake/datatypes"
	"github.com/AleutianAI/gangway/services/intake/telemetry"
	"github.com/AleutianAI/gangway/services/taxonomy/events"
	"github.com/AleutianAI/gangway/services/taxonomy/loader"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 16 * 1024,
}

func sendJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// HandleLiveSearch serves GET /v1/classification/ws.
//
// Live search over one WebSocket connection. Each client message carries a
// strictly increasing sequence number; the response echoes it so the client
// can discard answers for queries it has already superseded. The server
// drops any message whose sequence is at or below the highest it has
// processed, so a slow query can never clobber a fresh one. The search
// engine itself stays synchronous and unaware of any of this.
func HandleLiveSearch(provider *loader.Provider, metrics *telemetry.Metrics, emitter *events.Emitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()

		ctx := c.Request.Context()

		// --- WebSocket Connection State ---
		connID := uuid.New().String()
		var lastSeq uint64
		var seenSeq bool
		slog.Info("Live search client connected", "connID", connID)

		metrics.SessionsActive.Add(ctx, 1)
		defer metrics.SessionsActive.Add(ctx, -1)

		// --- Send connection ID to client immediately on connect ---
		if err := sendJSON(ws, datatypes.NewWSSessionCreated(connID)); err != nil {
			return // Close if we can't even send the first message
		}

		for {
			var req datatypes.WSSearchRequest
			if err := ws.ReadJSON(&req); err != nil {
				slog.Info("Live search client disconnected", "connID", connID, "error", err.Error())
				break
			}

			action := "invalid"
			if req.Action == datatypes.WSActionSearch {
				action = req.Action
			}
			metrics.WSMessagesTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("action", action),
			))

			if err := req.Validate(); err != nil {
				if err := sendJSON(ws, datatypes.NewWSError(req.Seq, "invalid message")); err != nil {
					return
				}
				continue
			}

			// Stale sequence: the client has already sent something newer.
			if seenSeq && req.Seq <= lastSeq {
				slog.Debug("Dropping stale search message",
					"connID", connID, "seq", req.Seq, "last_seq", lastSeq)
				continue
			}
			lastSeq, seenSeq = req.Seq, true

			// Join the client's trace when the message carries one.
			msgCtx := telemetry.ExtractFromMap(ctx, req.Trace)
			msgCtx, span := intakeTracer.Start(msgCtx, "HandleLiveSearch.Search")

			start := time.Now()
			matches := provider.Engine().Search(req.Query)
			elapsed := time.Since(start)

			span.SetAttributes(
				attribute.Int64("seq", int64(req.Seq)),
				attribute.Int("result_count", len(matches)),
			)

			attrs := metric.WithAttributes(attribute.String("source", "websocket"))
			metrics.SearchesTotal.Add(msgCtx, 1, attrs)
			metrics.SearchDuration.Record(msgCtx, elapsed.Seconds(), attrs)
			metrics.SearchResults.Record(msgCtx, int64(len(matches)), attrs)

			emitter.Emit(events.TypeSearchPerformed, &events.SearchPerformedData{
				Query:       eventQuery(req.Query),
				ResultCount: len(matches),
				Duration:    elapsed,
			})
			span.End()

			limit := datatypes.ClampSearchLimit(req.Limit)
			if err := sendJSON(ws, datatypes.NewWSSearchResponse(req.Seq, req.Query, matches, limit)); err != nil {
				return
			}
		}
	}
}
