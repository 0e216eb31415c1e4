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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/gangway/services/intake/session"
	"github.com/AleutianAI/gangway/services/taxonomy/loader"
)

// HandleHealth serves GET /health.
//
// Reports the loaded dataset vintage and size so operators can see at a
// glance which taxonomy a replica is serving. The live session count is
// best effort; a store hiccup degrades the field rather than the check.
func HandleHealth(provider *loader.Provider, store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		idx := provider.Index()
		body := gin.H{
			"status":          "ok",
			"dataset_version": idx.Version(),
			"node_count":      idx.Len(),
		}

		if count, err := store.Count(c.Request.Context()); err == nil {
			body["sessions"] = count
		} else {
			slog.Warn("session count unavailable for health check", "error", err)
		}

		c.JSON(http.StatusOK, body)
	}
}
