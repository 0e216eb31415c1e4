// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/gangway/services/intake/handlers"
	"github.com/AleutianAI/gangway/services/intake/middleware"
	"github.com/AleutianAI/gangway/services/intake/session"
	"github.com/AleutianAI/gangway/services/intake/telemetry"
	"github.com/AleutianAI/gangway/services/taxonomy/events"
	"github.com/AleutianAI/gangway/services/taxonomy/loader"
)

func SetupRoutes(router *gin.Engine, provider *loader.Provider, store session.Store,
	metrics *telemetry.Metrics, emitter *events.Emitter, limiter *middleware.RateLimiter) {

	router.GET("/health", handlers.HandleHealth(provider, store))

	// The Prometheus handler exists only when metrics export is set to
	// prometheus; other exporters push instead of scrape.
	if h := telemetry.MetricsHandler(); h != nil {
		router.GET("/metrics", gin.WrapH(h))
	}

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.RateLimitMiddleware(limiter))
	{
		classification := v1.Group("/classification")
		{
			classification.GET("/search", handlers.HandleSearch(provider, metrics, emitter))
			classification.GET("/ws", handlers.HandleLiveSearch(provider, metrics, emitter))
			classification.GET("/codes/:code", handlers.HandleCodeLookup(provider))
			classification.GET("/codes/:code/children", handlers.HandleCodeChildren(provider))
			classification.GET("/codes/:code/trail", handlers.HandleCodeTrail(provider))
		}
		// Wizard session routes
		wizard := v1.Group("/wizard")
		{
			wizard.POST("/sessions", handlers.HandleOpenSession(provider, store, metrics, emitter))
			wizard.GET("/sessions/:id", handlers.HandleGetSession(store))
			wizard.DELETE("/sessions/:id", handlers.HandleDeleteSession(store))
			wizard.POST("/sessions/:id/focus", handlers.HandleFocus(provider, store, metrics, emitter))
			wizard.POST("/sessions/:id/select", handlers.HandleSelect(provider, store, metrics, emitter))
			wizard.GET("/sessions/:id/columns", handlers.HandleColumns(provider, store))
			wizard.GET("/sessions/:id/trail", handlers.HandleSessionTrail(provider, store))
		}
	}
}
