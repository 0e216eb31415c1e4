// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the intake service.
//
// This package contains request-processing middleware applied in front of
// the classification and wizard handlers.
//
// # Rate Limiting Flow
//
// The rate limiter tracks a token bucket per client IP. Search-as-you-type
// traffic is bursty, so buckets allow short bursts above the sustained rate
// before rejecting:
//
//	Request
//	   │
//	   ▼
//	RateLimitMiddleware
//	   │
//	   ├─► Resolve client key (ClientIP)
//	   │
//	   ├─► limiter.Allow()
//	   │      │
//	   │      ├─ true  ──► Handler
//	   │      │
//	   │      └─ false ──► 429 {"error": "rate limit exceeded"}
//
// Idle client buckets are swept periodically so the map does not grow with
// every address ever seen.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// =============================================================================
// Rate Limiter Defaults
// =============================================================================

const (
	// DefaultRequestsPerSecond is the sustained per-client request rate.
	DefaultRequestsPerSecond = 20

	// DefaultBurst is how far above the sustained rate a client may spike.
	// Sized for search-as-you-type: a fast typist emits a handful of
	// requests in well under a second.
	DefaultBurst = 40

	// staleAfter is how long an idle client's bucket survives.
	staleAfter = 3 * time.Minute

	// sweepEvery bounds how often the stale sweep runs.
	sweepEvery = time.Minute
)

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter tracks one token bucket per client key.
//
// # Description
//
// Wraps golang.org/x/time/rate limiters in a keyed map. Buckets are
// created on first sight of a key and evicted after staleAfter without
// traffic. Eviction happens inline during lookups, so no background
// goroutine or Stop call is needed.
//
// # Thread Safety
//
// Safe for concurrent use.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	rps       rate.Limit
	burst     int
	lastSweep time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a keyed rate limiter.
//
// # Inputs
//
//   - rps: Sustained requests per second per client. Values <= 0 fall back
//     to DefaultRequestsPerSecond.
//   - burst: Bucket capacity. Values <= 0 fall back to DefaultBurst.
//
// # Outputs
//
//   - *RateLimiter: Ready-to-use limiter.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &RateLimiter{
		clients:   make(map[string]*clientBucket),
		rps:       rate.Limit(rps),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// Allow reports whether the client identified by key may proceed.
//
// # Description
//
// Consumes one token from the client's bucket, creating the bucket on
// first sight. Every call also gives the stale sweep a chance to run.
//
// # Inputs
//
//   - key: Client identity, typically the remote IP.
//
// # Outputs
//
//   - bool: true if the request is within the client's budget.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweepLocked(now)

	bucket, ok := rl.clients[key]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[key] = bucket
	}
	bucket.lastSeen = now

	return bucket.limiter.Allow()
}

// Len returns the number of tracked client buckets.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// sweepLocked evicts buckets idle past staleAfter. Caller holds rl.mu.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < sweepEvery {
		return
	}
	rl.lastSweep = now

	for key, bucket := range rl.clients {
		if now.Sub(bucket.lastSeen) > staleAfter {
			delete(rl.clients, key)
		}
	}
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// RateLimitMiddleware creates a Gin middleware that throttles by client IP.
//
// # Description
//
// Rejects requests that exceed the per-client budget with 429 and a JSON
// error body. The wizard endpoints mutate per-session state and the search
// endpoint fans out per keystroke; both are cheap, so limits can be
// generous while still stopping runaway clients.
//
// # Inputs
//
//   - limiter: Shared RateLimiter. Must not be nil.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware function ready for use with Gin.
//
// # Examples
//
//	limiter := middleware.NewRateLimiter(20, 40)
//	v1 := router.Group("/v1")
//	v1.Use(middleware.RateLimitMiddleware(limiter))
//
// # Limitations
//
//   - Client identity is the remote IP; clients behind one NAT share a
//     budget. Configure gin's trusted proxies when running behind one.
//   - Limits are per process. Horizontal replicas each grant a full budget.
//
// # Thread Safety
//
// Thread-safe. The returned middleware can be used concurrently.
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
