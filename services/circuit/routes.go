// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package circuit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"
)

// RegisterRoutes registers all circuit routes with the router.
//
// Description:
//
//	Registers all /v1/circuit/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	GET  /v1/circuit/health - Health check
//	POST /v1/circuit/instructions - Extend or replace the wiring
//	GET  /v1/circuit/wires - Evaluate every wire
//	GET  /v1/circuit/wires/:name - Evaluate one wire
//	POST /v1/circuit/override - Override a wire and recalculate
//	POST /v1/circuit/recalculate - Clear every cached value
//	POST /v1/circuit/solve - Two-phase solve
//	POST /v1/circuit/snapshots - Persist the current signals
//	GET  /v1/circuit/snapshots - List snapshots
//	GET  /v1/circuit/snapshots/:id - Get a snapshot
//	DELETE /v1/circuit/snapshots/:id - Delete a snapshot
//
// Example:
//
//	svc, _ := circuit.NewService(circuit.DefaultServiceConfig())
//	handlers := circuit.NewHandlers(svc, nil)
//
//	v1 := router.Group("/v1")
//	circuit.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	c := rg.Group("/circuit")
	{
		c.GET("/health", handlers.HandleHealth)
		c.POST("/instructions", handlers.HandleInstructions)

		c.GET("/wires", handlers.HandleListWires)
		c.GET("/wires/:name", handlers.HandleGetWire)
		c.POST("/override", handlers.HandleOverride)
		c.POST("/recalculate", handlers.HandleRecalculate)
		c.POST("/solve", handlers.HandleSolve)

		c.POST("/snapshots", handlers.HandleCreateSnapshot)
		c.GET("/snapshots", handlers.HandleListSnapshots)
		c.GET("/snapshots/:id", handlers.HandleGetSnapshot)
		c.DELETE("/snapshots/:id", handlers.HandleDeleteSnapshot)
	}
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// ServiceName names the otelgin spans. Empty disables tracing middleware.
	ServiceName string

	// RateLimit is the sustained request rate per second for /v1.
	// Zero disables rate limiting.
	RateLimit float64

	// Burst is the token bucket size. Default: 1 when RateLimit is set.
	Burst int

	// Metrics is served at GET /metrics when non-nil.
	Metrics http.Handler
}

// NewRouter builds a gin engine serving the circuit API.
func NewRouter(handlers *Handlers, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	v1 := router.Group("/v1")
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		v1.Use(RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)))
	}
	RegisterRoutes(v1, handlers)
	return router
}

// RateLimit rejects requests with 429 when limiter has no token available.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "rate limit exceeded",
				Code:  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}
