// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package refactor

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/jsxref/services/refactor/telemetry"
)

// RegisterRoutes registers the refactor API under rg.
//
// Endpoints:
//
//	POST /v1/refactor/actions - Refactorings applicable at a position
//	POST /v1/refactor/edits - Edits for one action
//	POST /v1/refactor/preview - Edits with diffs and verification
//	GET  /v1/refactor/refactors - Registered refactorings and kinds
//	GET  /v1/refactor/health - Health check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	r := rg.Group("/refactor")
	{
		r.POST("/actions", handlers.HandleActions)
		r.POST("/edits", handlers.HandleEdits)
		r.POST("/preview", handlers.HandlePreview)

		r.GET("/refactors", handlers.HandleRefactors)
		r.GET("/health", handlers.HandleHealth)
	}
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// ServiceName names the otelgin server spans.
	ServiceName string

	// RateLimit and Burst configure RateLimit. RateLimit <= 0 disables it.
	RateLimit float64
	Burst     int
}

// NewRouter builds the complete HTTP handler: middleware, the refactor
// API under /v1 and /metrics.
func NewRouter(handlers *Handlers, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(RequestID())

	metrics := telemetry.MetricsHandler()
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	router.GET("/metrics", gin.WrapH(metrics))

	v1 := router.Group("/v1")
	v1.Use(RateLimit(cfg.RateLimit, cfg.Burst))
	RegisterRoutes(v1, handlers)
	return router
}
