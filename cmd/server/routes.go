package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/problempad/internal/middleware"
	"github.com/huangang/problempad/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Snapshot replaces rewrite the whole collection and get a smaller budget.
	writeLimiter := middleware.NewRateLimiter(10, 20).
		Route(http.MethodPut, "/api/reports", middleware.WritePolicy{RPS: 2, Burst: 5})
	adminOnly := middleware.AdminTokenRequired(svc.cfg.Admin.Token)

	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/", svc.reportHandler.Page)
	r.GET("/admin", adminOnly, svc.adminHandler.Page)

	api := r.Group("/api")
	{
		api.GET("/reports", svc.reportHandler.List)
		api.GET("/reports.xlsx", adminOnly, svc.reportHandler.DownloadXLSX)
		api.GET("/events/reports", svc.sseHandler.StreamReportEvents)

		writes := api.Group("", writeLimiter.Middleware(), middleware.AuditLog())
		{
			writes.POST("/reports", svc.reportHandler.Create)
			writes.PUT("/reports", svc.reportHandler.Replace)
			writes.DELETE("/reports/:id", svc.reportHandler.Delete)
		}

		admin := api.Group("/admin", adminOnly, middleware.AuditLog())
		{
			admin.GET("/system-logs", svc.systemLogHandler.List)
			admin.POST("/export/rebuild", svc.adminHandler.RebuildExport)
		}
	}
}
