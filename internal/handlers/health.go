package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/problempad/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the server's subsystems.
type HealthHandler struct {
	db       *gorm.DB
	queue    services.TaskQueue
	hub      *services.SSEHub
	exporter *services.Exporter
}

func NewHealthHandler(db *gorm.DB, queue services.TaskQueue, hub *services.SSEHub, exporter *services.Exporter) *HealthHandler {
	return &HealthHandler{db: db, queue: queue, hub: hub, exporter: exporter}
}

// CheckHealth returns 200 when the database answers and 503 otherwise.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := 200

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}
	if dbStatus != "ok" {
		overall = "unhealthy"
		status = 503
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var reports int64
	h.db.WithContext(c.Request.Context()).Table("reports").Count(&reports)

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "problempad",
		"components": gin.H{
			"database":    dbStatus,
			"queue_mode":  queueMode,
			"sse_clients": h.hub.ClientCount(),
			"reports":     reports,
			"workbook":    h.exporter != nil && h.exporter.Exists(),
		},
	})
}
