package main

import (
	"context"
	"fmt"

	"github.com/huangang/problempad/internal/config"
	"github.com/huangang/problempad/internal/handlers"
	"github.com/huangang/problempad/internal/metrics"
	"github.com/huangang/problempad/internal/models"
	"github.com/huangang/problempad/internal/services"
	"github.com/huangang/problempad/pkg/logger"
	"gorm.io/gorm"
)

const (
	jobExportRebuild = "export_rebuild"
	jobLogCleanup    = "system_log_cleanup"

	logCleanupSchedule = "30 2 * * *"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg       *config.Config
	db        *gorm.DB
	hub       *services.SSEHub
	taskQueue services.TaskQueue
	worker    *services.Worker
	scheduler *services.Scheduler

	reportService *services.ReportService
	exportService *services.ExportService

	reportHandler    *handlers.ReportHandler
	adminHandler     *handlers.AdminHandler
	systemLogHandler *handlers.SystemLogHandler
	healthHandler    *handlers.HealthHandler
	sseHandler       *handlers.SSEHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) (*appServices, error) {
	metrics.Register()

	if err := models.InitDB(&cfg.Database); err != nil {
		return nil, err
	}
	db := models.GetDB()

	if err := models.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	services.InitSystemLogger(db)

	hub := services.GetSSEHub()
	exportService := services.NewExportService(db, services.NewExporter(cfg.Export.Path))

	// Exports run on Redis when configured, otherwise in-process.
	var taskQueue services.TaskQueue
	var worker *services.Worker
	if cfg.Export.Enabled {
		taskQueue = services.NewTaskQueue(&cfg.Redis)
		if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
			syncQueue.SetProcessor(exportService.Process)
		} else {
			worker = services.NewWorker(&cfg.Redis)
			if worker != nil {
				worker.SetProcessor(exportService.Process)
				if err := worker.Start(); err != nil {
					logger.Warn().Err(err).Msg("Failed to start export worker")
				}
			}
		}
	}

	reportService := services.NewReportService(db, hub, taskQueue)
	systemLogService := services.NewSystemLogService(db)

	scheduler := services.NewScheduler(db)
	if err := scheduler.AddJob(jobLogCleanup, logCleanupSchedule, func() {
		systemLogService.RunCleanup(cfg.Admin.LogRetentionDays)
		if n, err := scheduler.PurgeExpiredLocks(); err == nil && n > 0 {
			logger.Debug().Int64("locks", n).Msg("[Scheduler] Expired locks purged")
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule log cleanup: %w", err)
	}
	if cfg.Export.Enabled && cfg.Export.RebuildCron != "" {
		if err := scheduler.AddJob(jobExportRebuild, cfg.Export.RebuildCron, func() {
			if _, err := exportService.Rebuild(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Scheduled workbook rebuild failed")
			}
		}); err != nil {
			return nil, fmt.Errorf("schedule workbook rebuild: %w", err)
		}
	}
	scheduler.Start()

	return &appServices{
		cfg:              cfg,
		db:               db,
		hub:              hub,
		taskQueue:        taskQueue,
		worker:           worker,
		scheduler:        scheduler,
		reportService:    reportService,
		exportService:    exportService,
		reportHandler:    handlers.NewReportHandler(reportService, exportService.Exporter()),
		adminHandler:     handlers.NewAdminHandler(reportService, exportService, systemLogService),
		systemLogHandler: handlers.NewSystemLogHandler(db),
		healthHandler:    handlers.NewHealthHandler(db, taskQueue, hub, exportService.Exporter()),
		sseHandler:       handlers.NewSSEHandler(hub),
	}, nil
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}
