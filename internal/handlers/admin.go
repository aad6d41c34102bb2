package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/problempad/internal/middleware"
	"github.com/huangang/problempad/internal/render"
	"github.com/huangang/problempad/internal/services"
	"github.com/huangang/problempad/pkg/logger"
	"github.com/huangang/problempad/pkg/response"
)

// adminLogLines is how many audit entries the admin page shows.
const adminLogLines = 20

type AdminHandler struct {
	reports *services.ReportService
	export  *services.ExportService
	logs    *services.SystemLogService
}

func NewAdminHandler(reports *services.ReportService, export *services.ExportService, logs *services.SystemLogService) *AdminHandler {
	return &AdminHandler{reports: reports, export: export, logs: logs}
}

// Page renders the admin overview.
func (h *AdminHandler) Page(c *gin.Context) {
	ctx := c.Request.Context()

	reports, err := h.reports.List(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list reports")
		c.String(http.StatusInternalServerError, "failed to list reports")
		return
	}

	view := render.AdminView{
		Total:        int64(len(reports)),
		Workbook:     h.export.Exporter().Exists(),
		WorkbookPath: h.export.Exporter().Path(),
		Token:        middleware.RequestToken(c),
		Reports:      reports,
	}

	if logs, err := h.logs.List(&services.SystemLogListRequest{PageSize: adminLogLines}); err == nil {
		for _, l := range logs.Items {
			view.Logs = append(view.Logs, render.AdminLogLine{
				Time:    l.CreatedAt,
				Level:   l.Level,
				Module:  l.Module,
				Message: l.Message,
			})
		}
	} else {
		logger.Warn().Err(err).Msg("failed to load system logs")
	}

	var buf bytes.Buffer
	if err := render.AdminPage(&buf, view); err != nil {
		logger.Error().Err(err).Msg("failed to render admin page")
		c.String(http.StatusInternalServerError, "failed to render admin page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// RebuildExport rewrites the workbook from the database right away.
func (h *AdminHandler) RebuildExport(c *gin.Context) {
	rows, err := h.export.Rebuild(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("workbook rebuild failed")
		response.ServerError(c, "workbook rebuild failed")
		return
	}
	response.Success(c, gin.H{"rows": rows, "path": h.export.Exporter().Path()})
}
