package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/problempad/internal/render"
	"github.com/huangang/problempad/internal/report"
	"github.com/huangang/problempad/internal/services"
	"github.com/huangang/problempad/pkg/logger"
	"github.com/huangang/problempad/pkg/response"
)

// maxBodyBytes bounds report write payloads.
const maxBodyBytes = 8 << 20

type ReportHandler struct {
	reports  *services.ReportService
	exporter *services.Exporter
}

func NewReportHandler(reports *services.ReportService, exporter *services.Exporter) *ReportHandler {
	return &ReportHandler{reports: reports, exporter: exporter}
}

// List returns the collection as a bare JSON array in insertion order.
func (h *ReportHandler) List(c *gin.Context) {
	reports, err := h.reports.List(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("failed to list reports")
		response.ServerError(c, "failed to list reports")
		return
	}
	c.JSON(http.StatusOK, reports)
}

// Create accepts a single report object or an array of them.
func (h *ReportHandler) Create(c *gin.Context) {
	reports, err := decodeReports(c, true)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.reports.Create(c.Request.Context(), reports); err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, http.StatusCreated)
}

// Replace overwrites the collection with the posted array.
func (h *ReportHandler) Replace(c *gin.Context) {
	reports, err := decodeReports(c, false)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.reports.Replace(c.Request.Context(), reports); err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, http.StatusOK)
}

// Delete removes one report. Unknown ids succeed.
func (h *ReportHandler) Delete(c *gin.Context) {
	if _, err := h.reports.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, http.StatusOK)
}

// DownloadXLSX streams the workbook. Admin token is checked by middleware.
func (h *ReportHandler) DownloadXLSX(c *gin.Context) {
	if h.exporter == nil || !h.exporter.Exists() {
		response.NotFound(c, services.ErrExportMissing.Error())
		return
	}
	c.FileAttachment(h.exporter.Path(), "reports.xlsx")
}

// Page renders the report list as HTML.
func (h *ReportHandler) Page(c *gin.Context) {
	reports, err := h.reports.List(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("failed to list reports")
		c.String(http.StatusInternalServerError, "failed to list reports")
		return
	}

	var buf bytes.Buffer
	if err := render.HTMLList(&buf, "", reports); err != nil {
		logger.Error().Err(err).Msg("failed to render report list")
		c.String(http.StatusInternalServerError, "failed to render report list")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// decodeReports reads an array, or a single object when allowObject is set.
func decodeReports(c *gin.Context, allowObject bool) ([]report.Report, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return nil, response.NewBadRequest("invalid request body")
	}
	body = bytes.TrimSpace(body)

	if len(body) > 0 && body[0] == '[' {
		reports := []report.Report{}
		if err := json.Unmarshal(body, &reports); err != nil {
			return nil, response.NewBadRequest("invalid json")
		}
		return reports, nil
	}

	if !allowObject {
		return nil, response.NewBadRequest("expected a JSON array of reports")
	}
	if len(body) == 0 || body[0] != '{' {
		return nil, response.NewBadRequest("invalid json")
	}

	var r report.Report
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, response.NewBadRequest("invalid json")
	}
	return []report.Report{r}, nil
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrMissingFields):
		response.BadRequest(c, services.ErrMissingFields.Error())
	case errors.Is(err, services.ErrDuplicateID):
		response.Error(c, response.NewConflict(services.ErrDuplicateID.Error()))
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("report write failed")
		response.ServerError(c, "failed to store reports")
	}
}
