package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/huangang/problempad/internal/metrics"
	"github.com/huangang/problempad/internal/report"
	"github.com/huangang/problempad/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportSheet is the worksheet holding the report rows.
const ExportSheet = "reports"

// ExportHeader is the first row of the workbook.
var ExportHeader = []string{
	"id", "startup", "startup_desc", "startup_industry", "startup_market",
	"startup_founded", "title", "description", "impact", "solution", "created",
}

// ErrExportMissing is returned when the workbook has not been written yet.
var ErrExportMissing = errors.New("xlsx not found")

// Exporter maintains the administrative workbook. Writes are serialized.
type Exporter struct {
	path string
	mu   sync.Mutex
}

func NewExporter(path string) *Exporter {
	return &Exporter{path: path}
}

func (e *Exporter) Path() string {
	return e.path
}

// Exists reports whether the workbook file is present.
func (e *Exporter) Exists() bool {
	info, err := os.Stat(e.path)
	return err == nil && !info.IsDir()
}

// Append adds one row per report, creating the workbook with its header row
// when it does not exist.
func (e *Exporter) Append(reports ...report.Report) error {
	if len(reports) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	f, created, err := e.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(ExportSheet)
	if err != nil {
		return fmt.Errorf("read workbook rows: %w", err)
	}
	next := len(rows) + 1
	for i := range reports {
		if err := writeRow(f, next+i, exportRow(&reports[i])); err != nil {
			return err
		}
	}

	if created {
		return e.saveAs(f)
	}
	return f.Save()
}

// Rebuild rewrites the workbook from scratch with the given reports.
func (e *Exporter) Rebuild(reports []report.Report) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := newWorkbook()
	if err != nil {
		return err
	}
	defer f.Close()

	for i := range reports {
		if err := writeRow(f, i+2, exportRow(&reports[i])); err != nil {
			return err
		}
	}
	return e.saveAs(f)
}

// open returns the existing workbook, or a fresh one when the file is missing.
func (e *Exporter) open() (*excelize.File, bool, error) {
	if !e.Exists() {
		f, err := newWorkbook()
		return f, true, err
	}

	f, err := excelize.OpenFile(e.path)
	if err != nil {
		return nil, false, fmt.Errorf("open workbook: %w", err)
	}
	if idx, err := f.GetSheetIndex(ExportSheet); err != nil || idx < 0 {
		f.Close()
		return nil, false, fmt.Errorf("workbook %s has no %q sheet", e.path, ExportSheet)
	}
	return f, false, nil
}

// saveAs writes through a temp file in the same directory.
func (e *Exporter) saveAs(f *excelize.File) error {
	dir := filepath.Dir(e.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(e.path)+".tmp.xlsx")
	if err := f.SaveAs(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace workbook: %w", err)
	}
	return nil
}

func newWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		f.Close()
		return nil, err
	}

	header := make([]interface{}, len(ExportHeader))
	for i, h := range ExportHeader {
		header[i] = h
	}
	if err := writeRow(f, 1, header); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(ExportSheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func exportRow(r *report.Report) []interface{} {
	return []interface{}{
		r.ID,
		r.Name,
		r.Desc,
		r.Industry,
		r.Market,
		r.Founded,
		r.Title,
		r.Description,
		r.Impact,
		r.Solution,
		r.Created.UTC().Format(time.RFC3339),
	}
}

// ExportService processes export tasks against the database and the workbook.
type ExportService struct {
	db       *gorm.DB
	exporter *Exporter
}

func NewExportService(db *gorm.DB, exporter *Exporter) *ExportService {
	return &ExportService{db: db, exporter: exporter}
}

func (s *ExportService) Exporter() *Exporter {
	return s.exporter
}

// Process handles one queued task. Failures are reported to the queue and
// never reach the request that caused the task.
func (s *ExportService) Process(ctx context.Context, task *ExportTask) error {
	start := time.Now()
	var err error

	switch task.Kind {
	case ExportAppend:
		err = s.exporter.Append(task.Reports...)
	case ExportRebuild:
		_, err = s.Rebuild(ctx)
	default:
		err = fmt.Errorf("unknown export task kind %q", task.Kind)
	}

	metrics.ExportTasksTotal.WithLabelValues(task.Kind, metrics.Result(err)).Inc()
	metrics.ExportDurationSeconds.WithLabelValues(task.Kind).Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error().Err(err).Str("kind", task.Kind).Str("path", s.exporter.Path()).Msg("workbook export failed")
	}
	return err
}

// Rebuild rewrites the workbook from every stored report and returns the row count.
func (s *ExportService) Rebuild(ctx context.Context) (int, error) {
	var reports []report.Report
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&reports).Error; err != nil {
		return 0, fmt.Errorf("load reports: %w", err)
	}
	if err := s.exporter.Rebuild(reports); err != nil {
		return 0, err
	}
	logger.Info().Int("rows", len(reports)).Str("path", s.exporter.Path()).Msg("workbook rebuilt")
	return len(reports), nil
}

// Rows reads back the data rows of the workbook, without the header.
func (e *Exporter) Rows() ([][]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.Exists() {
		return nil, ErrExportMissing
	}
	f, err := excelize.OpenFile(e.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(ExportSheet)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		rows = rows[1:]
	}
	return rows, nil
}
