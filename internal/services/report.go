package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/huangang/problempad/internal/metrics"
	"github.com/huangang/problempad/internal/report"
	"github.com/huangang/problempad/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrDuplicateID   = errors.New("id exists")
	ErrMissingFields = errors.New("missing fields")
)

// FieldError says which fields a report is missing.
type FieldError struct {
	Index  int
	Fields []string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("missing fields: report %d lacks %s", e.Index, strings.Join(e.Fields, ", "))
}

func (e *FieldError) Unwrap() error {
	return ErrMissingFields
}

// ReportService owns the server-side report collection.
type ReportService struct {
	db    *gorm.DB
	hub   *SSEHub
	queue TaskQueue
}

// NewReportService creates the service. hub and queue may be nil.
func NewReportService(db *gorm.DB, hub *SSEHub, queue TaskQueue) *ReportService {
	return &ReportService{db: db, hub: hub, queue: queue}
}

// List returns every report in insertion order.
func (s *ReportService) List(ctx context.Context) ([]report.Report, error) {
	reports := []report.Report{}
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// Count returns the number of stored reports.
func (s *ReportService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&report.Report{}).Count(&n).Error
	return n, err
}

// Create stores new reports in order. Nothing is stored when any report is
// invalid or its id is already taken.
func (s *ReportService) Create(ctx context.Context, reports []report.Report) (err error) {
	defer func() { metrics.ReportWritesTotal.WithLabelValues("create", metrics.Result(err)).Inc() }()

	if len(reports) == 0 {
		return &FieldError{Index: 0, Fields: []string{"id", "title", "description", "created"}}
	}
	reports, err = prepare(reports)
	if err != nil {
		return err
	}

	ids := make([]string, len(reports))
	for i := range reports {
		ids[i] = reports[i].ID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&report.Report{}).Where("id IN ?", ids).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrDuplicateID
		}
		return tx.Create(&reports).Error
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, EventCreated, ids)
	s.enqueue(&ExportTask{Kind: ExportAppend, Reports: reports})
	return nil
}

// Replace swaps the whole collection for reports in one transaction. Reports
// whose id was not stored before are appended to the workbook.
func (s *ReportService) Replace(ctx context.Context, reports []report.Report) (err error) {
	defer func() { metrics.ReportWritesTotal.WithLabelValues("replace", metrics.Result(err)).Inc() }()

	reports, err = prepare(reports)
	if err != nil {
		return err
	}

	var added []report.Report
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&report.Report{}).Pluck("id", &existing).Error; err != nil {
			return err
		}
		known := make(map[string]bool, len(existing))
		for _, id := range existing {
			known[id] = true
		}
		for _, r := range reports {
			if !known[r.ID] {
				added = append(added, r)
			}
		}

		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&report.Report{}).Error; err != nil {
			return err
		}
		if len(reports) == 0 {
			return nil
		}
		return tx.Create(&reports).Error
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, EventReplaced, nil)
	if len(added) > 0 {
		s.enqueue(&ExportTask{Kind: ExportAppend, Reports: added})
	}
	return nil
}

// Delete removes the report with id. Deleting an unknown id succeeds and
// reports false.
func (s *ReportService) Delete(ctx context.Context, id string) (deleted bool, err error) {
	defer func() { metrics.ReportWritesTotal.WithLabelValues("delete", metrics.Result(err)).Inc() }()

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&report.Report{})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	s.afterWrite(ctx, EventDeleted, []string{id})
	return true, nil
}

// prepare validates reports, rejects repeated ids and normalizes ratings.
// The returned slice is a copy with the storage sequence cleared.
func prepare(in []report.Report) ([]report.Report, error) {
	out := make([]report.Report, len(in))
	seen := make(map[string]bool, len(in))

	for i, r := range in {
		if missing := r.MissingFields(); len(missing) > 0 {
			return nil, &FieldError{Index: i, Fields: missing}
		}
		if seen[r.ID] {
			return nil, ErrDuplicateID
		}
		seen[r.ID] = true

		r.Seq = 0
		r.Impact = report.NormalizeImpact(r.Impact)
		r.Created = r.Created.UTC()
		out[i] = r
	}
	return out, nil
}

func (s *ReportService) afterWrite(ctx context.Context, eventType string, ids []string) {
	total, err := s.Count(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to count reports")
		return
	}
	metrics.ReportsStored.Set(float64(total))
	s.hub.Publish(ReportEvent{Type: eventType, IDs: ids, Total: total})
}

func (s *ReportService) enqueue(task *ExportTask) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(task); err != nil {
		logger.Error().Err(err).Str("kind", task.Kind).Msg("failed to enqueue export task")
	}
}
