package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangang/problempad/internal/models"
	"github.com/huangang/problempad/internal/report"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testReport(id, title string) report.Report {
	return report.Report{
		ID:          id,
		StartupInfo: report.StartupInfo{Name: "Acme", Industry: "SaaS"},
		Title:       title,
		Description: "about " + title,
		Impact:      7,
		Created:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func ids(reports []report.Report) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
