package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sahana-h/job-parser/internal/database"
	"github.com/sahana-h/job-parser/internal/functions"
	"gorm.io/gorm"
)

// newTestDB creates a fresh sqlite database in a per-test temp dir
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("database.Initialize: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// newTestFact builds a minimal reconcilable fact
func newTestFact(messageID, company, title, status string) *functions.CandidateFact {
	return &functions.CandidateFact{
		CompanyName:   company,
		JobTitle:      title,
		Status:        status,
		MessageID:     messageID,
		Subject:       "Application update from " + company,
		Body:          "body for " + messageID,
		MessageSentAt: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}
