package database

import (
	"os"
	"path/filepath"

	"github.com/sahana-h/job-parser/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize creates and returns a database connection
func Initialize(dbPath string) (*gorm.DB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(sqlite.Open(dbPath), gormConfig)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// runMigrations runs all database migrations
func runMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.MailCredential{},
		&models.JobApplication{},
		&models.Log{},
	); err != nil {
		return err
	}

	// Older databases carried a global unique index on the message id,
	// which breaks multi-user attribution. The composite
	// (user_id, source_message_id) index from AutoMigrate replaces it.
	_ = db.Migrator().DropIndex(&models.JobApplication{}, "source_message_id")
	_ = db.Migrator().DropIndex(&models.JobApplication{}, "idx_job_applications_source_message_id")

	// Backfill sentinel values on rows written before the defaults existed
	db.Model(&models.JobApplication{}).Where("job_title = '' OR job_title IS NULL").Update("job_title", models.UnknownPosition)
	db.Model(&models.JobApplication{}).Where("platform = '' OR platform IS NULL").Update("platform", models.UnknownPlatform)

	return nil
}
