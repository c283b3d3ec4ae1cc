// Package history persists finished conversion jobs into a local SQLite
// database, so both the service and the CLI can show what has been converted.
package history

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Record is one conversion run.
type Record struct {
	ID        uint   `gorm:"primarykey"`
	JobID     string `gorm:"index"`
	Input     string
	Output    string
	Format    string
	DPI       int
	Pages     int
	Status    string
	Error     string
	Elapsed   time.Duration
	CreatedAt time.Time
}

func Open(filePath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(filePath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s: %s", filePath, err)
	}

	err = db.AutoMigrate(
		&Record{},
	)
	if err != nil {
		return nil, fmt.Errorf("database migration failed: %s", err)
	}

	return db, nil
}

func Close(db *gorm.DB) error {
	inner, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to close database, can't read inner data: %s", err)
	}

	err = inner.Close()
	if err != nil {
		return fmt.Errorf("failed to close inner database: %s", err)
	}

	return nil
}

// Append stores one record.
func Append(db *gorm.DB, record *Record) error {
	result := db.Create(record)
	if result.Error != nil {
		return fmt.Errorf("failed to save history record: %s", result.Error)
	}

	return nil
}

// Recent returns up to `limit` most recent records, newest first.
func Recent(db *gorm.DB, limit int) ([]Record, error) {
	var records []Record

	result := db.Order("created_at desc").Limit(limit).Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query history: %s", result.Error)
	}

	return records, nil
}
