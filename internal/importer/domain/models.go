// Package domain contains the import pipeline contract and persistence models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// RowError describes one row that failed normalization.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// FileReport summarizes the outcome of one processed file.
type FileReport struct {
	File        string     `json:"file"`
	RowsRead    int        `json:"rows_read"`
	Imported    int        `json:"imported"`
	Skipped     int        `json:"skipped"`
	SchemaError string     `json:"schema_error,omitempty"`
	Errors      []RowError `json:"errors,omitempty"`
}

// Summary is the result of one import run.
type Summary struct {
	RunID         string       `json:"run_id"`
	StartedAt     time.Time    `json:"started_at"`
	FinishedAt    time.Time    `json:"finished_at"`
	Files         []FileReport `json:"files"`
	TotalRead     int          `json:"total_read"`
	TotalImported int          `json:"total_imported"`
	TotalSkipped  int          `json:"total_skipped"`
}

// ImportRun is the persisted audit record of an import run. It is written
// inside the import transaction, so failed runs leave no trace.
type ImportRun struct {
	ID           snowflake.ID      `gorm:"primaryKey;column:id"`
	StartedAt    time.Time         `gorm:"not null;column:started_at"`
	FinishedAt   time.Time         `gorm:"not null;column:finished_at"`
	FilesRead    int               `gorm:"not null;column:files_read"`
	RowsRead     int               `gorm:"not null;column:rows_read"`
	RowsImported int               `gorm:"not null;column:rows_imported"`
	RowsSkipped  int               `gorm:"not null;column:rows_skipped"`
	Report       datatypes.JSONMap `gorm:"type:jsonb;column:report"`
}

// TableName sets the database table name.
func (ImportRun) TableName() string { return "import_runs" }
