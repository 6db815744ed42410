package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImportState is the lifecycle state of an import job run.
type ImportState string

const (
	ImportStateCreated   ImportState = "created"
	ImportStateStarted   ImportState = "started"
	ImportStateCompleted ImportState = "completed"
	ImportStateFailed    ImportState = "failed"
)

// ImportJob tracks one import run: the uploaded file, the lifecycle state,
// and the ids of every product the run created. Destroying a job cascades to
// the products in ProductIDs and nothing else.
type ImportJob struct {
	ID                  uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	DataFileName        string      `json:"dataFileName" gorm:"not null"`
	DataFilePath        string      `json:"dataFilePath" gorm:"not null"`
	DataFileContentType string      `json:"dataFileContentType"`
	DataFileSize        int64       `json:"dataFileSize"`
	State               ImportState `json:"state" gorm:"not null;default:'created';index"`
	StartedAt           *time.Time  `json:"startedAt,omitempty"`
	CompletedAt         *time.Time  `json:"completedAt,omitempty"`
	FailedAt            *time.Time  `json:"failedAt,omitempty"`
	ProductIDs          StringArray `json:"productIds" gorm:"type:jsonb"`
	SettingsSnapshot    *JSON       `json:"settingsSnapshot,omitempty" gorm:"type:jsonb"`
	Summary             *string     `json:"summary,omitempty"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

// TableName returns the table name for the ImportJob model
func (ImportJob) TableName() string {
	return "product_imports"
}

// Start transitions created -> started.
func (j *ImportJob) Start() error {
	if j.State != ImportStateCreated {
		return fmt.Errorf("cannot start import in state %q", j.State)
	}
	now := time.Now()
	j.State = ImportStateStarted
	j.StartedAt = &now
	return nil
}

// Complete transitions started -> completed, stamping CompletedAt and
// clearing any stale failure timestamp.
func (j *ImportJob) Complete() error {
	if j.State != ImportStateStarted {
		return fmt.Errorf("cannot complete import in state %q", j.State)
	}
	now := time.Now()
	j.State = ImportStateCompleted
	j.CompletedAt = &now
	j.FailedAt = nil
	return nil
}

// Fail transitions started -> failed. The created-ids list is cleared so a
// failed run never claims ownership of products: under a transactional run
// they were rolled back, and under a non-transactional run the surviving
// rows are deliberately orphaned from cleanup.
func (j *ImportJob) Fail() error {
	if j.State != ImportStateStarted {
		return fmt.Errorf("cannot fail import in state %q", j.State)
	}
	now := time.Now()
	j.State = ImportStateFailed
	j.FailedAt = &now
	j.CompletedAt = nil
	j.ProductIDs = StringArray{}
	return nil
}

// StateTimestamp returns the timestamp matching the current state.
func (j *ImportJob) StateTimestamp() *time.Time {
	switch j.State {
	case ImportStateStarted:
		return j.StartedAt
	case ImportStateCompleted:
		return j.CompletedAt
	case ImportStateFailed:
		return j.FailedAt
	default:
		return &j.CreatedAt
	}
}
