package common

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// IngestRun is the ledger entry for one input file written into one table.
type IngestRun struct {
	ID            string     `gorm:"primaryKey;type:text" json:"id"`
	File          string     `gorm:"not null;index:idx_run_file_table" json:"file"`
	Table         string     `gorm:"column:table_name;not null;index:idx_run_file_table" json:"table"`
	Kind          string     `gorm:"not null" json:"kind"`   // comments, submissions, comments-full
	Status        string     `gorm:"not null" json:"status"` // pending, running, completed, failed
	TotalLines    int64      `gorm:"default:0" json:"total_lines"`
	AcceptedLines int64      `gorm:"default:0" json:"accepted_lines"`
	FilteredLines int64      `gorm:"default:0" json:"filtered_lines"`
	InvalidLines  int64      `gorm:"default:0" json:"invalid_lines"`
	BytesRead     int64      `gorm:"default:0" json:"bytes_read"`
	BytesTotal    int64      `gorm:"default:0" json:"bytes_total"`
	MaxCreatedUTC int64      `gorm:"default:0" json:"max_created_utc"`
	Errors        string     `gorm:"type:text" json:"-"` // JSON array of LineError
	Failure       string     `gorm:"type:text" json:"failure,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func (IngestRun) TableName() string { return "ingest_runs" }

// AutoMigrateJobs creates the run ledger table.
func AutoMigrateJobs(db *gorm.DB) error {
	return db.AutoMigrate(&IngestRun{})
}

// NewIngestRun returns a pending run for file.
func NewIngestRun(file, table, kind string) *IngestRun {
	now := time.Now()
	return &IngestRun{
		ID:        uuid.New().String(),
		File:      file,
		Table:     table,
		Kind:      kind,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Finish marks the run completed, or failed when err is set.
func (r *IngestRun) Finish(err error) {
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
	if err != nil {
		r.Status = JobStatusFailed
		r.Failure = err.Error()
		return
	}
	r.Status = JobStatusCompleted
}

// FindCompletedRun returns the latest completed run of file into table, or
// nil when there is none.
func FindCompletedRun(db *gorm.DB, file, table string) (*IngestRun, error) {
	var run IngestRun
	err := db.Where("file = ? AND table_name = ? AND status = ?", file, table, JobStatusCompleted).
		Order("created_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// MaxCreatedUTC returns the newest created_utc recorded by completed runs
// into table.
func MaxCreatedUTC(db *gorm.DB, table string) (int64, error) {
	var max int64
	err := db.Model(&IngestRun{}).
		Where("table_name = ? AND status = ?", table, JobStatusCompleted).
		Select("COALESCE(MAX(max_created_utc), 0)").
		Scan(&max).Error
	return max, err
}
