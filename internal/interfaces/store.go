package interfaces

import (
	"time"

	"github.com/ternarybob/vellum/internal/models"
)

// PipelineStore is the authoritative Pipeline Store & State Machine
// (component B). All mutation is serialized by the implementation's
// single process-wide writer lock; callers never need their own locking.
type PipelineStore interface {
	// Add inserts a new job. If job.ATSJobID is present in the rejection
	// memory, Add returns ErrRejectedBefore and does not insert.
	Add(job models.Job) error

	// AddBulk inserts many jobs in one locked pass, skipping any whose
	// ats_job_id is in the rejection memory. It returns the count
	// actually added and the count skipped as already-rejected.
	AddBulk(jobs []models.Job) (added int, skippedRejected int, err error)

	// UpdateStatus transitions job id to status, appending a status
	// history entry. If status is a rejection status, the job's
	// ats_job_id is recorded in the rejection memory.
	UpdateStatus(id string, status models.Status, reason string) error

	// UpdateDetails merges non-empty fields into job id's notes,
	// folder_path, and jd_summary without touching status or history.
	UpdateDetails(id string, notes string, folderPath string, jdSummary *models.JDSummary) error

	// UpdateLastSeen bumps one job's last_seen timestamp and marks it
	// active on its ATS.
	UpdateLastSeen(id string, at time.Time) error

	// UpdateLastSeenBulk bumps last_seen for many ats_job_ids observed in
	// one ingestion pass.
	UpdateLastSeenBulk(atsJobIDs []string, at time.Time) error

	// MarkMissing transitions every job for company whose status is
	// applied or interview and whose last_seen is at or before cutoff to
	// closed, marking it inactive on its ATS and flagging needs_attention.
	// Jobs in other statuses are left alone.
	MarkMissing(company string, cutoff time.Time) (marked int, err error)

	GetAll() ([]models.Job, error)
	GetByStatus(status models.Status) ([]models.Job, error)
	GetActive() ([]models.Job, error)
	GetArchive() ([]models.Job, error)
	GetByID(id string) (models.Job, bool, error)
	Exists(id string) (bool, error)
	IsRejected(atsJobID string) (bool, error)
	Stats() (StoreStats, error)
}

// StoreStats summarizes the pipeline for the /pipeline/stats endpoint.
type StoreStats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByCompany  map[string]int `json:"by_company"`
	Rejected   int            `json:"rejected_memory_size"`
}
