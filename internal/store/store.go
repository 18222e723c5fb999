// Package store implements the Pipeline Store & State Machine: the
// authoritative collection of jobs, their status transitions, and the
// rejection memory that prevents re-ingesting a job the user dismissed.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/models"
)

const (
	jobsKey       = "pipeline/jobs.json"
	rejectionsKey = "pipeline/rejections.json"
)

// skipStatuses are the statuses that gate the rejection-memory side
// effect on UpdateStatus.
var skipStatuses = map[models.Status]bool{
	models.StatusRejected:  true,
	models.StatusExcluded:  true,
	models.StatusWithdrawn: true,
}

// jobsFile is the on-disk shape of the jobs collection.
type jobsFile struct {
	Jobs map[string]models.Job `json:"jobs"`
}

// rejectionsFile is the on-disk shape of the rejection memory.
type rejectionsFile struct {
	Entries map[string]models.RejectionEntry `json:"entries"`
}

// Store is the concrete PipelineStore, guarded by a single process-wide
// mutex: every mutating operation is a load-modify-save under the same
// lock, so the on-disk file is never read and written concurrently by two
// goroutines.
type Store struct {
	kernel interfaces.StorageKernel
	logger arbor.ILogger

	mu         sync.Mutex
	jobs       map[string]models.Job
	rejections map[string]models.RejectionEntry

	// RejectionClearsOnClose controls the open question about whether a
	// transition to "closed" counts as leaving a skip status for
	// rejection-memory purposes. Defaults to false (closed jobs stay
	// remembered as rejected), set from common.ResolverDefaults at
	// construction.
	RejectionClearsOnClose bool
}

var _ interfaces.PipelineStore = (*Store)(nil)

// New loads the store's state from kernel, or starts empty if this is the
// first run.
func New(kernel interfaces.StorageKernel, logger arbor.ILogger) (*Store, error) {
	s := &Store{
		kernel:     kernel,
		logger:     logger,
		jobs:       make(map[string]models.Job),
		rejections: make(map[string]models.RejectionEntry),
	}

	var jf jobsFile
	if err := kernel.Load(jobsKey, &jf); err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}
	if jf.Jobs != nil {
		s.jobs = jf.Jobs
	}

	var rf rejectionsFile
	if err := kernel.Load(rejectionsKey, &rf); err != nil {
		return nil, fmt.Errorf("failed to load rejection memory: %w", err)
	}
	if rf.Entries != nil {
		s.rejections = rf.Entries
	}

	return s, nil
}

func (s *Store) saveJobsLocked() error {
	return s.kernel.Save(jobsKey, jobsFile{Jobs: s.jobs})
}

func (s *Store) saveRejectionsLocked() error {
	return s.kernel.Save(rejectionsKey, rejectionsFile{Entries: s.rejections})
}

// ErrRejectedBefore is returned by Add when the job's ats_job_id is in the
// rejection memory.
type ErrRejectedBefore struct {
	ATSJobID string
}

func (e *ErrRejectedBefore) Error() string {
	return fmt.Sprintf("ats_job_id %q was previously rejected, skipping re-ingestion", e.ATSJobID)
}

// Add inserts a new job, stamping identity and timestamps. It is a
// convenience wrapper over AddBulk for a single job.
func (s *Store) Add(job models.Job) error {
	added, skipped, err := s.AddBulk([]models.Job{job})
	if err != nil {
		return err
	}
	if skipped > 0 {
		return &ErrRejectedBefore{ATSJobID: job.ATSJobID}
	}
	if added == 0 {
		return fmt.Errorf("job %q already exists", job.ID)
	}
	return nil
}

// AddBulk inserts many jobs in one locked load-modify-save pass, skipping
// ids that already exist and ats_job_ids present in the rejection memory.
func (s *Store) AddBulk(jobs []models.Job) (added int, skippedRejected int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, job := range jobs {
		if job.ID == "" {
			job.ID = models.JobID(job.ATS, job.ATSJobID)
		}
		if _, exists := s.jobs[job.ID]; exists {
			continue
		}
		if _, rejected := s.rejections[job.ATSJobID]; rejected {
			skippedRejected++
			continue
		}

		if job.Status == "" {
			job.Status = models.StatusNew
		}
		if job.FirstSeen.IsZero() {
			job.FirstSeen = now
		}
		job.AddedToPipeline = now
		job.LastSeen = now
		job.IsActiveOnATS = true
		if len(job.StatusHistory) == 0 {
			job.AppendStatus(job.Status, "", now)
		}

		s.jobs[job.ID] = job
		added++
	}

	if added == 0 {
		return added, skippedRejected, nil
	}
	if err := s.saveJobsLocked(); err != nil {
		return 0, skippedRejected, err
	}
	return added, skippedRejected, nil
}

// UpdateStatus transitions job id to status, appending a status history
// entry. Any status value is a permitted transition; the rejection-memory
// side effect is gated strictly on the skip-status set.
func (s *Store) UpdateStatus(id string, status models.Status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %q not found", id)
	}

	wasSkip := skipStatuses[job.Status]
	job.AppendStatus(status, reason, time.Now())
	s.jobs[id] = job

	isSkip := skipStatuses[status]
	rejectionsDirty := false

	if isSkip {
		s.rejections[job.ATSJobID] = models.RejectionEntry{
			Title:   job.Title,
			Company: job.Company,
			Reason:  reason,
			Date:    time.Now(),
		}
		rejectionsDirty = true
	} else if wasSkip {
		leavingClearsMemory := status != models.StatusClosed || s.RejectionClearsOnClose
		if leavingClearsMemory {
			delete(s.rejections, job.ATSJobID)
			rejectionsDirty = true
		}
	}

	if err := s.saveJobsLocked(); err != nil {
		return err
	}
	if rejectionsDirty {
		if err := s.saveRejectionsLocked(); err != nil {
			return err
		}
	}
	return nil
}

// UpdateDetails merges non-empty fields into job id's notes, folder_path,
// and jd_summary without appending a status history entry.
func (s *Store) UpdateDetails(id string, notes string, folderPath string, jdSummary *models.JDSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %q not found", id)
	}

	if notes != "" {
		job.Notes = notes
	}
	if folderPath != "" {
		job.FolderPath = folderPath
	}
	if jdSummary != nil {
		job.JDSummary = jdSummary
	}
	s.jobs[id] = job

	return s.saveJobsLocked()
}

// UpdateLastSeen bumps one job's last_seen timestamp, enforcing invariant
// 5 (last_seen only moves forward).
func (s *Store) UpdateLastSeen(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %q not found", id)
	}
	if at.After(job.LastSeen) {
		job.LastSeen = at
	}
	job.IsActiveOnATS = true
	s.jobs[id] = job
	return s.saveJobsLocked()
}

// UpdateLastSeenBulk bumps last_seen for every job whose ats_job_id was
// observed in one ingestion pass.
func (s *Store) UpdateLastSeenBulk(atsJobIDs []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(atsJobIDs))
	for _, id := range atsJobIDs {
		wanted[id] = true
	}

	changed := false
	for id, job := range s.jobs {
		if !wanted[job.ATSJobID] {
			continue
		}
		if at.After(job.LastSeen) {
			job.LastSeen = at
		}
		job.IsActiveOnATS = true
		s.jobs[id] = job
		changed = true
	}

	if !changed {
		return nil
	}
	return s.saveJobsLocked()
}

// MarkMissing transitions every job for company whose status is in
// {applied, interview} and whose last_seen is at or before cutoff to
// closed, flagging needs_attention per invariant 6.
func (s *Store) MarkMissing(company string, cutoff time.Time) (marked int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, job := range s.jobs {
		if job.Company != company {
			continue
		}
		if job.Status != models.StatusApplied && job.Status != models.StatusInterview {
			continue
		}
		if job.LastSeen.After(cutoff) {
			continue
		}

		job.IsActiveOnATS = false
		job.NeedsAttention = true
		days := int(now.Sub(job.LastSeen).Hours() / 24)
		reason := fmt.Sprintf("Not seen on ATS for %d days", days)
		job.AppendStatus(models.StatusClosed, reason, now)
		s.jobs[id] = job
		marked++
	}

	if marked == 0 {
		return 0, nil
	}
	if err := s.saveJobsLocked(); err != nil {
		return 0, err
	}
	return marked, nil
}

func (s *Store) GetAll() ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedJobs(s.jobs), nil
}

func (s *Store) GetByStatus(status models.Status) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Job
	for _, j := range s.jobs {
		if j.Status == status {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (s *Store) GetActive() ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Job
	for _, j := range s.jobs {
		if j.Status != models.StatusRejected && j.Status != models.StatusExcluded &&
			j.Status != models.StatusWithdrawn && j.Status != models.StatusClosed {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (s *Store) GetArchive() ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Job
	for _, j := range s.jobs {
		if j.Status == models.StatusRejected || j.Status == models.StatusExcluded ||
			j.Status == models.StatusWithdrawn || j.Status == models.StatusClosed {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (s *Store) GetByID(id string) (models.Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok, nil
}

func (s *Store) Exists(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[id]
	return ok, nil
}

func (s *Store) IsRejected(atsJobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rejections[atsJobID]
	return ok, nil
}

func (s *Store) Stats() (interfaces.StoreStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := interfaces.StoreStats{
		ByStatus:  make(map[string]int),
		ByCompany: make(map[string]int),
		Rejected:  len(s.rejections),
	}
	for _, j := range s.jobs {
		stats.Total++
		stats.ByStatus[string(j.Status)]++
		stats.ByCompany[j.Company]++
	}
	return stats, nil
}

func sortedJobs(m map[string]models.Job) []models.Job {
	out := make([]models.Job, 0, len(m))
	for _, j := range m {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}
