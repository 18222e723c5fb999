package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vellum/internal/models"
	"github.com/ternarybob/vellum/internal/storage/kernel"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	k, err := kernel.New(nil, t.TempDir())
	require.NoError(t, err)
	s, err := New(k, nil)
	require.NoError(t, err)
	return s
}

func sampleJob() models.Job {
	return models.Job{
		ATS:      "greenhouse",
		ATSJobID: "gh_111",
		ID:       models.JobID("greenhouse", "gh_111"),
		Company:  "Acme",
		Title:    "PM",
	}
}

func TestAddBulk_IngestionDedupAndRejectionMemory(t *testing.T) {
	s := newTestStore(t)
	job := sampleJob()

	added, skipped, err := s.AddBulk([]models.Job{job})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 0, skipped)

	// Second run with the same payload adds nothing (already present).
	added, skipped, err = s.AddBulk([]models.Job{job})
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 0, skipped)

	require.NoError(t, s.UpdateStatus(job.ID, models.StatusRejected, "not a fit"))

	// Third run: job remains, but ats_job_id is in the rejection memory.
	stored, ok, err := s.GetByID(job.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.StatusRejected, stored.Status)

	rejected, err := s.IsRejected(job.ATSJobID)
	require.NoError(t, err)
	assert.True(t, rejected)

	// Un-reject: transitioning out of the skip status clears the memory.
	require.NoError(t, s.UpdateStatus(job.ID, models.StatusNew, ""))
	rejected, err = s.IsRejected(job.ATSJobID)
	require.NoError(t, err)
	assert.False(t, rejected)

	// Fourth run still finds gh_111 present, 0 added.
	added, skipped, err = s.AddBulk([]models.Job{job})
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 0, skipped)
}

func TestAddBulk_RejectsReingestWhileRejected(t *testing.T) {
	s := newTestStore(t)
	job := sampleJob()

	_, _, err := s.AddBulk([]models.Job{job})
	require.NoError(t, err)
	require.NoError(t, s.UpdateStatus(job.ID, models.StatusRejected, ""))

	// Re-ingesting the same posting while it is rejected adds nothing.
	reposted := job
	reposted.ID = models.JobID("greenhouse", "gh_111") // same identity in this case
	added, skipped, err := s.AddBulk([]models.Job{reposted})
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 0, skipped, "id already exists, so it's deduped before the rejection check")
}

func TestMarkMissing_Sweeper(t *testing.T) {
	s := newTestStore(t)
	job := sampleJob()
	job.ATSJobID = "gh_222"
	job.ID = models.JobID("greenhouse", "gh_222")
	job.Status = models.StatusApplied

	_, _, err := s.AddBulk([]models.Job{job})
	require.NoError(t, err)

	fiveDaysAgo := time.Now().Add(-5 * 24 * time.Hour)
	// UpdateLastSeen only moves last_seen forward, so backdate the stored
	// record directly.
	seen, found := s.jobs[job.ID]
	require.True(t, found)
	seen.LastSeen = fiveDaysAgo
	s.jobs[job.ID] = seen

	cutoff := time.Now().Add(-3 * 24 * time.Hour)
	marked, err := s.MarkMissing("Acme", cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	stored, ok, err := s.GetByID(job.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.StatusClosed, stored.Status)
	assert.True(t, stored.NeedsAttention)
	assert.Contains(t, stored.StatusHistory[len(stored.StatusHistory)-1].Reason, "Not seen on ATS for 5 days")

	// Idempotent: calling again with the same cutoff finds nothing more to mark.
	marked, err = s.MarkMissing("Acme", cutoff)
	require.NoError(t, err)
	assert.Equal(t, 0, marked)
}

func TestStatusHistory_InvariantsHoldAcrossTransitions(t *testing.T) {
	s := newTestStore(t)
	job := sampleJob()
	_, _, err := s.AddBulk([]models.Job{job})
	require.NoError(t, err)

	stored, _, _ := s.GetByID(job.ID)
	require.Len(t, stored.StatusHistory, 1)

	require.NoError(t, s.UpdateStatus(job.ID, models.StatusApplied, ""))
	stored, _, _ = s.GetByID(job.ID)
	require.Len(t, stored.StatusHistory, 2)
	assert.Equal(t, models.StatusApplied, stored.Status)
	assert.Equal(t, stored.Status, stored.StatusHistory[len(stored.StatusHistory)-1].Status)
}

func TestUpdateDetails_MergesNonEmptyFieldsOnly(t *testing.T) {
	s := newTestStore(t)
	job := sampleJob()
	_, _, err := s.AddBulk([]models.Job{job})
	require.NoError(t, err)

	require.NoError(t, s.UpdateDetails(job.ID, "good culture fit", "", nil))
	stored, _, _ := s.GetByID(job.ID)
	assert.Equal(t, "good culture fit", stored.Notes)
	assert.Empty(t, stored.FolderPath)
	assert.Nil(t, stored.JDSummary)

	summary := &models.JDSummary{}
	require.NoError(t, s.UpdateDetails(job.ID, "", "/applications/acme-pm", summary))
	stored, _, _ = s.GetByID(job.ID)
	assert.Equal(t, "good culture fit", stored.Notes, "empty notes argument leaves the existing value alone")
	assert.Equal(t, "/applications/acme-pm", stored.FolderPath)
	assert.Same(t, summary, stored.JDSummary)

	// Status and history are untouched by UpdateDetails.
	assert.Equal(t, models.StatusNew, stored.Status)
	assert.Len(t, stored.StatusHistory, 1)
}

func TestUpdateDetails_UnknownJobReturnsError(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateDetails("does-not-exist", "notes", "", nil)
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	job := sampleJob()
	_, _, err := s.AddBulk([]models.Job{job})
	require.NoError(t, err)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[string(models.StatusNew)])
	assert.Equal(t, 1, stats.ByCompany["Acme"])
}
