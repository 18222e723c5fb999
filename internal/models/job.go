// Package models defines the shared data types that flow through the
// pipeline store, the ingestion orchestrator, and the autofill engine.
package models

import "time"

// Status is a job's position in the pipeline state machine.
type Status string

const (
	StatusNew        Status = "new"
	StatusApplied    Status = "applied"
	StatusInterview  Status = "interview"
	StatusOffer      Status = "offer"
	StatusRejected   Status = "rejected"
	StatusWithdrawn  Status = "withdrawn"
	StatusClosed     Status = "closed"
	StatusExcluded   Status = "excluded"
)

// rejectionStatuses are the statuses that gate rejection-memory side effects.
var rejectionStatuses = map[Status]bool{
	StatusRejected: true,
	StatusExcluded: true,
	StatusWithdrawn: true,
}

// IsRejectionStatus reports whether status is one of the statuses that
// causes a job's ats_job_id to be recorded in the rejection memory.
func IsRejectionStatus(s Status) bool {
	return rejectionStatuses[s]
}

// ValidStatuses enumerates the allowed status values.
var ValidStatuses = []Status{
	StatusNew, StatusApplied, StatusInterview, StatusOffer,
	StatusRejected, StatusWithdrawn, StatusClosed, StatusExcluded,
}

// IsValidStatus reports whether s is one of the enumerated statuses.
func IsValidStatus(s Status) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// StatusEvent is one entry in a job's append-only status history.
type StatusEvent struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

// LocationNorm is the structured result of normalizing a free-text location.
type LocationNorm struct {
	Raw         string   `json:"raw"`
	City        string   `json:"city,omitempty"`
	State       string   `json:"state,omitempty"`       // 2-letter, alphabetically-first when multi-state
	StateFull   string   `json:"state_full,omitempty"`
	States      []string `json:"states,omitempty"`      // all 2-letter codes observed, sorted
	Remote      bool     `json:"remote"`
	RemoteScope string   `json:"remote_scope,omitempty"` // "usa" | "global" | ""
}

// JDSummary is the optional structured output of the JD Fetch & Summarizer
// collaborator (component L in SPEC_FULL.md).
type JDSummary struct {
	Responsibilities []string `json:"responsibilities,omitempty"`
	Requirements     []string `json:"requirements,omitempty"`
	Seniority        string   `json:"seniority,omitempty"`
	RemotePolicy     string   `json:"remote_policy,omitempty"`
	FetchedAt        time.Time `json:"fetched_at,omitempty"`
}

// Job is the unit of record in the Pipeline Store.
//
// Identity is the composite of ATS tag + ATS-internal id, computed by
// JobID. RoleFamily, RoleConfidence, GeoBucket, and GeoScore are derived at
// ingestion time and are not mutated by state transitions.
type Job struct {
	ID             string `json:"id"`
	ATSJobID       string `json:"ats_job_id"`
	ATS            string `json:"ats"`
	Company        string `json:"company"`
	Title          string `json:"title"`
	Location       string `json:"location"`
	LocationNorm   LocationNorm `json:"location_norm"`
	Department     string `json:"department,omitempty"`
	URL            string `json:"url"`
	FirstPublished time.Time `json:"first_published,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`

	Status        Status        `json:"status"`
	StatusHistory []StatusEvent `json:"status_history"`

	FirstSeen       time.Time `json:"first_seen"`
	AddedToPipeline time.Time `json:"added_to_pipeline"`
	LastSeen        time.Time `json:"last_seen"`

	IsActiveOnATS  bool `json:"is_active_on_ats"`
	NeedsAttention bool `json:"needs_attention"`

	Notes      string     `json:"notes,omitempty"`
	FolderPath string     `json:"folder_path,omitempty"`
	JDSummary  *JDSummary `json:"jd_summary,omitempty"`

	// Derived at ingestion time and stored with the job when it is first
	// added. Later ingestion runs re-annotate fetched postings, but the
	// store keeps the existing copy of a job it already holds.
	RoleFamily     string  `json:"role_family,omitempty"`
	RoleConfidence float64 `json:"role_confidence,omitempty"`
	GeoBucket      string  `json:"geo_bucket,omitempty"`
	GeoScore       int     `json:"geo_score,omitempty"`
}

// JobID computes the stable composite identity of a job: ATS tag +
// ATS-internal id. Parsers and the store both call this so identity is
// computed in exactly one place.
func JobID(ats, atsJobID string) string {
	return ats + "_" + atsJobID
}

// AppendStatus appends a new status-history entry and updates Status,
// enforcing invariant 2 (status_history[-1].status == status).
func (j *Job) AppendStatus(s Status, reason string, at time.Time) {
	j.Status = s
	j.StatusHistory = append(j.StatusHistory, StatusEvent{
		Status:    s,
		Timestamp: at,
		Reason:    reason,
	})
}

// RejectionEntry is one record in the rejection memory, keyed by
// ats_job_id.
type RejectionEntry struct {
	Title   string    `json:"title"`
	Company string    `json:"company"`
	Reason  string    `json:"reason,omitempty"`
	Date    time.Time `json:"date"`
}
