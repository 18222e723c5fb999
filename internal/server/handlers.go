package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/vellum/internal/models"
)

// writeJSON encodes v as the response body with the standard JSON
// content type, matching the teacher's handler convention.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// healthHandler answers GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// scoredJob is models.Job plus the computed score GET /jobs attaches.
type scoredJob struct {
	models.Job
	Score int `json:"score"`
}

// jobsHandler answers GET /jobs.
func (s *Server) jobsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jobs, err := s.app.Store.GetAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	q := parseJobsQuery(r.URL.Query())
	now := time.Now()
	companies := s.app.Config.Ingestion.Companies

	result := make([]scoredJob, 0, len(jobs))
	for _, job := range jobs {
		if !q.matches(job) || !q.passesGeoMode(job) {
			continue
		}
		result = append(result, scoredJob{Job: job, Score: score(job, q, companies, now)})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(result),
		"jobs":  result,
	})
}

// companySummary is one entry in GET /companies's response.
type companySummary struct {
	Company     string    `json:"company"`
	Industry    string    `json:"industry,omitempty"`
	ATS         string    `json:"ats"`
	URL         string    `json:"url"`
	LastOK      bool      `json:"last_ok"`
	LastError   string    `json:"last_error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// companiesHandler answers GET /companies?profile=..., merging the
// Company Fetch-Status Cache with the configured industry per company.
func (s *Server) companiesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	profile := r.URL.Query().Get("profile")
	if profile == "" {
		profile = s.app.Config.Profile.Path
	}

	statuses, err := s.app.StatusCache.ListByProfile(profile)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	industryByCompany := make(map[string]string, len(s.app.Config.Ingestion.Companies))
	for _, c := range s.app.Config.Ingestion.Companies {
		industryByCompany[strings.ToLower(c.Name)] = c.Industry
	}

	summaries := make([]companySummary, 0, len(statuses))
	for _, st := range statuses {
		summaries = append(summaries, companySummary{
			Company:     st.Company,
			Industry:    industryByCompany[strings.ToLower(st.Company)],
			ATS:         st.ATS,
			URL:         st.URL,
			LastOK:      st.OK,
			LastError:   st.Error,
			LastChecked: st.CheckedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(summaries),
		"companies": summaries,
	})
}

// pipelineStatsHandler answers GET /pipeline/stats.
func (s *Server) pipelineStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.app.Store.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) writeJobList(w http.ResponseWriter, jobs []models.Job, err error) {
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(jobs),
		"jobs":  jobs,
	})
}

// pipelineAllHandler answers GET /pipeline/all.
func (s *Server) pipelineAllHandler(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.app.Store.GetAll()
	s.writeJobList(w, jobs, err)
}

// pipelineNewHandler answers GET /pipeline/new.
func (s *Server) pipelineNewHandler(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.app.Store.GetByStatus(models.StatusNew)
	s.writeJobList(w, jobs, err)
}

// pipelineActiveHandler answers GET /pipeline/active.
func (s *Server) pipelineActiveHandler(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.app.Store.GetActive()
	s.writeJobList(w, jobs, err)
}

// pipelineArchiveHandler answers GET /pipeline/archive.
func (s *Server) pipelineArchiveHandler(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.app.Store.GetArchive()
	s.writeJobList(w, jobs, err)
}

// pipelineJobHandler answers GET /pipeline/job/{id}.
func (s *Server) pipelineJobHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := pathID(r, "/pipeline/job/")
	job, found, err := s.app.Store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// addRequest is POST /pipeline/add's body.
type addRequest struct {
	Job models.Job `json:"job"`
}

// pipelineAddHandler answers POST /pipeline/add.
func (s *Server) pipelineAddHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.app.Store.Add(req.Job); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

// statusRequest is POST /pipeline/status's body.
type statusRequest struct {
	JobID      string            `json:"job_id"`
	Status     models.Status     `json:"status"`
	Notes      string            `json:"notes,omitempty"`
	FolderPath string            `json:"folder_path,omitempty"`
	JDSummary  *models.JDSummary `json:"jd_summary,omitempty"`
}

// pipelineStatusHandler answers POST /pipeline/status.
func (s *Server) pipelineStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.JobID == "" {
		writeError(w, http.StatusBadRequest, "job_id is required")
		return
	}
	if !models.IsValidStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	if err := s.app.Store.UpdateStatus(req.JobID, req.Status, ""); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if req.Notes != "" || req.FolderPath != "" || req.JDSummary != nil {
		if err := s.app.Store.UpdateDetails(req.JobID, req.Notes, req.FolderPath, req.JDSummary); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// pipelineRemoveHandler answers DELETE /pipeline/remove/{id}. The Pipeline
// Store exposes no hard-delete, so a remove is modeled as a transition to
// excluded — removing the job from the pipeline's working views while
// still recording it in the rejection memory so it is never re-ingested.
func (s *Server) pipelineRemoveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := pathID(r, "/pipeline/remove/")
	if err := s.app.Store.UpdateStatus(id, models.StatusExcluded, "removed via api"); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
