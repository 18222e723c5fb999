package server

import "net/http"

// setupRoutes builds the full route table. The API is deliberately thin:
// one mux, no router framework, each path backed by a single handler that
// switches on method internally where more than one is supported.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/jobs", s.jobsHandler)
	mux.HandleFunc("/companies", s.companiesHandler)

	mux.HandleFunc("/pipeline/stats", s.pipelineStatsHandler)
	mux.HandleFunc("/pipeline/all", s.pipelineAllHandler)
	mux.HandleFunc("/pipeline/new", s.pipelineNewHandler)
	mux.HandleFunc("/pipeline/active", s.pipelineActiveHandler)
	mux.HandleFunc("/pipeline/archive", s.pipelineArchiveHandler)
	mux.HandleFunc("/pipeline/job/", s.pipelineJobHandler)
	mux.HandleFunc("/pipeline/add", s.pipelineAddHandler)
	mux.HandleFunc("/pipeline/status", s.pipelineStatusHandler)
	mux.HandleFunc("/pipeline/remove/", s.pipelineRemoveHandler)

	return mux
}
