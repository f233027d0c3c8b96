package server

import (
	"net/http"
)

// AnalysisSubmitRequest is the body for POST /api/analyses.
type AnalysisSubmitRequest struct {
	Ticker      string   `json:"ticker"`
	FilingTypes []string `json:"filing_types"`
}

// AnalysisSubmitResponse acknowledges an accepted analysis job.
type AnalysisSubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// handleAnalysisSubmit handles POST /api/analyses. The response is a 202 with
// the job id; callers poll /api/analyses/status/{id} for the outcome.
func (s *Server) handleAnalysisSubmit(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req AnalysisSubmitRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	jobID, err := s.app.Analyzer.Submit(r.Context(), req.Ticker, req.FilingTypes)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, AnalysisSubmitResponse{
		JobID:  jobID,
		Status: "pending",
	})
}

// handleAnalysisStatus handles GET /api/analyses/status/{id}.
func (s *Server) handleAnalysisStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := PathParam(r, "/api/analyses/status/", "")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Job id is required")
		return
	}

	envelope, err := s.app.Status.GetStatus(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, envelope)
}
