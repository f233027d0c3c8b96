package server

import (
	"net/http"
	"strings"
)

// CompanyRegisterRequest is the body for POST /api/companies.
type CompanyRegisterRequest struct {
	Ticker string `json:"ticker"`
}

// routeCompanyCollection handles /api/companies (no trailing path).
func (s *Server) routeCompanyCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleCompanyList(w, r)
	case http.MethodPost:
		s.handleCompanyRegister(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// routeCompanies dispatches /api/companies/{ticker}[/analyses[/latest]].
func (s *Server) routeCompanies(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/companies/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		s.handleCompany(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "analyses":
		s.handleCompanyAnalyses(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "analyses" && parts[2] == "latest":
		s.handleCompanyLatestAnalysis(w, r, parts[0])
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) handleCompanyList(w http.ResponseWriter, r *http.Request) {
	companies, err := s.app.Companies.List(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(companies),
		"companies": companies,
	})
}

func (s *Server) handleCompanyRegister(w http.ResponseWriter, r *http.Request) {
	var req CompanyRegisterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	company, err := s.app.Companies.Register(r.Context(), req.Ticker)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, company)
}

// handleCompany handles GET and DELETE on /api/companies/{ticker}.
func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request, ticker string) {
	switch r.Method {
	case http.MethodGet:
		company, err := s.app.Companies.Get(r.Context(), ticker)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, company)
	case http.MethodDelete:
		if err := s.app.Companies.Delete(r.Context(), ticker); err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodDelete)
	}
}

// handleCompanyAnalyses handles GET /api/companies/{ticker}/analyses.
func (s *Server) handleCompanyAnalyses(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobs, err := s.app.Status.ListForCompany(r.Context(), ticker)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":   strings.ToUpper(strings.TrimSpace(ticker)),
		"count":    len(jobs),
		"analyses": jobs,
	})
}

// handleCompanyLatestAnalysis handles GET /api/companies/{ticker}/analyses/latest.
func (s *Server) handleCompanyLatestAnalysis(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	job, err := s.app.Status.GetLatestForCompany(r.Context(), ticker)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if job == nil {
		WriteError(w, http.StatusNotFound, "No analyses for company")
		return
	}
	WriteJSON(w, http.StatusOK, job)
}
