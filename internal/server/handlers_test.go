package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bobmcallan/catalyst/internal/app"
	"github.com/bobmcallan/catalyst/internal/common"
	"github.com/bobmcallan/catalyst/internal/interfaces"
	"github.com/bobmcallan/catalyst/internal/models"
)

// --- fakes ---

type fakeAnalyzer struct {
	submitFn func(ctx context.Context, ticker string, filingTypes []string) (string, error)
}

func (f *fakeAnalyzer) Submit(ctx context.Context, ticker string, filingTypes []string) (string, error) {
	if f.submitFn != nil {
		return f.submitFn(ctx, ticker, filingTypes)
	}
	return "abcd1234", nil
}
func (f *fakeAnalyzer) Start() {}
func (f *fakeAnalyzer) Stop()  {}

type fakeStatus struct {
	jobs map[string]*models.AnalysisJob
}

func (f *fakeStatus) GetStatus(_ context.Context, id string) (*models.StatusEnvelope, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}
	return job.Envelope(), nil
}

func (f *fakeStatus) GetLatestForCompany(_ context.Context, ticker string) (*models.AnalysisJob, error) {
	var latest *models.AnalysisJob
	for _, j := range f.jobs {
		if j.Ticker != ticker {
			continue
		}
		if latest == nil || j.CreatedAt.After(latest.CreatedAt) {
			latest = j
		}
	}
	return latest, nil
}

func (f *fakeStatus) ListForCompany(_ context.Context, ticker string) ([]*models.AnalysisJob, error) {
	var out []*models.AnalysisJob
	for _, j := range f.jobs {
		if j.Ticker == ticker {
			out = append(out, j)
		}
	}
	return out, nil
}

type fakeCompanies struct {
	companies map[string]*models.Company
}

func (f *fakeCompanies) Register(_ context.Context, ticker string) (*models.Company, error) {
	if ticker == "NOPE" {
		return nil, fmt.Errorf("ticker NOPE does not resolve: %w", models.ErrInvalidRequest)
	}
	c := &models.Company{Ticker: ticker, CIK: "0001070494", Name: "Test Corp"}
	f.companies[ticker] = c
	return c, nil
}

func (f *fakeCompanies) Get(_ context.Context, ticker string) (*models.Company, error) {
	c, ok := f.companies[ticker]
	if !ok {
		return nil, fmt.Errorf("company %s: %w", ticker, models.ErrNotFound)
	}
	return c, nil
}

func (f *fakeCompanies) List(_ context.Context) ([]*models.Company, error) {
	var out []*models.Company
	for _, c := range f.companies {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCompanies) Delete(_ context.Context, ticker string) error {
	delete(f.companies, ticker)
	return nil
}

var (
	_ interfaces.AnalyzerService = (*fakeAnalyzer)(nil)
	_ interfaces.StatusService   = (*fakeStatus)(nil)
	_ interfaces.CompanyService  = (*fakeCompanies)(nil)
)

func newTestServer(analyzer *fakeAnalyzer, status *fakeStatus, companies *fakeCompanies) *Server {
	if analyzer == nil {
		analyzer = &fakeAnalyzer{}
	}
	if status == nil {
		status = &fakeStatus{jobs: map[string]*models.AnalysisJob{}}
	}
	if companies == nil {
		companies = &fakeCompanies{companies: map[string]*models.Company{}}
	}

	a := &app.App{
		Config:    common.NewDefaultConfig(),
		Logger:    common.NewLogger("error"),
		Analyzer:  analyzer,
		Status:    status,
		Companies: companies,
	}
	return NewServer(a)
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// --- tests ---

func TestHandleHealth(t *testing.T) {
	rec := doRequest(t, newTestServer(nil, nil, nil), http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandleAnalysisSubmit_Accepted(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	rec := doRequest(t, srv, http.MethodPost, "/api/analyses", AnalysisSubmitRequest{
		Ticker:      "ACAD",
		FilingTypes: []string{"8-K"},
	})

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body %s", rec.Code, rec.Body.String())
	}

	var resp AnalysisSubmitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID != "abcd1234" || resp.Status != "pending" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandleAnalysisSubmit_InvalidRequest(t *testing.T) {
	analyzer := &fakeAnalyzer{
		submitFn: func(_ context.Context, _ string, _ []string) (string, error) {
			return "", fmt.Errorf("filing types are required: %w", models.ErrInvalidRequest)
		},
	}
	rec := doRequest(t, newTestServer(analyzer, nil, nil), http.MethodPost, "/api/analyses", AnalysisSubmitRequest{Ticker: "ACAD"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleAnalysisSubmit_MethodNotAllowed(t *testing.T) {
	rec := doRequest(t, newTestServer(nil, nil, nil), http.MethodGet, "/api/analyses", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleAnalysisStatus(t *testing.T) {
	now := time.Now()
	completed := now.Add(time.Minute)
	status := &fakeStatus{jobs: map[string]*models.AnalysisJob{
		"done1234": {
			ID:          "done1234",
			Ticker:      "ACAD",
			Status:      models.JobStatusCompleted,
			CreatedAt:   now,
			StartedAt:   now,
			CompletedAt: completed,
			Attempts:    1,
			Result:      &models.AnalysisResult{IsGoodBuy: true, Reasoning: "catalyst"},
		},
	}}
	srv := newTestServer(nil, status, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/analyses/status/done1234", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var env models.StatusEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.JobID != "done1234" || env.Status != models.JobStatusCompleted {
		t.Errorf("unexpected envelope: %+v", env)
	}
	if env.Result == nil || env.Error != nil {
		t.Error("completed envelope must carry result and no error")
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/analyses/status/missing1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleCompanyRegisterAndGet(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/companies", CompanyRegisterRequest{Ticker: "ACAD"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/companies/ACAD", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/companies", CompanyRegisterRequest{Ticker: "NOPE"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unresolvable register status = %d, want 400", rec.Code)
	}
}

func TestHandleCompanyAnalyses(t *testing.T) {
	status := &fakeStatus{jobs: map[string]*models.AnalysisJob{
		"j1": {ID: "j1", Ticker: "ACAD", Status: models.JobStatusCompleted, CreatedAt: time.Now()},
		"j2": {ID: "j2", Ticker: "ACAD", Status: models.JobStatusPending, CreatedAt: time.Now().Add(time.Minute)},
	}}
	srv := newTestServer(nil, status, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/companies/ACAD/analyses", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Ticker   string                `json:"ticker"`
		Count    int                   `json:"count"`
		Analyses []*models.AnalysisJob `json:"analyses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 || resp.Ticker != "ACAD" {
		t.Errorf("unexpected response: %+v", resp)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/companies/ACAD/analyses/latest", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("latest status = %d", rec.Code)
	}
	var latest models.AnalysisJob
	if err := json.Unmarshal(rec.Body.Bytes(), &latest); err != nil {
		t.Fatalf("decode latest: %v", err)
	}
	if latest.ID != "j2" {
		t.Errorf("latest = %s, want j2 (newest created_at)", latest.ID)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/companies/XXXX/analyses/latest", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("no-analyses latest status = %d, want 404", rec.Code)
	}
}

func TestHandleCompanyDelete(t *testing.T) {
	companies := &fakeCompanies{companies: map[string]*models.Company{
		"ACAD": {Ticker: "ACAD", CIK: "0001070494", Name: "ACADIA"},
	}}
	srv := newTestServer(nil, nil, companies)

	rec := doRequest(t, srv, http.MethodDelete, "/api/companies/ACAD", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if _, ok := companies.companies["ACAD"]; ok {
		t.Error("company not deleted")
	}
}

func TestCorrelationIDHeader(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Correlation-ID"); got != "req-42" {
		t.Errorf("correlation id = %q, want req-42", got)
	}

	// Generated when absent
	rec = doRequest(t, srv, http.MethodGet, "/api/health", nil)
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Error("expected generated correlation id")
	}
}
