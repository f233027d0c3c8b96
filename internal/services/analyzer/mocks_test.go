package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bobmcallan/catalyst/internal/interfaces"
	"github.com/bobmcallan/catalyst/internal/models"
)

// --- mocks ---

// mockJobStore is an in-memory JobStore for tests.
type mockJobStore struct {
	mu   sync.Mutex
	jobs map[string]*models.AnalysisJob
}

func newMockJobStore() *mockJobStore {
	return &mockJobStore{jobs: make(map[string]*models.AnalysisJob)}
}

func (m *mockJobStore) Create(_ context.Context, job *models.AnalysisJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already exists: %w", job.ID, models.ErrInvalidState)
	}
	if job.Status == "" {
		job.Status = models.JobStatusPending
	}
	clone := *job
	m.jobs[job.ID] = &clone
	return nil
}

func (m *mockJobStore) ClaimForExecution(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.Status != models.JobStatusPending {
		return false, nil
	}
	job.Status = models.JobStatusRunning
	job.StartedAt = time.Now()
	job.Attempts++
	return true, nil
}

func (m *mockJobStore) Complete(_ context.Context, id string, result *models.AnalysisResult, durationMS int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return models.ErrNotFound
	}
	if job.IsTerminal() {
		return fmt.Errorf("job %s is already %s: %w", id, job.Status, models.ErrInvalidState)
	}
	job.Status = models.JobStatusCompleted
	job.CompletedAt = time.Now()
	job.Result = result
	job.Error = nil
	job.DurationMS = durationMS
	return nil
}

func (m *mockJobStore) Fail(_ context.Context, id string, jobErr *models.JobError, durationMS int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return models.ErrNotFound
	}
	if job.IsTerminal() {
		return fmt.Errorf("job %s is already %s: %w", id, job.Status, models.ErrInvalidState)
	}
	job.Status = models.JobStatusFailed
	job.CompletedAt = time.Now()
	job.Result = nil
	job.Error = jobErr
	job.DurationMS = durationMS
	return nil
}

func (m *mockJobStore) Get(_ context.Context, id string) (*models.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}
	clone := *job
	return &clone, nil
}

func (m *mockJobStore) ListByCompany(_ context.Context, ticker string) ([]*models.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AnalysisJob
	for _, j := range m.jobs {
		if j.Ticker == ticker {
			clone := *j
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockJobStore) ListPending(_ context.Context, limit int) ([]*models.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AnalysisJob
	for _, j := range m.jobs {
		if j.Status == models.JobStatusPending {
			clone := *j
			out = append(out, &clone)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *mockJobStore) ListAll(_ context.Context, limit int) ([]*models.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AnalysisJob
	for _, j := range m.jobs {
		clone := *j
		out = append(out, &clone)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *mockJobStore) CountPending(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, j := range m.jobs {
		if j.Status == models.JobStatusPending {
			count++
		}
	}
	return count, nil
}

func (m *mockJobStore) RecordRetry(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return 0, models.ErrNotFound
	}
	job.Attempts++
	return job.Attempts, nil
}

func (m *mockJobStore) ReclaimStale(_ context.Context, threshold time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-threshold)
	count := 0
	for _, j := range m.jobs {
		if j.Status != models.JobStatusRunning || j.StartedAt.After(cutoff) {
			continue
		}
		if j.Attempts >= j.MaxAttempts {
			j.Status = models.JobStatusFailed
			j.CompletedAt = time.Now()
			j.Error = &models.JobError{Kind: models.FailureKindTransient, Detail: "worker stalled and attempt budget exhausted"}
		} else {
			j.Status = models.JobStatusPending
			j.StartedAt = time.Time{}
		}
		count++
	}
	return count, nil
}

// mockCompanyStore is an in-memory CompanyStore for tests.
type mockCompanyStore struct {
	mu        sync.Mutex
	companies map[string]*models.Company
}

func newMockCompanyStore() *mockCompanyStore {
	return &mockCompanyStore{companies: make(map[string]*models.Company)}
}

func (m *mockCompanyStore) Save(_ context.Context, company *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *company
	m.companies[company.Ticker] = &clone
	return nil
}

func (m *mockCompanyStore) Get(_ context.Context, ticker string) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[ticker]
	if !ok {
		return nil, fmt.Errorf("company %s: %w", ticker, models.ErrNotFound)
	}
	clone := *c
	return &clone, nil
}

func (m *mockCompanyStore) List(_ context.Context) ([]*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Company
	for _, c := range m.companies {
		clone := *c
		out = append(out, &clone)
	}
	return out, nil
}

func (m *mockCompanyStore) Delete(_ context.Context, ticker string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.companies, ticker)
	return nil
}

// mockStorageManager bundles the mock stores.
type mockStorageManager struct {
	jobs      *mockJobStore
	companies *mockCompanyStore
}

func newMockStorageManager() *mockStorageManager {
	return &mockStorageManager{
		jobs:      newMockJobStore(),
		companies: newMockCompanyStore(),
	}
}

func (m *mockStorageManager) JobStore() interfaces.JobStore         { return m.jobs }
func (m *mockStorageManager) CompanyStore() interfaces.CompanyStore { return m.companies }
func (m *mockStorageManager) Close() error                          { return nil }

// mockEdgarClient stubs EDGAR lookups with per-test functions.
type mockEdgarClient struct {
	mu           sync.Mutex
	resolveFn    func(ctx context.Context, ticker string) (*models.Company, error)
	fetchFn      func(ctx context.Context, cik string, filingTypes []string, window models.FilingWindow) ([]models.FilingDocument, error)
	resolveCalls int
	fetchCalls   int
}

func (m *mockEdgarClient) ResolveTicker(ctx context.Context, ticker string) (*models.Company, error) {
	m.mu.Lock()
	m.resolveCalls++
	m.mu.Unlock()
	if m.resolveFn != nil {
		return m.resolveFn(ctx, ticker)
	}
	return &models.Company{Ticker: ticker, CIK: "0000320193", Name: "Test Corp"}, nil
}

func (m *mockEdgarClient) FetchFilings(ctx context.Context, cik string, filingTypes []string, window models.FilingWindow) ([]models.FilingDocument, error) {
	m.mu.Lock()
	m.fetchCalls++
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, cik, filingTypes, window)
	}
	return nil, nil
}

func (m *mockEdgarClient) calls() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls, m.fetchCalls
}

// mockGeminiClient replays canned responses in order, repeating the last one.
type mockGeminiClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (m *mockGeminiClient) GenerateContent(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.calls
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if idx < len(m.errs) && m.errs[idx] != nil {
		return "", m.errs[idx]
	}
	if len(m.responses) == 0 {
		return validVerdict, nil
	}
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func (m *mockGeminiClient) Close() error { return nil }

func (m *mockGeminiClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockGeminiClient) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

const validVerdict = `{"stock_expected_to_go_up": true, "expected_by_date": "2026-11-15", "is_good_buy": true, "reasoning": "Phase 3 readout positive with PDUFA date set."}`
