package models

import "time"

// AnalysisJob is one execution of the filing analysis pipeline for a company.
// Jobs are append-only: a new analysis always creates a new record, terminal
// records are never mutated.
type AnalysisJob struct {
	ID          string          `json:"id" badgerhold:"key"`
	Ticker      string          `json:"ticker" badgerholdIndex:"Ticker"`
	CIK         string          `json:"cik"`
	CompanyName string          `json:"company_name"`
	Status      string          `json:"status"` // "pending", "running", "completed", "failed"
	FilingTypes []string        `json:"filing_types"`
	WindowStart time.Time       `json:"window_start"`
	WindowEnd   time.Time       `json:"window_end"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	Result      *AnalysisResult `json:"result,omitempty"`
	Error       *JobError       `json:"error,omitempty"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	DurationMS  int64           `json:"duration_ms"`
}

// AnalysisResult is the four-field verdict produced by the model.
// ExpectedByDate is "YYYY-MM-DD" or empty when the model returned null.
type AnalysisResult struct {
	StockExpectedToGoUp bool   `json:"stock_expected_to_go_up"`
	ExpectedByDate      string `json:"expected_by_date,omitempty"`
	IsGoodBuy           bool   `json:"is_good_buy"`
	Reasoning           string `json:"reasoning"`
}

// JobError records why a job reached the failed state.
type JobError struct {
	Kind   string `json:"kind"` // see FailureKind constants
	Detail string `json:"detail"`
}

func (e *JobError) Error() string {
	return e.Kind + ": " + e.Detail
}

// Job status constants
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Failure kinds recorded on failed jobs.
const (
	FailureKindTransient  = "transient"  // network/timeout/rate-limit, retry budget exhausted
	FailureKindValidation = "validation" // malformed model output after re-prompt
	FailureKindPermanent  = "permanent"  // unrecoverable upstream or internal error
)

// SupportedFilingTypes lists the filing types the pipeline accepts.
var SupportedFilingTypes = []string{"8-K", "10-K", "10-Q"}

// IsSupportedFilingType reports whether t is one of the accepted filing types.
func IsSupportedFilingType(t string) bool {
	for _, s := range SupportedFilingTypes {
		if s == t {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the job has reached a final state.
func (j *AnalysisJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// StatusEnvelope is the polling response shape for a single job.
// Result and Error are mutually exclusive; both are nil for non-terminal jobs.
type StatusEnvelope struct {
	JobID       string          `json:"job_id"`
	Ticker      string          `json:"ticker"`
	Status      string          `json:"status"`
	Result      *AnalysisResult `json:"result,omitempty"`
	Error       *JobError       `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Attempts    int             `json:"attempts"`
}

// Envelope builds the polling response for the job. Terminal jobs always
// produce identical envelopes on repeated calls.
func (j *AnalysisJob) Envelope() *StatusEnvelope {
	env := &StatusEnvelope{
		JobID:     j.ID,
		Ticker:    j.Ticker,
		Status:    j.Status,
		Result:    j.Result,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
		Attempts:  j.Attempts,
	}
	if !j.StartedAt.IsZero() {
		t := j.StartedAt
		env.StartedAt = &t
	}
	if !j.CompletedAt.IsZero() {
		t := j.CompletedAt
		env.CompletedAt = &t
	}
	return env
}
