// Package interfaces defines service contracts for Catalyst
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/catalyst/internal/models"
)

// StorageManager coordinates all storage areas.
type StorageManager interface {
	JobStore() JobStore
	CompanyStore() CompanyStore
	Close() error
}

// JobStore is the durable record of analysis jobs and the single source of
// truth for their lifecycle state. All transitions go through its atomic
// claim/complete/fail operations; per-job transitions are linearizable.
type JobStore interface {
	// Create persists a new pending job.
	Create(ctx context.Context, job *models.AnalysisJob) error

	// ClaimForExecution atomically moves a pending job to running and
	// increments its attempt count. Returns false when the job is not
	// pending (already claimed, terminal, or unknown).
	ClaimForExecution(ctx context.Context, id string) (bool, error)

	// Complete writes the terminal completed state with its result.
	// Returns models.ErrInvalidState for a job that is already terminal.
	Complete(ctx context.Context, id string, result *models.AnalysisResult, durationMS int64) error

	// Fail writes the terminal failed state with its error.
	// Returns models.ErrInvalidState for a job that is already terminal.
	Fail(ctx context.Context, id string, jobErr *models.JobError, durationMS int64) error

	// Get returns a job by id, or models.ErrNotFound.
	Get(ctx context.Context, id string) (*models.AnalysisJob, error)

	// ListByCompany returns the company's jobs ordered by created_at descending.
	ListByCompany(ctx context.Context, ticker string) ([]*models.AnalysisJob, error)

	// ListPending returns up to limit pending jobs ordered by created_at ascending.
	ListPending(ctx context.Context, limit int) ([]*models.AnalysisJob, error)

	// ListAll returns up to limit jobs ordered by created_at descending.
	ListAll(ctx context.Context, limit int) ([]*models.AnalysisJob, error)

	// CountPending returns the number of pending jobs.
	CountPending(ctx context.Context) (int, error)

	// RecordRetry consumes one attempt from the job's budget for an in-place
	// step retry and returns the new attempt count.
	RecordRetry(ctx context.Context, id string) (int, error)

	// ReclaimStale resets jobs stuck in running past the threshold back to
	// pending, or fails them when their attempt budget is spent. Returns the
	// number of jobs touched.
	ReclaimStale(ctx context.Context, threshold time.Duration) (int, error)
}

// CompanyStore persists resolved companies.
type CompanyStore interface {
	Save(ctx context.Context, company *models.Company) error
	Get(ctx context.Context, ticker string) (*models.Company, error)
	List(ctx context.Context) ([]*models.Company, error)
	Delete(ctx context.Context, ticker string) error
}
