// Package interfaces defines service contracts for Catalyst
package interfaces

import (
	"context"

	"github.com/bobmcallan/catalyst/internal/models"
)

// AnalyzerService accepts analysis requests and runs them on worker capacity.
type AnalyzerService interface {
	// Submit validates the request, creates a pending job, and returns its id
	// without waiting on the pipeline. Returns models.ErrInvalidRequest when
	// filingTypes is empty or contains an unsupported type, or when the
	// ticker cannot be resolved; no job is created in either case.
	Submit(ctx context.Context, ticker string, filingTypes []string) (string, error)

	// Start launches the processor pool and sweeper loop.
	Start()

	// Stop cancels all loops and waits for in-flight jobs to settle.
	Stop()
}

// StatusService answers polling queries from the job store. Read-only; it
// never reaches external systems and is safe to call at arbitrary frequency.
type StatusService interface {
	// GetStatus returns the status envelope for a job, or models.ErrNotFound.
	GetStatus(ctx context.Context, id string) (*models.StatusEnvelope, error)

	// GetLatestForCompany returns the most recently created job for a
	// company, or nil when the company has no jobs.
	GetLatestForCompany(ctx context.Context, ticker string) (*models.AnalysisJob, error)

	// ListForCompany returns the company's jobs ordered by created_at descending.
	ListForCompany(ctx context.Context, ticker string) ([]*models.AnalysisJob, error)
}

// CompanyService resolves and persists companies.
type CompanyService interface {
	// Register resolves a ticker against EDGAR and persists the company.
	Register(ctx context.Context, ticker string) (*models.Company, error)

	Get(ctx context.Context, ticker string) (*models.Company, error)
	List(ctx context.Context) ([]*models.Company, error)

	// Delete removes a stored company. Existing jobs are retained.
	Delete(ctx context.Context, ticker string) error
}
