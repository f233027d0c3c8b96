// Package status serves polling queries against the job record store. It is
// strictly read-only and never touches EDGAR or the model.
package status

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/catalyst/internal/common"
	"github.com/bobmcallan/catalyst/internal/interfaces"
	"github.com/bobmcallan/catalyst/internal/models"
)

// Service answers job status queries.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

// NewService creates a new status service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{storage: storage, logger: logger}
}

// GetStatus returns the polling envelope for a job.
func (s *Service) GetStatus(ctx context.Context, id string) (*models.StatusEnvelope, error) {
	job, err := s.storage.JobStore().Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	return job.Envelope(), nil
}

// GetLatestForCompany returns the most recently created job for a company,
// whatever its state. Companies with no jobs yield nil without error so the
// handler can distinguish "unknown company" from "no analyses yet".
func (s *Service) GetLatestForCompany(ctx context.Context, ticker string) (*models.AnalysisJob, error) {
	jobs, err := s.ListForCompany(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	return jobs[0], nil
}

// ListForCompany returns the company's jobs ordered by created_at descending.
// Jobs may complete out of submission order; created_at is the only ordering
// clients can rely on.
func (s *Service) ListForCompany(ctx context.Context, ticker string) ([]*models.AnalysisJob, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required: %w", models.ErrInvalidRequest)
	}
	return s.storage.JobStore().ListByCompany(ctx, ticker)
}

// Compile-time check
var _ interfaces.StatusService = (*Service)(nil)
