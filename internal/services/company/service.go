// Package company manages the registered-company catalog backed by the
// EDGAR ticker index.
package company

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/catalyst/internal/common"
	"github.com/bobmcallan/catalyst/internal/interfaces"
	"github.com/bobmcallan/catalyst/internal/models"
)

// Service resolves and persists companies.
type Service struct {
	storage interfaces.StorageManager
	edgar   interfaces.EdgarClient
	logger  *common.Logger
}

// NewService creates a new company service.
func NewService(storage interfaces.StorageManager, edgar interfaces.EdgarClient, logger *common.Logger) *Service {
	return &Service{storage: storage, edgar: edgar, logger: logger}
}

// Register resolves a ticker against the EDGAR company index and persists
// the result. Registering an already-known ticker refreshes its record.
func (s *Service) Register(ctx context.Context, ticker string) (*models.Company, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required: %w", models.ErrInvalidRequest)
	}

	company, err := s.edgar.ResolveTicker(ctx, ticker)
	if err != nil {
		if models.IsTransient(err) {
			return nil, err
		}
		return nil, fmt.Errorf("ticker %s does not resolve: %w", ticker, models.ErrInvalidRequest)
	}

	if err := s.storage.CompanyStore().Save(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to save company: %w", err)
	}

	s.logger.Info().
		Str("ticker", company.Ticker).
		Str("cik", company.CIK).
		Str("name", company.Name).
		Msg("Company registered")

	return company, nil
}

// Get returns a stored company by ticker.
func (s *Service) Get(ctx context.Context, ticker string) (*models.Company, error) {
	return s.storage.CompanyStore().Get(ctx, strings.ToUpper(strings.TrimSpace(ticker)))
}

// List returns all stored companies ordered by ticker.
func (s *Service) List(ctx context.Context) ([]*models.Company, error) {
	return s.storage.CompanyStore().List(ctx)
}

// Delete removes a stored company. Job history for the ticker is retained.
func (s *Service) Delete(ctx context.Context, ticker string) error {
	return s.storage.CompanyStore().Delete(ctx, strings.ToUpper(strings.TrimSpace(ticker)))
}

// Compile-time check
var _ interfaces.CompanyService = (*Service)(nil)
