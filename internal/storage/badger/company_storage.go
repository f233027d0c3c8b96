package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/catalyst/internal/common"
	"github.com/bobmcallan/catalyst/internal/interfaces"
	"github.com/bobmcallan/catalyst/internal/models"
)

// companyStorage implements interfaces.CompanyStore using BadgerHold.
type companyStorage struct {
	store  *Store
	logger *common.Logger
}

// NewCompanyStorage creates a new CompanyStore backed by BadgerHold.
func NewCompanyStorage(store *Store, logger *common.Logger) interfaces.CompanyStore {
	return &companyStorage{store: store, logger: logger}
}

func (s *companyStorage) Save(_ context.Context, company *models.Company) error {
	if company.AddedAt.IsZero() {
		company.AddedAt = time.Now()
	}
	if err := s.store.db.Upsert(company.Ticker, company); err != nil {
		return fmt.Errorf("failed to save company %s: %w", company.Ticker, err)
	}
	s.logger.Debug().Str("ticker", company.Ticker).Str("cik", company.CIK).Msg("Company saved")
	return nil
}

func (s *companyStorage) Get(_ context.Context, ticker string) (*models.Company, error) {
	var company models.Company
	if err := s.store.db.Get(ticker, &company); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("company %s: %w", ticker, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get company %s: %w", ticker, err)
	}
	return &company, nil
}

func (s *companyStorage) List(_ context.Context) ([]*models.Company, error) {
	var companies []models.Company
	if err := s.store.db.Find(&companies, nil); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	sort.SliceStable(companies, func(i, j int) bool {
		return companies[i].Ticker < companies[j].Ticker
	})

	out := make([]*models.Company, len(companies))
	for i := range companies {
		out[i] = &companies[i]
	}
	return out, nil
}

func (s *companyStorage) Delete(_ context.Context, ticker string) error {
	err := s.store.db.Delete(ticker, models.Company{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete company %s: %w", ticker, err)
	}
	return nil
}
