// Package storage provides the top-level StorageManager over the BadgerHold
// data directory.
package storage

import (
	"fmt"

	"github.com/bobmcallan/catalyst/internal/common"
	"github.com/bobmcallan/catalyst/internal/interfaces"
	"github.com/bobmcallan/catalyst/internal/storage/badger"
)

// Manager implements interfaces.StorageManager.
type Manager struct {
	store     *badger.Store
	jobs      interfaces.JobStore
	companies interfaces.CompanyStore
	logger    *common.Logger
}

// NewManager opens the BadgerHold store and wires the typed stores over it.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return &Manager{
		store:     store,
		jobs:      badger.NewJobStorage(store, logger),
		companies: badger.NewCompanyStorage(store, logger),
		logger:    logger,
	}, nil
}

// JobStore returns the analysis job store.
func (m *Manager) JobStore() interfaces.JobStore {
	return m.jobs
}

// CompanyStore returns the company store.
func (m *Manager) CompanyStore() interfaces.CompanyStore {
	return m.companies
}

// Close closes the underlying database.
func (m *Manager) Close() error {
	return m.store.Close()
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
