// Package app wires configuration, storage, clients, and services into the
// shared core used by cmd/catalyst-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/catalyst/internal/clients/edgar"
	"github.com/bobmcallan/catalyst/internal/clients/gemini"
	"github.com/bobmcallan/catalyst/internal/common"
	"github.com/bobmcallan/catalyst/internal/interfaces"
	"github.com/bobmcallan/catalyst/internal/services/analyzer"
	"github.com/bobmcallan/catalyst/internal/services/company"
	"github.com/bobmcallan/catalyst/internal/services/status"
	"github.com/bobmcallan/catalyst/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.StorageManager
	EdgarClient interfaces.EdgarClient
	Gemini      interfaces.GeminiClient
	Analyzer    interfaces.AnalyzerService
	Status      interfaces.StatusService
	Companies   interfaces.CompanyService
	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services. configPath may be
// empty, in which case CATALYST_CONFIG and the binary directory are checked.
func NewApp(configPath string) (*App, error) {
	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("CATALYST_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "catalyst.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/catalyst.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	edgarClient := edgar.NewClient(
		edgar.WithBaseURL(config.Clients.Edgar.BaseURL),
		edgar.WithDataURL(config.Clients.Edgar.DataURL),
		edgar.WithUserAgent(config.Clients.Edgar.UserAgent),
		edgar.WithRateLimit(config.Clients.Edgar.RateLimit),
		edgar.WithTimeout(config.Clients.Edgar.GetTimeout()),
		edgar.WithLogger(logger),
	)

	geminiKey, err := common.ResolveAPIKey("gemini_api_key", config.Clients.Gemini.APIKey)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("gemini API key not configured: %w", err)
	}

	geminiClient, err := gemini.NewClient(context.Background(), geminiKey,
		gemini.WithModel(config.Clients.Gemini.Model),
		gemini.WithLogger(logger),
	)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
	}

	analyzerService := analyzer.NewAnalyzer(storageManager, edgarClient, geminiClient, logger, config)
	statusService := status.NewService(storageManager, logger)
	companyService := company.NewService(storageManager, edgarClient, logger)

	return &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		EdgarClient: edgarClient,
		Gemini:      geminiClient,
		Analyzer:    analyzerService,
		Status:      statusService,
		Companies:   companyService,
		StartupTime: time.Now(),
	}, nil
}

// Start launches the analyzer's processor pool and sweeper.
func (a *App) Start() {
	a.Analyzer.Start()
}

// Close stops background work and releases resources.
func (a *App) Close() {
	a.Analyzer.Stop()

	if a.Gemini != nil {
		if err := a.Gemini.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close gemini client")
		}
	}

	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}
