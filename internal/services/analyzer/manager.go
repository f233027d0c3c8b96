// Package analyzer runs the asynchronous filing analysis pipeline: job
// submission, a bounded processor pool that claims and executes jobs, and a
// sweeper that reclaims jobs orphaned by crashed workers.
package analyzer

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/catalyst/internal/common"
	"github.com/bobmcallan/catalyst/internal/interfaces"
	"github.com/bobmcallan/catalyst/internal/models"
)

// Analyzer accepts analysis requests and executes them on worker capacity.
// Submission is non-blocking; callers observe progress by polling the job
// store through the status service.
type Analyzer struct {
	storage interfaces.StorageManager
	edgar   interfaces.EdgarClient
	gemini  interfaces.GeminiClient
	logger  *common.Logger
	config  *common.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAnalyzer creates a new analyzer service.
func NewAnalyzer(
	storage interfaces.StorageManager,
	edgar interfaces.EdgarClient,
	gemini interfaces.GeminiClient,
	logger *common.Logger,
	config *common.Config,
) *Analyzer {
	return &Analyzer{
		storage: storage,
		edgar:   edgar,
		gemini:  gemini,
		logger:  logger,
		config:  config,
	}
}

// safeGo launches a goroutine with panic recovery and logging.
func (a *Analyzer) safeGo(name string, fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic in analyzer goroutine")
			}
		}()
		fn()
	}()
}

// Start launches the processor pool and the sweeper loop.
// Safe to call multiple times; stops any existing loops before starting.
func (a *Analyzer) Start() {
	if a.cancel != nil {
		a.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	// Reclaim jobs orphaned by a previous crash before taking new work.
	if count, err := a.storage.JobStore().ReclaimStale(ctx, 0); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to reclaim orphaned running jobs")
	} else if count > 0 {
		a.logger.Info().Int("count", count).Msg("Reclaimed orphaned running jobs")
	}

	a.safeGo("sweeper", func() { a.sweepLoop(ctx) })

	maxConc := a.config.Analyzer.GetMaxConcurrent()
	for i := 0; i < maxConc; i++ {
		name := fmt.Sprintf("processor-%d", i)
		a.safeGo(name, func() { a.processLoop(ctx) })
	}

	a.logger.Info().
		Int("max_concurrent", maxConc).
		Dur("staleness_threshold", a.config.Analyzer.GetStalenessThreshold()).
		Msg("Analyzer started")
}

// Stop cancels all loops and waits for completion.
func (a *Analyzer) Stop() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.wg.Wait()
	a.logger.Info().Msg("Analyzer stopped")
}

// Submit validates the request, resolves the company, and creates a pending
// job. It returns the job id immediately; the pipeline runs on worker
// capacity and never blocks the caller.
func (a *Analyzer) Submit(ctx context.Context, ticker string, filingTypes []string) (string, error) {
	if len(filingTypes) == 0 {
		return "", fmt.Errorf("filing types are required: %w", models.ErrInvalidRequest)
	}

	// De-duplicate while preserving the requested order.
	seen := make(map[string]bool, len(filingTypes))
	types := make([]string, 0, len(filingTypes))
	for _, t := range filingTypes {
		t = strings.ToUpper(strings.TrimSpace(t))
		if !models.IsSupportedFilingType(t) {
			return "", fmt.Errorf("unsupported filing type %q: %w", t, models.ErrInvalidRequest)
		}
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}

	company, err := a.resolveCompany(ctx, ticker)
	if err != nil {
		return "", err
	}

	now := time.Now()
	job := &models.AnalysisJob{
		ID:          uuid.New().String()[:8],
		Ticker:      company.Ticker,
		CIK:         company.CIK,
		CompanyName: company.Name,
		Status:      models.JobStatusPending,
		FilingTypes: types,
		WindowStart: now.Add(-a.config.Clients.Edgar.GetLookback()),
		WindowEnd:   now,
		CreatedAt:   now,
		MaxAttempts: a.config.Analyzer.GetMaxAttempts(),
	}

	if err := a.storage.JobStore().Create(ctx, job); err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}

	a.logger.Info().
		Str("job_id", job.ID).
		Str("ticker", job.Ticker).
		Strs("filing_types", types).
		Msg("Analysis job submitted")

	return job.ID, nil
}

// resolveCompany returns the stored company for the ticker, resolving and
// persisting it via EDGAR on first sight. An unresolvable ticker rejects the
// submission and no job is created.
func (a *Analyzer) resolveCompany(ctx context.Context, ticker string) (*models.Company, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required: %w", models.ErrInvalidRequest)
	}

	company, err := a.storage.CompanyStore().Get(ctx, ticker)
	if err == nil {
		return company, nil
	}

	company, err = a.edgar.ResolveTicker(ctx, ticker)
	if err != nil {
		if models.IsTransient(err) {
			return nil, err
		}
		return nil, fmt.Errorf("company %s does not resolve: %w", ticker, models.ErrInvalidRequest)
	}

	if err := a.storage.CompanyStore().Save(ctx, company); err != nil {
		a.logger.Warn().Str("ticker", ticker).Err(err).Msg("Failed to persist resolved company")
	}

	return company, nil
}

// processLoop continuously claims and executes pending jobs.
func (a *Analyzer) processLoop(ctx context.Context) {
	pollInterval := a.config.Analyzer.GetPollInterval()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := a.claimNext(ctx)
			if err != nil {
				a.logger.Warn().Err(err).Msg("Processor: claim error")
			}
			if job == nil {
				select {
				case <-ctx.Done():
					return
				case <-time.After(pollInterval):
				}
				continue
			}

			a.executeJob(ctx, job)
		}
	}
}

// claimNext scans pending jobs oldest-first and claims the first one the
// store hands us. Losing a claim race is normal; another processor won.
func (a *Analyzer) claimNext(ctx context.Context) (*models.AnalysisJob, error) {
	pending, err := a.storage.JobStore().ListPending(ctx, 10)
	if err != nil {
		return nil, err
	}

	for _, candidate := range pending {
		claimed, err := a.storage.JobStore().ClaimForExecution(ctx, candidate.ID)
		if err != nil {
			return nil, err
		}
		if !claimed {
			continue
		}

		job, err := a.storage.JobStore().Get(ctx, candidate.ID)
		if err != nil {
			return nil, err
		}
		return job, nil
	}

	return nil, nil
}

// Compile-time check
var _ interfaces.AnalyzerService = (*Analyzer)(nil)
