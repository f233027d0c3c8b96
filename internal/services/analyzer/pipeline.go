package analyzer

import (
	"context"
	"time"

	"github.com/bobmcallan/catalyst/internal/models"
)

// executeJob runs the retrieval → prompt → invoke → persist sequence for one
// claimed job. Steps are sequential within the job; other jobs proceed in
// parallel on their own processors. The job always leaves here terminal
// unless a transient failure left budget for a later attempt.
func (a *Analyzer) executeJob(ctx context.Context, job *models.AnalysisJob) {
	start := time.Now()

	a.logger.Info().
		Str("job_id", job.ID).
		Str("ticker", job.Ticker).
		Int("attempt", job.Attempts).
		Msg("Job started")

	window := models.FilingWindow{Start: job.WindowStart, End: job.WindowEnd}

	var filings []models.FilingDocument
	err := a.retryTransient(ctx, job, "fetch_filings", a.config.Clients.Edgar.GetTimeout(), func(callCtx context.Context) error {
		var fetchErr error
		filings, fetchErr = a.edgar.FetchFilings(callCtx, job.CIK, job.FilingTypes, window)
		return fetchErr
	})
	if err != nil {
		a.failJob(ctx, job, err, start)
		return
	}

	if len(filings) == 0 {
		a.logger.Info().Str("job_id", job.ID).Str("ticker", job.Ticker).Msg("No qualifying filings in window")
	}

	prompt := BuildPrompt(job.CompanyName, job.Ticker, job.FilingTypes, filings, a.config.Clients.Gemini.GetMaxPromptChars())

	result, err := a.invokeModel(ctx, job, prompt)
	if err != nil {
		a.failJob(ctx, job, err, start)
		return
	}

	durationMS := time.Since(start).Milliseconds()
	if err := a.storage.JobStore().Complete(ctx, job.ID, result, durationMS); err != nil {
		a.logger.Error().Str("job_id", job.ID).Err(err).Msg("Failed to persist completed job")
		return
	}

	a.logger.Info().
		Str("job_id", job.ID).
		Str("ticker", job.Ticker).
		Bool("good_buy", result.IsGoodBuy).
		Int64("duration_ms", durationMS).
		Msg("Job completed")
}

// failJob writes the terminal failed state with the classified failure kind.
func (a *Analyzer) failJob(ctx context.Context, job *models.AnalysisJob, err error, start time.Time) {
	jobErr := &models.JobError{
		Kind:   classifyFailure(err),
		Detail: err.Error(),
	}

	durationMS := time.Since(start).Milliseconds()
	if ferr := a.storage.JobStore().Fail(ctx, job.ID, jobErr, durationMS); ferr != nil {
		a.logger.Error().Str("job_id", job.ID).Err(ferr).Msg("Failed to persist failed job")
		return
	}

	a.logger.Warn().
		Str("job_id", job.ID).
		Str("ticker", job.Ticker).
		Str("kind", jobErr.Kind).
		Err(err).
		Msg("Job failed")
}

// classifyFailure maps a pipeline error onto the recorded failure kind.
func classifyFailure(err error) string {
	switch {
	case models.IsTransient(err):
		return models.FailureKindTransient
	case models.IsValidation(err):
		return models.FailureKindValidation
	default:
		return models.FailureKindPermanent
	}
}

// retryTransient runs a pipeline step with a per-call timeout, retrying
// transient failures with exponential backoff until the step succeeds, a
// permanent error occurs, or the job's attempt budget is spent. Each retry
// consumes one attempt from the shared budget, so in-place retries and
// sweeper reclaims are bounded together.
func (a *Analyzer) retryTransient(ctx context.Context, job *models.AnalysisJob, step string, timeout time.Duration, fn func(ctx context.Context) error) error {
	delay := a.config.Analyzer.GetRetryBaseDelay()

	for {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		err := fn(callCtx)
		cancel()

		if err == nil {
			return nil
		}
		if !models.IsTransient(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}

		attempts, rerr := a.storage.JobStore().RecordRetry(ctx, job.ID)
		if rerr != nil {
			a.logger.Warn().Str("job_id", job.ID).Err(rerr).Msg("Failed to record retry attempt")
			return err
		}
		job.Attempts = attempts

		if attempts >= job.MaxAttempts {
			a.logger.Warn().
				Str("job_id", job.ID).
				Str("step", step).
				Int("attempts", attempts).
				Msg("Retry budget exhausted")
			return err
		}

		a.logger.Info().
			Str("job_id", job.ID).
			Str("step", step).
			Int("attempt", attempts).
			Dur("backoff", delay).
			Err(err).
			Msg("Transient failure, retrying")

		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
}
