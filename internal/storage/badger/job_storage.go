package badger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/catalyst/internal/common"
	"github.com/bobmcallan/catalyst/internal/interfaces"
	"github.com/bobmcallan/catalyst/internal/models"
)

// jobStorage implements interfaces.JobStore using BadgerHold.
//
// All state transitions go through the transition mutex, which makes per-job
// transitions linearizable: concurrent ClaimForExecution calls on the same id
// succeed for exactly one caller, and Complete/Fail never overwrite a
// terminal record.
type jobStorage struct {
	store  *Store
	logger *common.Logger
	mu     sync.Mutex // serializes state transitions
}

// NewJobStorage creates a new JobStore backed by BadgerHold.
func NewJobStorage(store *Store, logger *common.Logger) interfaces.JobStore {
	return &jobStorage{store: store, logger: logger}
}

func (s *jobStorage) Create(_ context.Context, job *models.AnalysisJob) error {
	if job.ID == "" {
		return fmt.Errorf("job id is required: %w", models.ErrInvalidRequest)
	}
	if job.Status == "" {
		job.Status = models.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if err := s.store.db.Insert(job.ID, job); err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("job %s already exists: %w", job.ID, models.ErrInvalidState)
		}
		return fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Debug().Str("job_id", job.ID).Str("ticker", job.Ticker).Msg("Job created")
	return nil
}

func (s *jobStorage) ClaimForExecution(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var job models.AnalysisJob
	if err := s.store.db.Get(id, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to get job %s: %w", id, err)
	}

	if job.Status != models.JobStatusPending {
		return false, nil
	}

	job.Status = models.JobStatusRunning
	job.StartedAt = time.Now()
	job.Attempts++

	if err := s.store.db.Update(id, &job); err != nil {
		return false, fmt.Errorf("failed to claim job %s: %w", id, err)
	}

	s.logger.Debug().Str("job_id", id).Int("attempt", job.Attempts).Msg("Job claimed")
	return true, nil
}

func (s *jobStorage) Complete(_ context.Context, id string, result *models.AnalysisResult, durationMS int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.getLocked(id)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		return fmt.Errorf("job %s is already %s: %w", id, job.Status, models.ErrInvalidState)
	}

	job.Status = models.JobStatusCompleted
	job.CompletedAt = time.Now()
	job.Result = result
	job.Error = nil
	job.DurationMS = durationMS

	if err := s.store.db.Update(id, job); err != nil {
		return fmt.Errorf("failed to complete job %s: %w", id, err)
	}
	return nil
}

func (s *jobStorage) Fail(_ context.Context, id string, jobErr *models.JobError, durationMS int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.getLocked(id)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		return fmt.Errorf("job %s is already %s: %w", id, job.Status, models.ErrInvalidState)
	}

	job.Status = models.JobStatusFailed
	job.CompletedAt = time.Now()
	job.Result = nil
	job.Error = jobErr
	job.DurationMS = durationMS

	if err := s.store.db.Update(id, job); err != nil {
		return fmt.Errorf("failed to fail job %s: %w", id, err)
	}
	return nil
}

func (s *jobStorage) RecordRetry(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.getLocked(id)
	if err != nil {
		return 0, err
	}

	job.Attempts++
	if err := s.store.db.Update(id, job); err != nil {
		return 0, fmt.Errorf("failed to record retry for job %s: %w", id, err)
	}
	return job.Attempts, nil
}

func (s *jobStorage) Get(_ context.Context, id string) (*models.AnalysisJob, error) {
	var job models.AnalysisJob
	if err := s.store.db.Get(id, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("job %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return &job, nil
}

func (s *jobStorage) ListByCompany(_ context.Context, ticker string) ([]*models.AnalysisJob, error) {
	var jobs []models.AnalysisJob
	if err := s.store.db.Find(&jobs, badgerhold.Where("Ticker").Eq(ticker).Index("Ticker")); err != nil {
		return nil, fmt.Errorf("failed to list jobs for %s: %w", ticker, err)
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	return toPointers(jobs), nil
}

func (s *jobStorage) ListPending(_ context.Context, limit int) ([]*models.AnalysisJob, error) {
	if limit <= 0 {
		limit = 100
	}

	var jobs []models.AnalysisJob
	if err := s.store.db.Find(&jobs, badgerhold.Where("Status").Eq(models.JobStatusPending)); err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})

	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return toPointers(jobs), nil
}

func (s *jobStorage) ListAll(_ context.Context, limit int) ([]*models.AnalysisJob, error) {
	if limit <= 0 {
		limit = 100
	}

	var jobs []models.AnalysisJob
	if err := s.store.db.Find(&jobs, nil); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return toPointers(jobs), nil
}

func (s *jobStorage) CountPending(_ context.Context) (int, error) {
	count, err := s.store.db.Count(&models.AnalysisJob{}, badgerhold.Where("Status").Eq(models.JobStatusPending))
	if err != nil {
		return 0, fmt.Errorf("failed to count pending jobs: %w", err)
	}
	return int(count), nil
}

func (s *jobStorage) ReclaimStale(_ context.Context, threshold time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var running []models.AnalysisJob
	if err := s.store.db.Find(&running, badgerhold.Where("Status").Eq(models.JobStatusRunning)); err != nil {
		return 0, fmt.Errorf("failed to list running jobs: %w", err)
	}

	cutoff := time.Now().Add(-threshold)
	reclaimed := 0

	for i := range running {
		job := &running[i]
		if job.StartedAt.After(cutoff) {
			continue
		}

		if job.Attempts >= job.MaxAttempts {
			// Budget spent; a reclaim would only loop. Terminate instead.
			job.Status = models.JobStatusFailed
			job.CompletedAt = time.Now()
			job.Error = &models.JobError{
				Kind:   models.FailureKindTransient,
				Detail: fmt.Sprintf("worker stalled and attempt budget exhausted after %d attempts", job.Attempts),
			}
			s.logger.Warn().Str("job_id", job.ID).Int("attempts", job.Attempts).Msg("Stale job failed, budget exhausted")
		} else {
			job.Status = models.JobStatusPending
			job.StartedAt = time.Time{}
			s.logger.Info().Str("job_id", job.ID).Int("attempts", job.Attempts).Msg("Stale job reclaimed to pending")
		}

		if err := s.store.db.Update(job.ID, job); err != nil {
			return reclaimed, fmt.Errorf("failed to reclaim job %s: %w", job.ID, err)
		}
		reclaimed++
	}

	return reclaimed, nil
}

// getLocked fetches a job by id; callers must hold the transition mutex.
func (s *jobStorage) getLocked(id string) (*models.AnalysisJob, error) {
	var job models.AnalysisJob
	if err := s.store.db.Get(id, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("job %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return &job, nil
}

func toPointers(jobs []models.AnalysisJob) []*models.AnalysisJob {
	out := make([]*models.AnalysisJob, len(jobs))
	for i := range jobs {
		out[i] = &jobs[i]
	}
	return out
}
