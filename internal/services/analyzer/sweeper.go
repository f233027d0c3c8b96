package analyzer

import (
	"context"
	"time"
)

// sweepLoop periodically returns jobs that have been RUNNING past the
// staleness threshold to the pending queue. A reclaim counts against the
// job's attempt budget, so a job that keeps crashing its worker still ends
// terminal instead of cycling forever.
func (a *Analyzer) sweepLoop(ctx context.Context) {
	interval := a.config.Analyzer.GetSweeperInterval()
	threshold := a.config.Analyzer.GetStalenessThreshold()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := a.storage.JobStore().ReclaimStale(ctx, threshold)
			if err != nil {
				a.logger.Warn().Err(err).Msg("Sweeper: reclaim failed")
				continue
			}
			if count > 0 {
				a.logger.Info().Int("count", count).Msg("Sweeper: reclaimed stale running jobs")
			}
		}
	}
}
