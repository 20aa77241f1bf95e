package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/ancodefactory/postpilot/internal/dedupe"
	"github.com/ancodefactory/postpilot/internal/metrics"
	"github.com/ancodefactory/postpilot/internal/repository"
)

// Sweeper runs the two disjoint recovery scans: jobs the queue's ETA handoff
// fired on but no worker ever claimed ("orphaned enqueued"), and jobs whose
// planned_at has elapsed without that handoff ever happening ("due
// planned") — covering a tick that crashed between inserting the job and
// pushing it onto the queue. Grounded on the teacher's Reaper loop shape,
// retargeted at the job states this system's sweeper actually recovers.
type Sweeper struct {
	jobs        repository.JobRepository
	dedupeStore dedupe.Store
	logger      *slog.Logger
	interval    time.Duration
	staleAfter  time.Duration
	cooldown    time.Duration
	batchSize   int
}

func NewSweeper(jobs repository.JobRepository, dedupeStore dedupe.Store, logger *slog.Logger, interval, staleAfter, cooldown time.Duration) *Sweeper {
	return &Sweeper{
		jobs:        jobs,
		dedupeStore: dedupeStore,
		logger:      logger.With("component", "sweeper"),
		interval:    interval,
		staleAfter:  staleAfter,
		cooldown:    cooldown,
		batchSize:   100,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started", "interval", s.interval, "stale_after", s.staleAfter, "cooldown", s.cooldown)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper shut down")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.SweeperCycleDuration.Observe(time.Since(start).Seconds()) }()

	s.sweepOrphanedEnqueued(ctx)
	s.sweepDuePlanned(ctx)
}

// sweepOrphanedEnqueued re-verifies each candidate under a per-job cooldown
// lock before touching it, so two sweeper replicas scanning the same window
// never double-handle a row.
func (s *Sweeper) sweepOrphanedEnqueued(ctx context.Context) {
	now := time.Now()
	orphaned, err := s.jobs.OrphanedEnqueued(ctx, now.Add(-s.staleAfter), now.Add(-s.cooldown), s.batchSize)
	if err != nil {
		s.logger.Error("list orphaned enqueued jobs", "error", err)
		return
	}

	for _, job := range orphaned {
		lockKey := "sweep:" + job.ID
		acquired, err := s.dedupeStore.Acquire(ctx, lockKey, s.cooldown)
		if err != nil {
			s.logger.Error("acquire sweeper cooldown lock", "job_id", job.ID, "error", err)
			continue
		}
		if !acquired {
			continue // another replica is handling this job's recovery right now
		}

		if err := s.jobs.TouchEnqueued(ctx, job.ID); err != nil {
			s.logger.Error("touch orphaned enqueued job", "job_id", job.ID, "error", err)
			continue
		}
		metrics.SweeperRescuedTotal.WithLabelValues("orphaned_enqueued", "requeued").Inc()
		s.logger.Warn("rescued orphaned enqueued job", "job_id", job.ID, "enqueued_at", job.EnqueuedAt)
	}
}

// sweepDuePlanned finds jobs whose planned_at has elapsed without the tick's
// own enqueue step ever landing and drives the missed transition directly.
func (s *Sweeper) sweepDuePlanned(ctx context.Context) {
	due, err := s.jobs.DuePlanned(ctx, time.Now(), s.batchSize)
	if err != nil {
		s.logger.Error("list due planned jobs", "error", err)
		return
	}

	for _, job := range due {
		if err := s.jobs.MarkEnqueued(ctx, job.ID); err != nil {
			s.logger.Error("mark due planned job enqueued", "job_id", job.ID, "error", err)
			continue
		}
		metrics.SweeperRescuedTotal.WithLabelValues("due_planned", "enqueued").Inc()
		s.logger.Warn("rescued due planned job", "job_id", job.ID, "planned_at", job.PlannedAt)
	}
}
