package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/metrics"
	"github.com/ancodefactory/postpilot/internal/queue"
	"github.com/ancodefactory/postpilot/internal/repository"
	"github.com/ancodefactory/postpilot/internal/resolver"
	"github.com/ancodefactory/postpilot/internal/variant"
)

// Tick is the Go re-expression of the original system's periodic scheduler
// beat: every interval it claims due schedules, picks a variant for each,
// and hands the resulting job off to the queue for execution at PlannedAt.
type Tick struct {
	scheduleRepo repository.ScheduleRepository
	variantRepo  repository.VariantRepository
	historyRepo  repository.HistoryRepository
	resolver     *resolver.Resolver
	queue        queue.Queue
	logger       *slog.Logger
	interval     time.Duration
	batchSize    int
}

func NewTick(
	scheduleRepo repository.ScheduleRepository,
	variantRepo repository.VariantRepository,
	historyRepo repository.HistoryRepository,
	resolver *resolver.Resolver,
	q queue.Queue,
	logger *slog.Logger,
	interval time.Duration,
) *Tick {
	return &Tick{
		scheduleRepo: scheduleRepo,
		variantRepo:  variantRepo,
		historyRepo:  historyRepo,
		resolver:     resolver,
		queue:        q,
		logger:       logger.With("component", "tick"),
		interval:     interval,
		batchSize:    100,
	}
}

func (t *Tick) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info("tick started", "interval", t.interval)

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tick shut down")
			return
		case <-ticker.C:
			t.run(ctx)
		}
	}
}

func (t *Tick) run(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.TickCycleDuration.Observe(time.Since(start).Seconds()) }()

	results, err := t.scheduleRepo.ClaimAndFire(ctx, t.batchSize, t.pick)
	if err != nil {
		t.logger.Error("claim and fire", "error", err)
		return
	}

	for _, res := range results {
		if res.Job == nil {
			continue // duplicate fire, another replica already won the race
		}
		metrics.TickFiredTotal.WithLabelValues(string(res.Schedule.Kind)).Inc()
		if err := t.queue.Enqueue(ctx, res.Job.ID, res.Job.PlannedAt); err != nil {
			t.logger.Error("enqueue fired job", "job_id", res.Job.ID, "error", err)
		}
	}

	if len(results) > 0 {
		t.logger.Info("tick fired schedules", "count", len(results))
	}
}

// pick is the repository.VariantPicker handed to ClaimAndFire. For a
// template-bound schedule it resolves the active variant pool, applies the
// no-repeat window whenever one is configured, and selects a variant
// deterministically. A post-bound schedule always fires the same fixed
// post, so there is nothing to select — the worker loads the post from the
// PostID copied onto the job at fire time. Either way, it resolves the
// schedule's next
// occurrence.
func (t *Tick) pick(ctx context.Context, s *domain.Schedule, plannedAt time.Time) (string, int64, *int, time.Time, error) {
	nextRunAt, err := t.resolver.Next(s, plannedAt)
	if err != nil {
		return "", 0, nil, time.Time{}, err
	}

	if s.PostBound() {
		return "", variant.GenerateSeed(s.ID, plannedAt), nil, nextRunAt, nil
	}

	pool, err := t.variantRepo.ListActiveByTemplate(ctx, s.TemplateID)
	if err != nil {
		return "", 0, nil, time.Time{}, err
	}
	if len(pool) == 0 {
		return "", 0, nil, time.Time{}, domain.ErrNoActiveVariants
	}

	// Applied whenever a no-repeat window is configured, regardless of
	// selection policy — a RANDOM_WEIGHTED schedule with NoRepeatWindow > 0
	// must still exclude recently used variants.
	if s.NoRepeatWindow > 0 {
		recent, err := t.historyRepo.RecentVariantIDs(ctx, s.TemplateID, s.ID, s.NoRepeatScope, s.NoRepeatWindow, plannedAt)
		if err != nil {
			return "", 0, nil, time.Time{}, err
		}
		pool = variant.ApplyNoRepeatWindow(pool, recent)
	}

	seed := variant.GenerateSeed(s.ID, plannedAt)
	sel := variant.Select(pool, s.SelectionPolicy, seed, s.LastVariantPos)
	if sel.Variant == nil {
		return "", 0, nil, time.Time{}, domain.ErrNoActiveVariants
	}

	return sel.Variant.ID, sel.Seed, sel.NextVariantPos, nextRunAt, nil
}
