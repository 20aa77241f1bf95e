package repository

import (
	"context"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
)

// UseCase depends on interface, not concrete implementation.
// This way we get: 1) can swap DB later without touching usecase 2) We can pass a mock implementation of interface in tests
type JobRepository interface {
	GetByID(ctx context.Context, jobID string) (*domain.PublishJob, error)

	// MarkEnqueued fires once the in-process queue's ETA elapses for a
	// planned job: planned -> enqueued.
	MarkEnqueued(ctx context.Context, jobID string) error

	// Claim picks up everything a worker can act on right now: jobs sitting
	// in "enqueued", jobs sitting in "failed" whose NextAttemptAt has
	// passed, and jobs still sitting in "planned" past their PlannedAt (the
	// tick's enqueue-side transition never landed — the one sanctioned
	// extension to the state machine's rigid transition table). All three
	// transition to "running" in the same SKIP LOCKED claim, generalizing
	// the teacher's single-status Claim to the job state machine's three
	// running-reachable predecessors.
	Claim(ctx context.Context, workerID string, limit int) ([]*domain.PublishJob, error)
	UpdateHeartbeat(ctx context.Context, jobID string) error

	// Succeed closes out a running job: running -> succeeded.
	Succeed(ctx context.Context, jobID string) error

	// Fail closes a running attempt: running -> failed. nextAttemptAt is
	// when Claim should next consider it eligible for a retry.
	Fail(ctx context.Context, jobID string, lastError string, nextAttemptAt time.Time) error

	// DeadLetter gives up on a job, from either failed or running (the
	// latter used by the worker when a publish fails and is not retried):
	// dead_letter is terminal either way.
	DeadLetter(ctx context.Context, jobID string, reason string) error

	// Cancel is available from planned or enqueued only.
	Cancel(ctx context.Context, jobID string, reason string) error

	// Sweeper methods — the two disjoint recovery scans. OrphanedEnqueued
	// finds jobs the in-process queue's ETA handoff fired on but no worker
	// ever claimed; TouchEnqueued is the no-op-if-still-enqueued refresh the
	// sweeper applies after re-verifying one under its cooldown lock.
	// DuePlanned finds jobs whose planned_at has passed without the
	// planned -> enqueued transition ever landing (the queue handoff was
	// lost, e.g. across a process restart).
	OrphanedEnqueued(ctx context.Context, staleCutoff, cooldownCutoff time.Time, limit int) ([]*domain.PublishJob, error)
	TouchEnqueued(ctx context.Context, jobID string) error
	DuePlanned(ctx context.Context, now time.Time, limit int) ([]*domain.PublishJob, error)

	ListByScheduleID(ctx context.Context, scheduleID string, limit int, cursorTime *time.Time, cursorID string) ([]*domain.PublishJob, error)
}

type PublishedRepository interface {
	// RecordOutcome is the idempotent insert keyed on ExternalID: a retry
	// after a crash that lands here twice reuses the first row instead of
	// duplicating it. postID and variantID are mutually exclusive — one is
	// always empty, mirroring whichever content source the job used.
	RecordOutcome(ctx context.Context, jobID, postID, variantID, externalID, url string, publishedAt time.Time) (*domain.PublishedPost, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.PublishedPost, error)
	RecentTextsByVariant(ctx context.Context, limit int) ([]string, error)
}

type HistoryRepository interface {
	// RecentVariantIDs returns the variant IDs used by the most recent N
	// selections in scope (template-wide or schedule-only), at or before
	// plannedAt, for the no-repeat window filter.
	RecentVariantIDs(ctx context.Context, templateID, scheduleID string, scope domain.NoRepeatScope, window int, plannedAt time.Time) (map[string]bool, error)
}
