package repository

import (
	"context"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
)

type ListSchedulesInput struct {
	AccountID  string
	CursorTime *time.Time // cursor on (created_at DESC, id DESC)
	CursorID   string
	Limit      int
}

// FireResult is one schedule's outcome from a Tick pass: either a newly
// planned job, or nothing if the dedupe constraint found the fire already
// recorded (another replica won the race).
type FireResult struct {
	Schedule *domain.Schedule
	Job      *domain.PublishJob // nil if this fire was a duplicate no-op
}

// VariantPicker is supplied by the caller (the Tick component) so the
// repository layer never has to import the variant selection policy logic —
// it just asks, for each claimed schedule, which variant to lock in and what
// the schedule's next run should be.
type VariantPicker func(ctx context.Context, s *domain.Schedule, plannedAt time.Time) (variantID string, seed int64, nextVariantPos *int, nextRunAt time.Time, err error)

type ScheduleRepository interface {
	Create(ctx context.Context, s *domain.Schedule) (*domain.Schedule, error)
	GetByID(ctx context.Context, id, accountID string) (*domain.Schedule, error)
	List(ctx context.Context, input ListSchedulesInput) ([]*domain.Schedule, error)
	SetPaused(ctx context.Context, id, accountID string, paused bool) error
	Delete(ctx context.Context, id, accountID string) error

	// ClaimAndFire atomically claims due, unpaused schedules, asks pick for a
	// variant and the next run time, inserts the resulting PublishJob and its
	// VariantSelectionHistory row, and advances next_run_at — all in one
	// transaction per batch, with the dedupe_key UNIQUE constraint (the key
	// encodes schedule id and planned_at) as the final authority against
	// double-firing.
	ClaimAndFire(ctx context.Context, limit int, pick VariantPicker) ([]FireResult, error)
}
