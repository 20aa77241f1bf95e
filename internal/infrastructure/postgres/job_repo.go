package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) GetByID(ctx context.Context, jobID string) (*domain.PublishJob, error) {
	query := `
		SELECT id, schedule_id, COALESCE(template_id, ''), COALESCE(variant_id, ''), COALESCE(post_id, ''), dedupe_key, status,
		       selection_policy, selection_seed, planned_at, selected_at,
		       enqueued_at, started_at, finished_at, attempt, max_attempts,
		       last_error, next_attempt_at, heartbeat_at, worker_id,
		       created_at, updated_at
		FROM publish_jobs
		WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, jobID)
	return scanJob(row)
}

func (r *JobRepository) MarkEnqueued(ctx context.Context, jobID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE publish_jobs
		SET    status       = 'enqueued',
		       enqueued_at  = NOW(),
		       updated_at   = NOW()
		WHERE id = $1 AND status = 'planned'`, jobID)
	if err != nil {
		return fmt.Errorf("mark enqueued: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// Claim picks up jobs a worker can run right now: those sitting in
// "enqueued", those sitting in "failed" whose NextAttemptAt has passed, and
// — the one extension to the rigid state table — those still sitting in
// "planned" past their planned_at because the tick's own enqueue-side
// transition never landed. All three collapse into "running" within the
// same SKIP LOCKED claim, so a single worker pool covers first attempts,
// retries, and this crash-recovery path alike without waiting on the
// sweeper.
func (r *JobRepository) Claim(ctx context.Context, workerID string, limit int) ([]*domain.PublishJob, error) {
	query := `
		UPDATE publish_jobs
		SET    status       = 'running',
		       worker_id    = $1,
		       started_at   = COALESCE(started_at, NOW()),
		       heartbeat_at = NOW(),
		       updated_at   = NOW()
		WHERE id IN (
			SELECT id FROM publish_jobs
			WHERE (status = 'enqueued')
			   OR (status = 'failed' AND next_attempt_at <= NOW())
			   OR (status = 'planned' AND planned_at <= NOW())
			ORDER BY planned_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, schedule_id, COALESCE(template_id, ''), COALESCE(variant_id, ''), COALESCE(post_id, ''), dedupe_key, status,
		          selection_policy, selection_seed, planned_at, selected_at,
		          enqueued_at, started_at, finished_at, attempt, max_attempts,
		          last_error, next_attempt_at, heartbeat_at, worker_id,
		          created_at, updated_at`

	rows, err := r.pool.Query(ctx, query, workerID, limit)
	if err != nil {
		return nil, fmt.Errorf("claim jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.PublishJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *JobRepository) UpdateHeartbeat(ctx context.Context, jobID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE publish_jobs SET heartbeat_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'running'`, jobID)
	return err
}

func (r *JobRepository) Succeed(ctx context.Context, jobID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE publish_jobs
		SET    status      = 'succeeded',
		       finished_at = NOW(),
		       updated_at  = NOW()
		WHERE id = $1 AND status = 'running'`, jobID)
	if err != nil {
		return fmt.Errorf("succeed job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *JobRepository) Fail(ctx context.Context, jobID string, lastError string, nextAttemptAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE publish_jobs
		SET    status          = 'failed',
		       attempt         = attempt + 1,
		       last_error      = $2,
		       next_attempt_at = $3,
		       updated_at      = NOW()
		WHERE id = $1 AND status = 'running'`, jobID, lastError, nextAttemptAt)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *JobRepository) DeadLetter(ctx context.Context, jobID string, reason string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE publish_jobs
		SET    status      = 'dead_letter',
		       last_error  = $2,
		       finished_at = NOW(),
		       updated_at  = NOW()
		WHERE id = $1 AND status IN ('failed', 'running')`, jobID, reason)
	if err != nil {
		return fmt.Errorf("dead-letter job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *JobRepository) Cancel(ctx context.Context, jobID string, reason string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE publish_jobs
		SET    status      = 'cancelled',
		       last_error  = $2,
		       finished_at = NOW(),
		       updated_at  = NOW()
		WHERE id = $1 AND status IN ('planned', 'enqueued')`, jobID, reason)
	if err != nil {
		return fmt.Errorf("cancel job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// OrphanedEnqueued finds jobs the queue's ETA handoff fired on (flipping them
// planned -> enqueued) that no worker has since claimed: enqueued long enough
// ago to be suspicious (staleCutoff) and not already re-swept recently
// (cooldownCutoff), so two sweeper replicas don't fight over the same row.
func (r *JobRepository) OrphanedEnqueued(ctx context.Context, staleCutoff, cooldownCutoff time.Time, limit int) ([]*domain.PublishJob, error) {
	query := `
		SELECT id, schedule_id, COALESCE(template_id, ''), COALESCE(variant_id, ''), COALESCE(post_id, ''), dedupe_key, status,
		       selection_policy, selection_seed, planned_at, selected_at,
		       enqueued_at, started_at, finished_at, attempt, max_attempts,
		       last_error, next_attempt_at, heartbeat_at, worker_id,
		       created_at, updated_at
		FROM publish_jobs
		WHERE status = 'enqueued' AND started_at IS NULL
		  AND enqueued_at < $1 AND updated_at < $2
		ORDER BY enqueued_at ASC
		LIMIT $3
		FOR UPDATE SKIP LOCKED`

	rows, err := r.pool.Query(ctx, query, staleCutoff, cooldownCutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("find orphaned enqueued jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.PublishJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// TouchEnqueued refreshes enqueued_at/updated_at on a job the sweeper just
// re-verified is still stuck in "enqueued" — a no-op transition (it was
// already enqueued), but it marks the row as recently handled so the next
// sweep's cooldown filter skips it.
func (r *JobRepository) TouchEnqueued(ctx context.Context, jobID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE publish_jobs
		SET    enqueued_at = NOW(),
		       updated_at  = NOW()
		WHERE id = $1 AND status = 'enqueued'`, jobID)
	if err != nil {
		return fmt.Errorf("touch enqueued job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// DuePlanned finds jobs whose planned_at has passed while they are still
// "planned" — the tick's own enqueue handoff never landed, most likely
// because the process restarted between the insert and the queue push.
func (r *JobRepository) DuePlanned(ctx context.Context, now time.Time, limit int) ([]*domain.PublishJob, error) {
	query := `
		SELECT id, schedule_id, COALESCE(template_id, ''), COALESCE(variant_id, ''), COALESCE(post_id, ''), dedupe_key, status,
		       selection_policy, selection_seed, planned_at, selected_at,
		       enqueued_at, started_at, finished_at, attempt, max_attempts,
		       last_error, next_attempt_at, heartbeat_at, worker_id,
		       created_at, updated_at
		FROM publish_jobs
		WHERE status = 'planned' AND planned_at <= $1
		ORDER BY planned_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("find due planned jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.PublishJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *JobRepository) ListByScheduleID(ctx context.Context, scheduleID string, limit int, cursorTime *time.Time, cursorID string) ([]*domain.PublishJob, error) {
	args := []any{scheduleID}
	where := "schedule_id = $1"
	if cursorTime != nil {
		args = append(args, *cursorTime, cursorID)
		where += fmt.Sprintf(" AND (planned_at, id) < ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT id, schedule_id, COALESCE(template_id, ''), COALESCE(variant_id, ''), COALESCE(post_id, ''), dedupe_key, status,
		       selection_policy, selection_seed, planned_at, selected_at,
		       enqueued_at, started_at, finished_at, attempt, max_attempts,
		       last_error, next_attempt_at, heartbeat_at, worker_id,
		       created_at, updated_at
		FROM publish_jobs
		WHERE %s
		ORDER BY planned_at DESC, id DESC
		LIMIT $%d`, where, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs by schedule: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.PublishJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// pgx.Row and pgx.Rows both implement this.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.PublishJob, error) {
	var j domain.PublishJob
	err := row.Scan(
		&j.ID, &j.ScheduleID, &j.TemplateID, &j.VariantID, &j.PostID, &j.DedupeKey, &j.Status,
		&j.SelectionPolicy, &j.SelectionSeed, &j.PlannedAt, &j.SelectedAt,
		&j.EnqueuedAt, &j.StartedAt, &j.FinishedAt, &j.Attempt, &j.MaxAttempts,
		&j.LastError, &j.NextAttemptAt, &j.HeartbeatAt, &j.WorkerID,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &j, nil
}
