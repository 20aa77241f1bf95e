package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScheduleRepository struct {
	pool        *pgxpool.Pool
	logger      *slog.Logger
	maxAttempts int
}

func NewScheduleRepository(pool *pgxpool.Pool, logger *slog.Logger, maxAttempts int) *ScheduleRepository {
	return &ScheduleRepository{pool: pool, logger: logger.With("component", "schedule_repo"), maxAttempts: maxAttempts}
}

func (r *ScheduleRepository) Create(ctx context.Context, s *domain.Schedule) (*domain.Schedule, error) {
	query := `
		INSERT INTO schedules (
			account_id, template_id, post_id, name, kind, spec, timezone,
			selection_policy, no_repeat_window, no_repeat_scope,
			paused, next_run_at
		) VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, account_id, COALESCE(template_id, ''), COALESCE(post_id, ''), name, kind, spec, timezone,
		          selection_policy, no_repeat_window, no_repeat_scope,
		          last_variant_pos, paused, next_run_at, last_run_at,
		          created_at, updated_at`

	row := r.pool.QueryRow(ctx, query,
		s.AccountID, s.TemplateID, s.PostID, s.Name, s.Kind, s.Spec, s.Timezone,
		s.SelectionPolicy, s.NoRepeatWindow, s.NoRepeatScope,
		s.Paused, s.NextRunAt,
	)

	created, err := scanSchedule(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrScheduleNameConflict
		}
		return nil, err
	}
	return created, nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id, accountID string) (*domain.Schedule, error) {
	query := `
		SELECT id, account_id, COALESCE(template_id, ''), COALESCE(post_id, ''), name, kind, spec, timezone,
		       selection_policy, no_repeat_window, no_repeat_scope,
		       last_variant_pos, paused, next_run_at, last_run_at,
		       created_at, updated_at
		FROM schedules
		WHERE id = $1 AND account_id = $2`

	row := r.pool.QueryRow(ctx, query, id, accountID)
	return scanSchedule(row)
}

func (r *ScheduleRepository) List(ctx context.Context, input repository.ListSchedulesInput) ([]*domain.Schedule, error) {
	args := []any{input.AccountID}
	where := []string{"account_id = $1"}

	if input.CursorTime != nil {
		args = append(args, *input.CursorTime, input.CursorID)
		where = append(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, input.Limit)

	query := fmt.Sprintf(`
		SELECT id, account_id, COALESCE(template_id, ''), COALESCE(post_id, ''), name, kind, spec, timezone,
		       selection_policy, no_repeat_window, no_repeat_scope,
		       last_variant_pos, paused, next_run_at, last_run_at,
		       created_at, updated_at
		FROM schedules
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`,
		strings.Join(where, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*domain.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func (r *ScheduleRepository) SetPaused(ctx context.Context, id, accountID string, paused bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE schedules SET paused = $3, updated_at = NOW()
		 WHERE id = $1 AND account_id = $2 AND paused = $4`,
		id, accountID, paused, !paused)
	if err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id, accountID); err != nil {
			return err
		}
		if paused {
			return domain.ErrScheduleAlreadyPaused
		}
		return domain.ErrScheduleNotPaused
	}
	return nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, id, accountID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM schedules WHERE id = $1 AND account_id = $2`,
		id, accountID)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrScheduleNotFound
	}
	return nil
}

// ClaimAndFire atomically claims due, unpaused schedules, asks pick for a
// variant and the schedule's next run, inserts the resulting PublishJob and
// its selection history row, and advances next_run_at/last_variant_pos — all
// in one transaction per batch. The dedupe_key UNIQUE constraint (the key
// encodes schedule id and planned_at) is the final word against a double
// fire racing another replica.
func (r *ScheduleRepository) ClaimAndFire(ctx context.Context, limit int, pick repository.VariantPicker) ([]repository.FireResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, account_id, COALESCE(template_id, ''), COALESCE(post_id, ''), name, kind, spec, timezone,
		       selection_policy, no_repeat_window, no_repeat_scope,
		       last_variant_pos, paused, next_run_at, last_run_at,
		       created_at, updated_at
		FROM schedules
		WHERE next_run_at <= NOW() AND NOT paused
		ORDER BY next_run_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim schedules: %w", err)
	}

	var schedules []*domain.Schedule
	for rows.Next() {
		s, scanErr := scanSchedule(rows)
		if scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		schedules = append(schedules, s)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}

	var results []repository.FireResult

	for _, s := range schedules {
		plannedAt := s.NextRunAt
		variantID, seed, nextVariantPos, nextRunAt, pickErr := pick(ctx, s, plannedAt)
		if pickErr != nil {
			// Either the schedule has run out of occurrences or its template
			// has nothing active to post — both are reasons to pause rather
			// than fail the whole batch over one misconfigured schedule.
			if errors.Is(pickErr, domain.ErrScheduleExhausted) || errors.Is(pickErr, domain.ErrNoActiveVariants) {
				r.logger.Warn("pausing schedule, cannot fire", "schedule_id", s.ID, "reason", pickErr)
				if _, updateErr := tx.Exec(ctx,
					`UPDATE schedules SET paused = TRUE, updated_at = NOW() WHERE id = $1`, s.ID,
				); updateErr != nil {
					return nil, fmt.Errorf("pause exhausted schedule %s: %w", s.ID, updateErr)
				}
				continue
			}
			return nil, fmt.Errorf("pick variant for schedule %s: %w", s.ID, pickErr)
		}

		dedupeKey := fmt.Sprintf("sched:%s:%d", s.ID, plannedAt.Unix())

		var j domain.PublishJob
		scanErr := tx.QueryRow(ctx, `
			INSERT INTO publish_jobs (
				schedule_id, template_id, variant_id, post_id, dedupe_key, status,
				selection_policy, selection_seed, planned_at, selected_at,
				attempt, max_attempts
			) VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, 'planned', $6, $7, $8, NOW(), 0, $9)
			ON CONFLICT (dedupe_key) DO NOTHING
			RETURNING id, schedule_id, COALESCE(template_id, ''), COALESCE(variant_id, ''), COALESCE(post_id, ''), dedupe_key, status,
			          selection_policy, selection_seed, planned_at, selected_at,
			          enqueued_at, started_at, finished_at, attempt, max_attempts,
			          last_error, next_attempt_at, heartbeat_at, worker_id,
			          created_at, updated_at`,
			s.ID, s.TemplateID, variantID, s.PostID, dedupeKey, s.SelectionPolicy, seed,
			plannedAt, r.maxAttempts,
		).Scan(
			&j.ID, &j.ScheduleID, &j.TemplateID, &j.VariantID, &j.PostID, &j.DedupeKey, &j.Status,
			&j.SelectionPolicy, &j.SelectionSeed, &j.PlannedAt, &j.SelectedAt,
			&j.EnqueuedAt, &j.StartedAt, &j.FinishedAt, &j.Attempt, &j.MaxAttempts,
			&j.LastError, &j.NextAttemptAt, &j.HeartbeatAt, &j.WorkerID,
			&j.CreatedAt, &j.UpdatedAt,
		)

		var firedJob *domain.PublishJob
		if scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				r.logger.Warn("duplicate fire for schedule, skipping job insert",
					"schedule_id", s.ID, "dedupe_key", dedupeKey)
			} else {
				return nil, fmt.Errorf("insert job for schedule %s: %w", s.ID, scanErr)
			}
		} else {
			firedJob = &j
			// A post-bound fire selects no variant, so there is nothing for
			// the no-repeat window to learn from — only record history when
			// a variant was actually picked.
			if variantID != "" {
				if _, histErr := tx.Exec(ctx, `
					INSERT INTO variant_selection_history (
						template_id, variant_id, schedule_id, job_id, planned_at, selected_at
					) VALUES ($1, $2, $3, $4, $5, NOW())`,
					s.TemplateID, variantID, s.ID, j.ID, plannedAt,
				); histErr != nil {
					return nil, fmt.Errorf("record selection history for schedule %s: %w", s.ID, histErr)
				}
			}
		}

		// last_run_at is the nominal fire instant (planned_at), not wall
		// clock: under tick lag, NOW() can run ahead of a later schedule's
		// next_run_at and violate last_run_at <= next_run_at.
		if _, updateErr := tx.Exec(ctx,
			`UPDATE schedules
			 SET next_run_at = $2, last_run_at = $3, last_variant_pos = $4, updated_at = NOW()
			 WHERE id = $1`,
			s.ID, nextRunAt, plannedAt, nextVariantPos,
		); updateErr != nil {
			return nil, fmt.Errorf("advance schedule %s: %w", s.ID, updateErr)
		}

		results = append(results, repository.FireResult{Schedule: s, Job: firedJob})
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return results, nil
}

func scanSchedule(row rowScanner) (*domain.Schedule, error) {
	var s domain.Schedule
	err := row.Scan(
		&s.ID, &s.AccountID, &s.TemplateID, &s.PostID, &s.Name, &s.Kind, &s.Spec, &s.Timezone,
		&s.SelectionPolicy, &s.NoRepeatWindow, &s.NoRepeatScope,
		&s.LastVariantPos, &s.Paused, &s.NextRunAt, &s.LastRunAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("scan schedule: %w", err)
	}
	return &s, nil
}
