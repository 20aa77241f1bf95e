package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

func (r *PostRepository) Create(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	query := `
		INSERT INTO posts (account_id, text, media_urls)
		VALUES ($1, $2, $3)
		RETURNING id, account_id, text, media_urls, deleted, deleted_at, created_at, updated_at`

	row := r.pool.QueryRow(ctx, query, p.AccountID, p.Text, p.MediaURLs)
	return scanPost(row)
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	query := `
		SELECT id, account_id, text, media_urls, deleted, deleted_at, created_at, updated_at
		FROM posts
		WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	return scanPost(row)
}

func (r *PostRepository) GetForAccount(ctx context.Context, id, accountID string) (*domain.Post, error) {
	query := `
		SELECT id, account_id, text, media_urls, deleted, deleted_at, created_at, updated_at
		FROM posts
		WHERE id = $1 AND account_id = $2`

	row := r.pool.QueryRow(ctx, query, id, accountID)
	return scanPost(row)
}

// SoftDelete marks the post deleted and, in the same transaction, cancels
// every non-terminal job (planned, enqueued, running) of every schedule
// bound to this post — the cascade §4.7/S6 describe. A job already
// "running" is cancelled here directly; the worker discovers the terminal
// state on its next check and never calls the publisher.
func (r *PostRepository) SoftDelete(ctx context.Context, id, accountID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE posts
		SET    deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND account_id = $2 AND NOT deleted`,
		id, accountID,
	)
	if err != nil {
		return fmt.Errorf("soft delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := r.GetForAccount(ctx, id, accountID); getErr != nil {
			return getErr
		}
		return domain.ErrPostDeleted
	}

	if _, err := tx.Exec(ctx, `
		UPDATE publish_jobs
		SET    status      = 'cancelled',
		       last_error  = 'post soft-deleted',
		       finished_at = NOW(),
		       updated_at  = NOW()
		WHERE status IN ('planned', 'enqueued', 'running')
		  AND schedule_id IN (SELECT id FROM schedules WHERE post_id = $1)`,
		id,
	); err != nil {
		return fmt.Errorf("cancel jobs for deleted post: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var p domain.Post
	err := row.Scan(&p.ID, &p.AccountID, &p.Text, &p.MediaURLs, &p.Deleted, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return &p, nil
}
