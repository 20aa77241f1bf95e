package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PublishedRepository struct {
	pool *pgxpool.Pool
}

func NewPublishedRepository(pool *pgxpool.Pool) *PublishedRepository {
	return &PublishedRepository{pool: pool}
}

// RecordOutcome is the idempotent insert keyed on ExternalID: a retry that
// lands here after the publish actually succeeded upstream but the local
// commit crashed reuses the first row instead of duplicating it. postID and
// variantID are mutually exclusive; whichever the job didn't use is passed
// empty and stored as NULL.
func (r *PublishedRepository) RecordOutcome(ctx context.Context, jobID, postID, variantID, externalID, url string, publishedAt time.Time) (*domain.PublishedPost, error) {
	query := `
		INSERT INTO published_posts (job_id, post_id, variant_id, external_id, url, published_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6)
		ON CONFLICT (external_id) DO UPDATE SET external_id = EXCLUDED.external_id
		RETURNING id, job_id, COALESCE(post_id, ''), COALESCE(variant_id, ''), external_id, url, published_at, created_at`

	row := r.pool.QueryRow(ctx, query, jobID, postID, variantID, externalID, url, publishedAt)
	p, err := scanPublished(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return r.GetByExternalID(ctx, externalID)
		}
		return nil, err
	}
	return p, nil
}

func (r *PublishedRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.PublishedPost, error) {
	query := `
		SELECT id, job_id, COALESCE(post_id, ''), COALESCE(variant_id, ''), external_id, url, published_at, created_at
		FROM published_posts
		WHERE external_id = $1`

	row := r.pool.QueryRow(ctx, query, externalID)
	return scanPublished(row)
}

// RecentTextsByVariant returns the most recently published texts, for the
// content-safety near-duplicate check. Covers both content sources: a
// template-bound fire's variant text, or a post-bound fire's fixed text.
func (r *PublishedRepository) RecentTextsByVariant(ctx context.Context, limit int) ([]string, error) {
	query := `
		SELECT COALESCE(v.text, post.text) AS text
		FROM published_posts p
		LEFT JOIN post_variants v ON v.id = p.variant_id
		LEFT JOIN posts post ON post.id = p.post_id
		ORDER BY p.published_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent published texts: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan recent text: %w", err)
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

func scanPublished(row rowScanner) (*domain.PublishedPost, error) {
	var p domain.PublishedPost
	err := row.Scan(&p.ID, &p.JobID, &p.PostID, &p.VariantID, &p.ExternalID, &p.URL, &p.PublishedAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("scan published post: %w", err)
	}
	return &p, nil
}
