package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TemplateRepository struct {
	pool *pgxpool.Pool
}

func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

func (r *TemplateRepository) Create(ctx context.Context, t *domain.PostTemplate) (*domain.PostTemplate, error) {
	query := `
		INSERT INTO post_templates (account_id, name, active)
		VALUES ($1, $2, $3)
		RETURNING id, account_id, name, active, created_at, updated_at`

	row := r.pool.QueryRow(ctx, query, t.AccountID, t.Name, t.Active)
	created, err := scanTemplate(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("template name conflict: %w", err)
		}
		return nil, err
	}
	return created, nil
}

func (r *TemplateRepository) GetByID(ctx context.Context, id, accountID string) (*domain.PostTemplate, error) {
	query := `
		SELECT id, account_id, name, active, created_at, updated_at
		FROM post_templates
		WHERE id = $1 AND account_id = $2`

	row := r.pool.QueryRow(ctx, query, id, accountID)
	return scanTemplate(row)
}

func (r *TemplateRepository) List(ctx context.Context, input repository.ListTemplatesInput) ([]*domain.PostTemplate, error) {
	args := []any{input.AccountID}
	where := []string{"account_id = $1"}

	if input.CursorTime != nil {
		args = append(args, *input.CursorTime, input.CursorID)
		where = append(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, input.Limit)

	query := fmt.Sprintf(`
		SELECT id, account_id, name, active, created_at, updated_at
		FROM post_templates
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`, strings.Join(where, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []*domain.PostTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *TemplateRepository) SetActive(ctx context.Context, id, accountID string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE post_templates SET active = $3, updated_at = NOW() WHERE id = $1 AND account_id = $2`,
		id, accountID, active)
	if err != nil {
		return fmt.Errorf("set template active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTemplateNotFound
	}
	return nil
}

func scanTemplate(row rowScanner) (*domain.PostTemplate, error) {
	var t domain.PostTemplate
	err := row.Scan(&t.ID, &t.AccountID, &t.Name, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("scan template: %w", err)
	}
	return &t, nil
}

type VariantRepository struct {
	pool *pgxpool.Pool
}

func NewVariantRepository(pool *pgxpool.Pool) *VariantRepository {
	return &VariantRepository{pool: pool}
}

func (r *VariantRepository) Create(ctx context.Context, v *domain.PostVariant) (*domain.PostVariant, error) {
	query := `
		INSERT INTO post_variants (template_id, text, media_urls, weight, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, template_id, text, media_urls, weight, active, created_at, updated_at`

	row := r.pool.QueryRow(ctx, query, v.TemplateID, v.Text, v.MediaURLs, v.Weight, v.Active)
	return scanVariant(row)
}

func (r *VariantRepository) GetByID(ctx context.Context, id string) (*domain.PostVariant, error) {
	query := `
		SELECT id, template_id, text, media_urls, weight, active, created_at, updated_at
		FROM post_variants
		WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	return scanVariant(row)
}

func (r *VariantRepository) ListActiveByTemplate(ctx context.Context, templateID string) ([]*domain.PostVariant, error) {
	query := `
		SELECT id, template_id, text, media_urls, weight, active, created_at, updated_at
		FROM post_variants
		WHERE template_id = $1 AND active
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("list active variants: %w", err)
	}
	defer rows.Close()

	var variants []*domain.PostVariant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (r *VariantRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE post_variants SET active = $2, updated_at = NOW() WHERE id = $1`,
		id, active)
	if err != nil {
		return fmt.Errorf("set variant active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVariantNotFound
	}
	return nil
}

func scanVariant(row rowScanner) (*domain.PostVariant, error) {
	var v domain.PostVariant
	err := row.Scan(&v.ID, &v.TemplateID, &v.Text, &v.MediaURLs, &v.Weight, &v.Active, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, fmt.Errorf("scan variant: %w", err)
	}
	return &v, nil
}
