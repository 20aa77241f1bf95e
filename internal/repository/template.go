package repository

import (
	"context"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
)

type ListTemplatesInput struct {
	AccountID  string
	CursorTime *time.Time
	CursorID   string
	Limit      int
}

type TemplateRepository interface {
	Create(ctx context.Context, t *domain.PostTemplate) (*domain.PostTemplate, error)
	GetByID(ctx context.Context, id, accountID string) (*domain.PostTemplate, error)
	List(ctx context.Context, input ListTemplatesInput) ([]*domain.PostTemplate, error)
	SetActive(ctx context.Context, id, accountID string, active bool) error
}

type VariantRepository interface {
	Create(ctx context.Context, v *domain.PostVariant) (*domain.PostVariant, error)
	GetByID(ctx context.Context, id string) (*domain.PostVariant, error)
	ListActiveByTemplate(ctx context.Context, templateID string) ([]*domain.PostVariant, error)
	SetActive(ctx context.Context, id string, active bool) error
}
