package usecase

import (
	"context"
	"fmt"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/repository"
)

type TemplateUsecase struct {
	templates repository.TemplateRepository
	variants  repository.VariantRepository
}

func NewTemplateUsecase(templates repository.TemplateRepository, variants repository.VariantRepository) *TemplateUsecase {
	return &TemplateUsecase{templates: templates, variants: variants}
}

type CreateTemplateInput struct {
	AccountID string
	Name      string
}

func (u *TemplateUsecase) CreateTemplate(ctx context.Context, input CreateTemplateInput) (*domain.PostTemplate, error) {
	t := &domain.PostTemplate{AccountID: input.AccountID, Name: input.Name, Active: true}
	created, err := u.templates.Create(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return created, nil
}

func (u *TemplateUsecase) GetTemplate(ctx context.Context, id, accountID string) (*domain.PostTemplate, error) {
	t, err := u.templates.GetByID(ctx, id, accountID)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (u *TemplateUsecase) ListTemplates(ctx context.Context, input repository.ListTemplatesInput) ([]*domain.PostTemplate, error) {
	templates, err := u.templates.List(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func (u *TemplateUsecase) SetTemplateActive(ctx context.Context, id, accountID string, active bool) error {
	if err := u.templates.SetActive(ctx, id, accountID, active); err != nil {
		return fmt.Errorf("set template active: %w", err)
	}
	return nil
}

type CreateVariantInput struct {
	TemplateID string
	Text       string
	MediaURLs  []string
	Weight     float64
}

// CreateVariant validates platform length only before persisting — the
// exact- and near-duplicate checks only apply once a variant is actually
// selected and about to publish, since they need the published history, not
// the template's sibling variants.
func (u *TemplateUsecase) CreateVariant(ctx context.Context, input CreateVariantInput) (*domain.PostVariant, error) {
	if len(input.Text) > domain.MaxPostChars {
		return nil, domain.ErrContentTooLong
	}
	if input.Weight <= 0 {
		input.Weight = 1.0
	}

	v := &domain.PostVariant{
		TemplateID: input.TemplateID,
		Text:       input.Text,
		MediaURLs:  input.MediaURLs,
		Weight:     input.Weight,
		Active:     true,
	}
	created, err := u.variants.Create(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("create variant: %w", err)
	}
	return created, nil
}

func (u *TemplateUsecase) ListActiveVariants(ctx context.Context, templateID string) ([]*domain.PostVariant, error) {
	variants, err := u.variants.ListActiveByTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	return variants, nil
}

func (u *TemplateUsecase) SetVariantActive(ctx context.Context, id string, active bool) error {
	if err := u.variants.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("set variant active: %w", err)
	}
	return nil
}
