package repository

import (
	"context"

	"github.com/ancodefactory/postpilot/internal/domain"
)

// PostRepository is the store for fixed, non-template content. GetByID is
// the internal, unscoped lookup a worker uses once it already holds a
// trusted post id off a job snapshot — mirroring VariantRepository.GetByID.
// GetForAccount is the operator-facing, tenant-scoped lookup.
type PostRepository interface {
	Create(ctx context.Context, p *domain.Post) (*domain.Post, error)
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	GetForAccount(ctx context.Context, id, accountID string) (*domain.Post, error)

	// SoftDelete marks the post deleted and, in the same transaction,
	// cancels every non-terminal job of every schedule bound to it.
	SoftDelete(ctx context.Context, id, accountID string) error
}
