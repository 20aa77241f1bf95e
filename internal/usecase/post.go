package usecase

import (
	"context"
	"fmt"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/repository"
)

type PostUsecase struct {
	posts repository.PostRepository
}

func NewPostUsecase(posts repository.PostRepository) *PostUsecase {
	return &PostUsecase{posts: posts}
}

type CreatePostInput struct {
	AccountID string
	Text      string
	MediaURLs []string
}

func (u *PostUsecase) CreatePost(ctx context.Context, input CreatePostInput) (*domain.Post, error) {
	if len(input.Text) > domain.MaxPostChars {
		return nil, domain.ErrContentTooLong
	}

	p := &domain.Post{AccountID: input.AccountID, Text: input.Text, MediaURLs: input.MediaURLs}
	created, err := u.posts.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return created, nil
}

func (u *PostUsecase) GetPost(ctx context.Context, id, accountID string) (*domain.Post, error) {
	p, err := u.posts.GetForAccount(ctx, id, accountID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

// DeletePost soft-deletes the post and, as part of the same store-level
// transaction, cancels every non-terminal job of every schedule bound to it.
func (u *PostUsecase) DeletePost(ctx context.Context, id, accountID string) error {
	if err := u.posts.SoftDelete(ctx, id, accountID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}
