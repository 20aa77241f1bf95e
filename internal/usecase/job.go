package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/repository"
)

var ErrInvalidCursor = errors.New("invalid pagination cursor")

type JobUsecase struct {
	jobs     repository.JobRepository
	attempts repository.AttemptRepository
}

func NewJobUsecase(jobs repository.JobRepository, attempts repository.AttemptRepository) *JobUsecase {
	return &JobUsecase{jobs: jobs, attempts: attempts}
}

func (u *JobUsecase) GetByID(ctx context.Context, jobID string) (*domain.PublishJob, error) {
	j, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func (u *JobUsecase) Cancel(ctx context.Context, jobID, reason string) error {
	if err := u.jobs.Cancel(ctx, jobID, reason); err != nil {
		return fmt.Errorf("cancel job: %w", err)
	}
	return nil
}

func (u *JobUsecase) ListAttempts(ctx context.Context, jobID string) ([]*domain.JobAttempt, error) {
	attempts, err := u.attempts.ListByJobID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

type ListJobsResult struct {
	Jobs       []*domain.PublishJob
	NextCursor *string
}

type jobCursor struct {
	PlannedAt time.Time `json:"p"`
	ID        string    `json:"i"`
}

func decodeCursor(s string) (*time.Time, string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, "", ErrInvalidCursor
	}
	var c jobCursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, "", ErrInvalidCursor
	}
	return &c.PlannedAt, c.ID, nil
}

func encodeCursor(plannedAt time.Time, id string) string {
	b, _ := json.Marshal(jobCursor{PlannedAt: plannedAt, ID: id})
	return base64.RawURLEncoding.EncodeToString(b)
}
