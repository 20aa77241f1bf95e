package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/repository"
	"github.com/ancodefactory/postpilot/internal/resolver"
	"github.com/ancodefactory/postpilot/internal/tzutil"
)

type ScheduleUsecase struct {
	repo     repository.ScheduleRepository
	jobs     repository.JobRepository
	variants repository.VariantRepository
	posts    repository.PostRepository
	resolver *resolver.Resolver
}

func NewScheduleUsecase(repo repository.ScheduleRepository, jobs repository.JobRepository, variants repository.VariantRepository, posts repository.PostRepository, res *resolver.Resolver) *ScheduleUsecase {
	return &ScheduleUsecase{repo: repo, jobs: jobs, variants: variants, posts: posts, resolver: res}
}

type CreateScheduleInput struct {
	AccountID       string
	TemplateID      string
	PostID          string
	Name            string
	Kind            domain.Kind
	Spec            string
	Timezone        string
	SelectionPolicy domain.SelectionPolicy
	NoRepeatWindow  int
	NoRepeatScope   domain.NoRepeatScope
}

// CreateSchedule validates the schedule's content source before anything
// else: exactly one of TemplateID or PostID must be set, and whichever one
// is must resolve to live content. A post-bound schedule ignores selection
// policy and no-repeat window entirely — it always fires the same post.
func (u *ScheduleUsecase) CreateSchedule(ctx context.Context, input CreateScheduleInput) (*domain.Schedule, error) {
	if input.Timezone == "" {
		input.Timezone = "UTC"
	}
	if !tzutil.IsValid(input.Timezone) {
		return nil, fmt.Errorf("%w: unknown timezone %q", domain.ErrScheduleSpecInvalid, input.Timezone)
	}

	if (input.TemplateID == "") == (input.PostID == "") {
		return nil, domain.ErrScheduleContentSource
	}

	if input.PostID != "" {
		p, err := u.posts.GetForAccount(ctx, input.PostID, input.AccountID)
		if err != nil {
			return nil, fmt.Errorf("get post: %w", err)
		}
		if p.Deleted {
			return nil, domain.ErrPostDeleted
		}
	} else {
		variants, err := u.variants.ListActiveByTemplate(ctx, input.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("list template variants: %w", err)
		}
		if len(variants) == 0 {
			return nil, domain.ErrNoActiveVariants
		}
	}

	if input.SelectionPolicy == "" {
		input.SelectionPolicy = domain.PolicyRandomUniform
	}
	if input.NoRepeatScope == "" {
		input.NoRepeatScope = domain.ScopeTemplate
	}

	s := &domain.Schedule{
		AccountID:       input.AccountID,
		TemplateID:      input.TemplateID,
		PostID:          input.PostID,
		Name:            input.Name,
		Kind:            input.Kind,
		Spec:            input.Spec,
		Timezone:        input.Timezone,
		SelectionPolicy: input.SelectionPolicy,
		NoRepeatWindow:  input.NoRepeatWindow,
		NoRepeatScope:   input.NoRepeatScope,
		Paused:          false,
	}

	nextRunAt, err := u.resolver.Next(s, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrScheduleSpecInvalid, err)
	}
	s.NextRunAt = nextRunAt

	created, err := u.repo.Create(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	return created, nil
}

func (u *ScheduleUsecase) GetSchedule(ctx context.Context, id, accountID string) (*domain.Schedule, error) {
	s, err := u.repo.GetByID(ctx, id, accountID)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return s, nil
}

type ListSchedulesInput struct {
	AccountID string
	Cursor    string
	Limit     int
}

type ListSchedulesResult struct {
	Schedules  []*domain.Schedule
	NextCursor *string
}

type scheduleCursor struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"i"`
}

func decodeScheduleCursor(s string) (*time.Time, string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, "", ErrInvalidCursor
	}
	var c scheduleCursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, "", ErrInvalidCursor
	}
	return &c.CreatedAt, c.ID, nil
}

func encodeScheduleCursor(createdAt time.Time, id string) string {
	b, _ := json.Marshal(scheduleCursor{CreatedAt: createdAt, ID: id})
	return base64.RawURLEncoding.EncodeToString(b)
}

func (u *ScheduleUsecase) ListSchedules(ctx context.Context, input ListSchedulesInput) (ListSchedulesResult, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	repoInput := repository.ListSchedulesInput{
		AccountID: input.AccountID,
		Limit:     limit + 1,
	}

	if input.Cursor != "" {
		cursorTime, cursorID, err := decodeScheduleCursor(input.Cursor)
		if err != nil {
			return ListSchedulesResult{}, err
		}
		repoInput.CursorTime = cursorTime
		repoInput.CursorID = cursorID
	}

	schedules, err := u.repo.List(ctx, repoInput)
	if err != nil {
		return ListSchedulesResult{}, fmt.Errorf("list schedules: %w", err)
	}

	var nextCursor *string
	if len(schedules) == limit+1 {
		last := schedules[limit]
		s := encodeScheduleCursor(last.CreatedAt, last.ID)
		nextCursor = &s
		schedules = schedules[:limit]
	}

	return ListSchedulesResult{Schedules: schedules, NextCursor: nextCursor}, nil
}

func (u *ScheduleUsecase) PauseSchedule(ctx context.Context, id, accountID string) error {
	if err := u.repo.SetPaused(ctx, id, accountID, true); err != nil {
		return fmt.Errorf("pause schedule: %w", err)
	}
	return nil
}

func (u *ScheduleUsecase) ResumeSchedule(ctx context.Context, id, accountID string) error {
	if err := u.repo.SetPaused(ctx, id, accountID, false); err != nil {
		return fmt.Errorf("resume schedule: %w", err)
	}
	return nil
}

func (u *ScheduleUsecase) DeleteSchedule(ctx context.Context, id, accountID string) error {
	if err := u.repo.Delete(ctx, id, accountID); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

type ListScheduleJobsInput struct {
	ScheduleID string
	AccountID  string
	Cursor     string
	Limit      int
}

func (u *ScheduleUsecase) ListScheduleJobs(ctx context.Context, input ListScheduleJobsInput) (ListJobsResult, error) {
	if _, err := u.repo.GetByID(ctx, input.ScheduleID, input.AccountID); err != nil {
		return ListJobsResult{}, fmt.Errorf("get schedule: %w", err)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var cursorTime *time.Time
	var cursorID string

	if input.Cursor != "" {
		ct, cid, err := decodeCursor(input.Cursor)
		if err != nil {
			return ListJobsResult{}, err
		}
		cursorTime = ct
		cursorID = cid
	}

	jobs, err := u.jobs.ListByScheduleID(ctx, input.ScheduleID, limit+1, cursorTime, cursorID)
	if err != nil {
		return ListJobsResult{}, fmt.Errorf("list schedule jobs: %w", err)
	}

	var nextCursor *string
	if len(jobs) == limit+1 {
		last := jobs[limit]
		s := encodeCursor(last.PlannedAt, last.ID)
		nextCursor = &s
		jobs = jobs[:limit]
	}

	return ListJobsResult{Jobs: jobs, NextCursor: nextCursor}, nil
}
