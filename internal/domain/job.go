package domain

import (
	"errors"
	"time"
)

var (
	ErrJobNotFound       = errors.New("publish job not found")
	ErrDuplicateJob      = errors.New("job with this dedupe key already exists")
	ErrInvalidTransition = errors.New("invalid job state transition")

	// ErrJobCancelled is returned when a worker reloads a job immediately
	// before publishing and finds it was cancelled out from under it — the
	// Post soft-delete cascade transitions running jobs to cancelled
	// directly, without going through the worker's own state-machine calls.
	ErrJobCancelled = errors.New("job was cancelled before publish")
)

// JobStatus is the PublishJob lifecycle state. Transitions are validated by
// IsValidTransition below — never assign Status directly outside that table.
type JobStatus string

const (
	StatusPlanned    JobStatus = "planned"
	StatusEnqueued   JobStatus = "enqueued"
	StatusRunning    JobStatus = "running"
	StatusSucceeded  JobStatus = "succeeded"
	StatusFailed     JobStatus = "failed"
	StatusCancelled  JobStatus = "cancelled"
	StatusDeadLetter JobStatus = "dead_letter"
)

// ValidTransitions is the full state transition table. A status with no entry
// (or an empty slice) is terminal.
// StatusRunning also reaches StatusCancelled directly: a Post soft-delete
// cancels every non-terminal job bound to it, running ones included, and the
// worker discovers this on its next state check rather than driving the edge
// itself.
var ValidTransitions = map[JobStatus][]JobStatus{
	StatusPlanned:    {StatusEnqueued, StatusCancelled},
	StatusEnqueued:   {StatusRunning, StatusCancelled},
	StatusRunning:    {StatusSucceeded, StatusFailed, StatusCancelled},
	StatusFailed:     {StatusRunning, StatusDeadLetter},
	StatusSucceeded:  {},
	StatusDeadLetter: {},
	StatusCancelled:  {},
}

// IsValidTransition reports whether moving from one status to another is legal.
func IsValidTransition(from, to JobStatus) bool {
	for _, candidate := range ValidTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no further valid transitions.
func IsTerminal(status JobStatus) bool {
	return len(ValidTransitions[status]) == 0
}

// PublishJob is one scheduled firing of a schedule: a snapshot of whichever
// content source the schedule used, planned for a specific instant, moving
// through the state machine above. Exactly one of VariantID or PostID is
// set, mirroring the owning schedule's content source at fire time.
type PublishJob struct {
	ID         string `json:"id"`
	ScheduleID string `json:"scheduleId"`
	TemplateID string `json:"templateId,omitempty"`
	VariantID  string `json:"variantId,omitempty"`
	PostID     string `json:"postId,omitempty"`

	DedupeKey string `json:"dedupeKey"`

	Status JobStatus `json:"status"`

	SelectionPolicy SelectionPolicy `json:"selectionPolicy"`
	SelectionSeed   int64           `json:"selectionSeed"`

	PlannedAt  time.Time `json:"plannedAt"`
	SelectedAt time.Time `json:"selectedAt"`

	EnqueuedAt *time.Time `json:"enqueuedAt,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`

	Attempt     int     `json:"attempt"`
	MaxAttempts int     `json:"maxAttempts"`
	LastError   *string `json:"lastError,omitempty"`

	// NextAttemptAt is set on a failed job to the earliest instant Claim may
	// pick it back up. Nil for every other status.
	NextAttemptAt *time.Time `json:"nextAttemptAt,omitempty"`

	HeartbeatAt *time.Time `json:"heartbeatAt,omitempty"`
	WorkerID    *string    `json:"workerId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VariantSelectionHistory records which variant a schedule's fire chose, so
// the no-repeat window can filter recently used variants out of future pools.
type VariantSelectionHistory struct {
	ID         string    `json:"id"`
	TemplateID string    `json:"templateId"`
	VariantID  string    `json:"variantId"`
	ScheduleID string    `json:"scheduleId"`
	JobID      string    `json:"jobId"`
	PlannedAt  time.Time `json:"plannedAt"`
	SelectedAt time.Time `json:"selectedAt"`
}

// JobAttempt is one publish attempt for a job — kept even across retries so
// the admin API can show the full history of a flaky publish.
type JobAttempt struct {
	ID          string
	JobID       string
	AttemptNum  int
	WorkerID    string
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       *string
	DurationMS  *int64
}
