package domain

import (
	"errors"
	"time"
)

var (
	ErrScheduleNotFound      = errors.New("schedule not found")
	ErrScheduleSpecInvalid   = errors.New("schedule spec is invalid for its kind")
	ErrScheduleAlreadyPaused = errors.New("schedule is already paused")
	ErrScheduleNotPaused     = errors.New("schedule is not paused")
	ErrScheduleNameConflict  = errors.New("schedule with this name already exists")
	ErrScheduleExhausted     = errors.New("schedule has no further occurrences")
	ErrUnknownScheduleKind   = errors.New("unknown schedule kind")
	ErrScheduleContentSource = errors.New("schedule must set exactly one of template id or post id")
)

// Kind selects which resolver a schedule's Spec is handed to.
type Kind string

const (
	KindOneShot Kind = "one_shot"
	KindCron    Kind = "cron"
	KindRRule   Kind = "rrule"
)

// SelectionPolicy decides how the variant selector picks among active variants.
type SelectionPolicy string

const (
	PolicyRandomUniform  SelectionPolicy = "RANDOM_UNIFORM"
	PolicyRandomWeighted SelectionPolicy = "RANDOM_WEIGHTED"
	PolicyRoundRobin     SelectionPolicy = "ROUND_ROBIN"
	PolicyNoRepeatWindow SelectionPolicy = "NO_REPEAT_WINDOW"
)

// NoRepeatScope controls whether the no-repeat window looks at history across
// every schedule sharing a template, or only this schedule's own history.
type NoRepeatScope string

const (
	ScopeTemplate NoRepeatScope = "template"
	ScopeSchedule NoRepeatScope = "schedule"
)

// Schedule describes when content fires and, for a template-bound schedule,
// how a variant is chosen each time it does. Exactly one of TemplateID or
// PostID is set: a template-bound schedule picks a variant on every fire via
// SelectionPolicy; a post-bound schedule always fires the same fixed Post,
// so SelectionPolicy/NoRepeatWindow/NoRepeatScope/LastVariantPos are unused.
// Kind dictates how Spec is parsed: a cron expression, an RRULE string, or
// (for one_shot) an RFC3339 timestamp.
type Schedule struct {
	ID         string `json:"id"`
	AccountID  string `json:"accountId"`
	TemplateID string `json:"templateId,omitempty"`
	PostID     string `json:"postId,omitempty"`
	Name       string `json:"name"`

	Kind     Kind   `json:"kind"`
	Spec     string `json:"spec"`
	Timezone string `json:"timezone"`

	SelectionPolicy SelectionPolicy `json:"selectionPolicy"`
	NoRepeatWindow  int             `json:"noRepeatWindow"`
	NoRepeatScope   NoRepeatScope   `json:"noRepeatScope"`
	LastVariantPos  *int            `json:"lastVariantPos,omitempty"`

	Paused    bool       `json:"paused"`
	NextRunAt time.Time  `json:"nextRunAt"`
	LastRunAt *time.Time `json:"lastRunAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TemplateBound reports whether this schedule's content source is a
// template (variant selection applies) rather than a fixed post.
func (s *Schedule) TemplateBound() bool { return s.TemplateID != "" }

// PostBound reports whether this schedule's content source is a fixed Post.
func (s *Schedule) PostBound() bool { return s.PostID != "" }
