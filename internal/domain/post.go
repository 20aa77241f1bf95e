package domain

import (
	"errors"
	"time"
)

var (
	ErrTemplateNotFound = errors.New("post template not found")
	ErrVariantNotFound   = errors.New("post variant not found")
	ErrNoActiveVariants  = errors.New("template has no active variants")
	ErrContentTooLong    = errors.New("content exceeds platform character limit")
	ErrContentDuplicate  = errors.New("content is a duplicate or near-duplicate of recently published content")
	ErrPostNotFound      = errors.New("post not found")
	ErrPostDeleted       = errors.New("post has been deleted")
)

// MaxPostChars is the platform character limit applied to variant text.
const MaxPostChars = 280

// Post is a single fixed piece of content a schedule can bind to directly,
// bypassing variant selection entirely. Soft-deleting one cancels every
// non-terminal job of every schedule bound to it.
type Post struct {
	ID        string     `json:"id"`
	AccountID string     `json:"accountId"`
	Text      string     `json:"text"`
	MediaURLs []string   `json:"mediaUrls,omitempty"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// PostTemplate groups a family of interchangeable variants behind one schedule.
type PostTemplate struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostVariant is one candidate body of text belonging to a template.
// Weight only matters under RANDOM_WEIGHTED selection.
type PostVariant struct {
	ID         string    `json:"id"`
	TemplateID string    `json:"templateId"`
	Text       string    `json:"text"`
	MediaURLs  []string  `json:"mediaUrls,omitempty"`
	Weight     float64   `json:"weight"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
