package domain

import "time"

// PublishedPost is the idempotent outcome record of a succeeded PublishJob.
// ExternalID is the publisher's own identifier for the post and is the
// uniqueness anchor: retrying a job that actually succeeded upstream but
// crashed before the local commit must reuse this row, never duplicate it.
// Exactly one of PostID or VariantID is set, mirroring whichever content
// source the originating schedule used.
type PublishedPost struct {
	ID          string    `json:"id"`
	JobID       string    `json:"jobId"`
	PostID      string    `json:"postId,omitempty"`
	VariantID   string    `json:"variantId,omitempty"`
	ExternalID  string    `json:"externalId"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Account is the storage shape for an external platform's credentials.
// Acquiring/refreshing these tokens is an external collaborator's job; the
// publisher adapter authenticates with its configured token and does not read
// this type.
type Account struct {
	ID           string     `json:"id"`
	Handle       string     `json:"handle"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	Scopes       []string   `json:"scopes,omitempty"`
	RotatedAt    *time.Time `json:"rotatedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// MetricsSnapshot is the storage shape for a point-in-time engagement reading
// of a published post. The publisher adapter's GetMetrics returns a Metrics
// value and does not write snapshots; nothing in the module writes or reads
// this type.
type MetricsSnapshot struct {
	ID              string    `json:"id"`
	PublishedPostID string    `json:"publishedPostId"`
	Likes           int64     `json:"likes"`
	Reposts         int64     `json:"reposts"`
	Replies         int64     `json:"replies"`
	Impressions     int64     `json:"impressions"`
	CapturedAt      time.Time `json:"capturedAt"`
}

// ProfileCache holds a cached copy of an external profile lookup. Storage
// shape only — no fetch logic is implemented, the real profile API is an
// out-of-scope external collaborator.
type ProfileCache struct {
	Handle    string    `json:"handle"`
	Profile   []byte    `json:"profile"`
	ExpiresAt time.Time `json:"expiresAt"`
}
