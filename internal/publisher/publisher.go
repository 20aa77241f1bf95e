// Package publisher is the seam between the worker and the external
// publishing platform. Its HTTP implementation inherits the transport
// hardening of the teacher's job executor (TLS floor, pooled connections,
// bounded redirects, per-call timeout from context) aimed at a single
// configurable publish endpoint instead of an arbitrary per-job URL.
package publisher

import (
	"context"
	"errors"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
)

// Outcome is what a successful Publish call returns: the platform's own
// identifier for the resulting post (used as PublishedPost.ExternalID) and
// the URL at which it can be viewed.
type Outcome struct {
	ExternalID string
	URL        string
}

// Metrics is a point-in-time engagement reading, as returned by GetMetrics.
type Metrics struct {
	Likes       int64
	Reposts     int64
	Replies     int64
	Impressions int64
}

// Publisher is implemented by anything capable of actually posting content
// and, later, reading back its engagement metrics.
type Publisher interface {
	Publish(ctx context.Context, variant *domain.PostVariant) (Outcome, error)
	GetMetrics(ctx context.Context, externalID string) (Metrics, error)
}

// transientError marks a publish failure the worker should retry rather
// than dead-letter on the first attempt (e.g. a 5xx or timeout upstream).
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// DryRunPublisher never performs network I/O — it synthesizes a stable
// external ID derived from the variant and the current time, used when
// DRY_RUN is enabled.
type DryRunPublisher struct{}

func NewDryRunPublisher() *DryRunPublisher { return &DryRunPublisher{} }

func (p *DryRunPublisher) Publish(_ context.Context, variant *domain.PostVariant) (Outcome, error) {
	id := "dryrun-" + variant.ID + "-" + time.Now().UTC().Format("20060102T150405")
	return Outcome{ExternalID: id, URL: "https://dry-run.invalid/posts/" + id}, nil
}

func (p *DryRunPublisher) GetMetrics(_ context.Context, _ string) (Metrics, error) {
	return Metrics{}, nil
}
