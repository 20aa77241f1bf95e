// Package resolver computes the next fire time for a schedule. It is the Go
// re-expression of the original scheduler_service.py: dispatch on
// domain.Kind, DST-aware reference adjustment for cron, and an RFC 5545
// RRULE evaluator with a bounded LRU of compiled rules.
package resolver

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/tzutil"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Resolver resolves the next occurrence for a schedule after a reference time.
type Resolver struct {
	rruleCache *lru.Cache[string, *cachedRRule]
	logger     *slog.Logger
}

// New builds a Resolver with an RRULE compiled-rule cache of the given
// capacity. Grounded on the original's OrderedDict LRU cache in
// _resolve_rrule, re-expressed with hashicorp/golang-lru (seen as a
// transitive dependency elsewhere in the retrieved pack and the idiomatic
// bounded-cache choice in the Go ecosystem).
func New(rruleCacheSize int, logger *slog.Logger) (*Resolver, error) {
	cache, err := lru.New[string, *cachedRRule](rruleCacheSize)
	if err != nil {
		return nil, fmt.Errorf("new rrule cache: %w", err)
	}
	return &Resolver{rruleCache: cache, logger: logger.With("component", "resolver")}, nil
}

// Next returns the next time the schedule should fire strictly after "after".
// It never returns a time at or before "after" — callers may assume strict
// monotonicity when repeatedly calling Next with the previous result.
func (r *Resolver) Next(s *domain.Schedule, after time.Time) (time.Time, error) {
	loc, err := tzutil.Load(s.Timezone)
	if err != nil {
		return time.Time{}, err
	}

	switch s.Kind {
	case domain.KindOneShot:
		return resolveOneShot(s.Spec, after, loc)
	case domain.KindCron:
		return resolveCron(s.Spec, after, loc)
	case domain.KindRRule:
		return r.resolveRRule(s, after, loc)
	default:
		return time.Time{}, domain.ErrUnknownScheduleKind
	}
}
