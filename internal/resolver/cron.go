package resolver

import (
	"fmt"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/tzutil"
	"github.com/robfig/cron/v3"
)

// resolveCron parses Spec as a standard five-field cron expression and
// returns the next occurrence strictly after "after", evaluated in loc.
// Grounded on the original's _resolve_cron (croniter + pytz): the reference
// instant is nudged across any imminent DST boundary before being handed to
// the cron library, so a spring-forward gap can't produce a wall time that
// never existed and a fall-back overlap can't silently repeat a fire.
func resolveCron(spec string, after time.Time, loc *time.Location) (time.Time, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", domain.ErrScheduleSpecInvalid, err)
	}

	reference := tzutil.AdjustReferenceForDSTTransition(after, loc)
	next := sched.Next(reference.In(loc))

	// robfig/cron computes in the location attached to the time it's given;
	// guard against any edge case where it still returns something at or
	// before the original reference (e.g. a reference exactly on a fire).
	for !next.After(after) {
		next = sched.Next(next)
	}
	return next, nil
}
