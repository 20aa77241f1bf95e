package resolver

import (
	"fmt"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
)

// resolveOneShot parses Spec as an RFC3339 timestamp. A one_shot schedule has
// exactly one occurrence: once "after" has passed it, there is nothing left
// to fire and the caller should pause the schedule rather than re-resolve it.
func resolveOneShot(spec string, after time.Time, loc *time.Location) (time.Time, error) {
	at, err := time.Parse(time.RFC3339, spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: one_shot spec must be RFC3339: %w", domain.ErrScheduleSpecInvalid, err)
	}
	at = at.In(loc)
	if !at.After(after) {
		return time.Time{}, domain.ErrScheduleExhausted
	}
	return at, nil
}
