// Package tzutil centralizes timezone lookups and DST-transition helpers
// shared by the cron and rrule resolvers. Go's time package ships its own
// IANA database lookup (time.LoadLocation), which is the idiomatic
// replacement for pytz — there is no third-party timezone library in the
// dependency set this project draws from, so this package is stdlib-only
// by design rather than by omission.
package tzutil

import (
	"fmt"
	"time"
)

const DefaultTimezone = "UTC"

// Load resolves a timezone name, falling back to DefaultTimezone when name
// is empty so callers never have to special-case an unset Schedule.Timezone.
func Load(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// IsValid reports whether name resolves to a known IANA timezone.
func IsValid(name string) bool {
	_, err := time.LoadLocation(name)
	return err == nil
}

// AdjustReferenceForDSTTransition nudges a reference instant forward across a
// DST boundary so that computing "next occurrence after reference" in cron
// space does not land back on an instant that already fired, and does not
// skip one that hasn't. Mirrors the reference-shifting behavior the original
// scheduler applied before handing the reference time to its cron parser.
func AdjustReferenceForDSTTransition(reference time.Time, loc *time.Location) time.Time {
	local := reference.In(loc)
	_, offsetBefore := local.Zone()

	probe := local.Add(time.Minute)
	_, offsetAfter := probe.Zone()

	if offsetBefore == offsetAfter {
		return reference
	}

	// Offset changed within the next minute — a transition is imminent.
	// Step reference forward to the first instant past it so the next
	// resolved occurrence cannot alias an instant that has already passed
	// in wall-clock terms.
	return GetPostTransitionInstant(local, loc).In(reference.Location())
}

// GetPostTransitionInstant returns the first instant strictly after a DST
// transition that starts at or after "from". It does this by walking forward
// in small steps until the UTC offset stabilizes, which is cheap since a
// transition window is at most a couple of hours.
func GetPostTransitionInstant(from time.Time, loc *time.Location) time.Time {
	cur := from.In(loc)
	_, startOffset := cur.Zone()

	for step := 0; step < 180; step++ {
		cur = cur.Add(time.Minute)
		if _, off := cur.Zone(); off != startOffset {
			// keep walking until the offset is stable again (handles the
			// rare double-step some zones apply)
			_, stableOffset := cur.Zone()
			for i := 0; i < 5; i++ {
				next := cur.Add(time.Minute)
				if _, off2 := next.Zone(); off2 != stableOffset {
					cur = next
					stableOffset = off2
					continue
				}
				break
			}
			return cur
		}
	}
	return cur
}

// SnapWallClock rewrites a date's hour/minute/second while resolving the two
// DST edge cases RFC 5545 implementations must handle:
//   - a non-existent wall time (spring-forward gap): resolved to the first
//     valid instant after the gap.
//   - an ambiguous wall time (fall-back overlap): resolved to the first
//     (still-DST) occurrence.
func SnapWallClock(date time.Time, hour, minute, second int, loc *time.Location) time.Time {
	wall := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, second, 0, loc)

	// time.Date never fails in Go the way Python's pytz does — it always
	// returns *a* valid instant by normalizing through the offset table.
	// To detect the gap/ambiguity cases we reconstruct the wall clock
	// fields from the result and compare.
	if wall.Hour() != hour || wall.Minute() != minute {
		// Fell in a spring-forward gap: Go resolved it by sliding forward
		// past the gap already, which matches "first valid post-gap instant".
		return wall
	}

	// Check for ambiguity: a second wall-clock match an hour earlier maps
	// to a different UTC instant than this one only when we're inside a
	// fall-back overlap. Go's time.Date already picks a deterministic
	// offset (it prefers standard time for ambiguous times on most
	// platforms' tzdata); to guarantee "first/still-DST occurrence" we
	// explicitly probe one hour earlier and take the earlier UTC instant
	// whenever both resolve to the same wall clock reading.
	earlier := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, second, 0, loc).Add(-time.Hour)
	if earlier.Hour() == hour && earlier.Minute() == minute && !earlier.Equal(wall) {
		if earlier.Before(wall) {
			return earlier
		}
	}

	return wall
}
