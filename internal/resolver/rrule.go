package resolver

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/tzutil"
	"github.com/teambition/rrule-go"
)

// MaxRRuleSpecBytes bounds how large a single RRULE string may be before
// being rejected outright: a 4 KB guard.
const MaxRRuleSpecBytes = 4096

// allowedRRuleComponents is the whitelist of RFC 5545 recurrence components
// this scheduler accepts. Any component not listed here (one this system has
// no defined behavior for) is rejected at validation time rather than
// silently ignored; combinations of listed components are not checked.
var allowedRRuleComponents = map[string]bool{
	"FREQ":       true,
	"INTERVAL":   true,
	"COUNT":      true,
	"UNTIL":      true,
	"BYDAY":      true,
	"BYMONTHDAY": true,
	"BYMONTH":    true,
	"BYYEARDAY":  true,
	"BYWEEKNO":   true,
	"BYSETPOS":   true,
	"BYHOUR":     true,
	"BYMINUTE":   true,
	"BYSECOND":   true,
	"DTSTART":    true,
	"RRULE":      true,
}

type cachedRRule struct {
	rule *rrule.RRule
}

// validateRRuleSpec enforces the size limit and the component whitelist
// before anything is handed to the rrule-go parser.
func validateRRuleSpec(spec string) error {
	if len(spec) == 0 || len(spec) > MaxRRuleSpecBytes {
		return fmt.Errorf("%w: rrule spec must be 1-%d bytes", domain.ErrScheduleSpecInvalid, MaxRRuleSpecBytes)
	}

	for _, line := range strings.Split(spec, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		prefix, rest, hasColon := strings.Cut(line, ":")
		if !hasColon {
			return fmt.Errorf("%w: malformed line %q", domain.ErrScheduleSpecInvalid, line)
		}
		if !allowedRRuleComponents[strings.ToUpper(prefix)] {
			return fmt.Errorf("%w: unsupported component %q", domain.ErrScheduleSpecInvalid, prefix)
		}
		if strings.EqualFold(prefix, "RRULE") {
			for _, part := range strings.Split(rest, ";") {
				key, _, _ := strings.Cut(part, "=")
				if !allowedRRuleComponents[strings.ToUpper(strings.TrimSpace(key))] {
					return fmt.Errorf("%w: unsupported RRULE component %q", domain.ErrScheduleSpecInvalid, key)
				}
			}
		}
	}
	return nil
}

// rruleDTStart computes the DTSTART to prepend to a bare RRULE line: the
// schedule's "after" instant snapped onto the wall-clock hour/minute/second
// the RRULE's BYHOUR/BYMINUTE/BYSECOND imply (defaulting to midnight),
// resolving spring-forward/fall-back edge cases via tzutil.SnapWallClock.
func rruleDTStart(after time.Time, loc *time.Location, hour, minute, second int) time.Time {
	return tzutil.SnapWallClock(after, hour, minute, second, loc)
}

// parseRRule compiles spec (optionally containing an explicit DTSTART line)
// into an *rrule.RRule. When spec carries no DTSTART, one is synthesized
// from "after" per rruleDTStart.
func parseRRule(spec string, after time.Time, loc *time.Location) (*rrule.RRule, error) {
	// A bare rule body such as "FREQ=WEEKLY;BYDAY=MO" is read as an RRULE line.
	if !strings.Contains(spec, ":") {
		spec = "RRULE:" + spec
	}
	if err := validateRRuleSpec(spec); err != nil {
		return nil, err
	}

	hasDTStart := strings.Contains(strings.ToUpper(spec), "DTSTART")
	full := spec
	if !hasDTStart {
		hour, minute, second := 0, 0, 0
		if idx := strings.Index(strings.ToUpper(spec), "BYHOUR="); idx >= 0 {
			fmt.Sscanf(spec[idx+len("BYHOUR="):], "%d", &hour)
		}
		if idx := strings.Index(strings.ToUpper(spec), "BYMINUTE="); idx >= 0 {
			fmt.Sscanf(spec[idx+len("BYMINUTE="):], "%d", &minute)
		}
		if idx := strings.Index(strings.ToUpper(spec), "BYSECOND="); idx >= 0 {
			fmt.Sscanf(spec[idx+len("BYSECOND="):], "%d", &second)
		}
		dtstart := rruleDTStart(after, loc, hour, minute, second)
		full = fmt.Sprintf("DTSTART:%s\n%s", dtstart.UTC().Format("20060102T150405Z"), spec)
	}

	set, err := rrule.StrToRRuleSet(full)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrScheduleSpecInvalid, err)
	}
	rules := set.GetRRule()
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: no RRULE line found", domain.ErrScheduleSpecInvalid)
	}
	return rules[0], nil
}

// resolveRRule returns the next occurrence after "after", using a process-
// local LRU of compiled rules keyed by (schedule id, md5(spec)) so a hot
// schedule does not re-parse its RRULE on every tick. Grounded on the
// original's _resolve_rrule OrderedDict cache.
func (r *Resolver) resolveRRule(s *domain.Schedule, after time.Time, loc *time.Location) (time.Time, error) {
	sum := md5.Sum([]byte(s.Spec))
	cacheKey := s.ID + ":" + hex.EncodeToString(sum[:])

	cached, ok := r.rruleCache.Get(cacheKey)
	if !ok {
		rule, err := parseRRule(s.Spec, after, loc)
		if err != nil {
			return time.Time{}, err
		}
		cached = &cachedRRule{rule: rule}
		r.rruleCache.Add(cacheKey, cached)
	}

	next := cached.rule.After(after, false)
	if next.IsZero() {
		return time.Time{}, domain.ErrScheduleExhausted
	}
	return next.In(loc), nil
}
