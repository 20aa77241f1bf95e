package resolver_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/resolver"
)

func newResolver(t *testing.T) *resolver.Resolver {
	t.Helper()
	r, err := resolver.New(64, slog.Default())
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	return r
}

func TestNext_OneShot_FiresOnceThenExhausted(t *testing.T) {
	r := newResolver(t)
	s := &domain.Schedule{
		Kind:     domain.KindOneShot,
		Spec:     "2030-01-01T12:00:00Z",
		Timezone: "UTC",
	}

	after := time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC)
	next, err := r.Next(s, after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}

	_, err = r.Next(s, next)
	if !errors.Is(err, domain.ErrScheduleExhausted) {
		t.Errorf("want ErrScheduleExhausted once the one_shot instant has passed, got %v", err)
	}
}

func TestNext_OneShot_InvalidSpec(t *testing.T) {
	r := newResolver(t)
	s := &domain.Schedule{Kind: domain.KindOneShot, Spec: "not-a-timestamp", Timezone: "UTC"}

	_, err := r.Next(s, time.Now())
	if !errors.Is(err, domain.ErrScheduleSpecInvalid) {
		t.Errorf("want ErrScheduleSpecInvalid, got %v", err)
	}
}

func TestNext_Cron_WeekdaysOnly(t *testing.T) {
	r := newResolver(t)
	s := &domain.Schedule{
		Kind:     domain.KindCron,
		Spec:     "0 9 * * 1-5", // weekdays at 09:00
		Timezone: "UTC",
	}

	// 2030-01-05 is a Saturday; next weekday fire should be Monday 2030-01-07.
	after := time.Date(2030, 1, 5, 0, 0, 0, 0, time.UTC)
	next, err := r.Next(s, after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		t.Errorf("expected a weekday fire, got %v (%v)", next, next.Weekday())
	}
	if next.Hour() != 9 {
		t.Errorf("expected 09:00 fire, got hour %d", next.Hour())
	}
}

func TestNext_Cron_AlwaysAfterReference(t *testing.T) {
	r := newResolver(t)
	s := &domain.Schedule{Kind: domain.KindCron, Spec: "* * * * *", Timezone: "UTC"}

	after := time.Date(2030, 3, 1, 10, 30, 0, 0, time.UTC)
	next, err := r.Next(s, after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !next.After(after) {
		t.Errorf("next (%v) must be strictly after reference (%v)", next, after)
	}
}

func TestNext_RRule_WeeklyAdvancesOneWeek(t *testing.T) {
	r := newResolver(t)
	s := &domain.Schedule{
		ID:       "sched-rrule-1",
		Kind:     domain.KindRRule,
		Spec:     "FREQ=WEEKLY;BYDAY=MO;BYHOUR=10;BYMINUTE=0;BYSECOND=0",
		Timezone: "UTC",
	}

	first, err := r.Next(s, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Weekday() != time.Monday {
		t.Errorf("expected a Monday fire, got %v", first.Weekday())
	}

	second, err := r.Next(s, first)
	if err != nil {
		t.Fatalf("unexpected error on second resolve: %v", err)
	}
	if second.Sub(first) != 7*24*time.Hour {
		t.Errorf("expected exactly one week between fires, got %v", second.Sub(first))
	}
}

func TestNext_RRule_RejectsDisallowedComponent(t *testing.T) {
	r := newResolver(t)
	s := &domain.Schedule{
		ID:       "sched-rrule-2",
		Kind:     domain.KindRRule,
		Spec:     "FREQ=WEEKLY;BYEASTER=1",
		Timezone: "UTC",
	}

	_, err := r.Next(s, time.Now())
	if !errors.Is(err, domain.ErrScheduleSpecInvalid) {
		t.Errorf("want ErrScheduleSpecInvalid for unsupported component, got %v", err)
	}
}

func TestNext_UnknownKind(t *testing.T) {
	r := newResolver(t)
	s := &domain.Schedule{Kind: domain.Kind("bogus"), Timezone: "UTC"}

	_, err := r.Next(s, time.Now())
	if !errors.Is(err, domain.ErrUnknownScheduleKind) {
		t.Errorf("want ErrUnknownScheduleKind, got %v", err)
	}
}
