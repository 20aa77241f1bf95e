package variant_test

import (
	"testing"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/variant"
)

func variants(ids ...string) []*domain.PostVariant {
	out := make([]*domain.PostVariant, len(ids))
	for i, id := range ids {
		out[i] = &domain.PostVariant{ID: id, Weight: 1}
	}
	return out
}

func TestGenerateSeed_DeterministicAcrossCalls(t *testing.T) {
	t1 := mustParse(t, "2030-06-01T00:00:00Z")
	t2 := mustParse(t, "2030-06-01T00:00:00.999999999Z") // same second, sub-second noise

	s1 := variant.GenerateSeed("sched-1", t1)
	s2 := variant.GenerateSeed("sched-1", t2)
	if s1 != s2 {
		t.Errorf("seed differs across sub-second precision: %d != %d", s1, s2)
	}
}

func TestGenerateSeed_DiffersByScheduleOrInstant(t *testing.T) {
	base := mustParse(t, "2030-06-01T00:00:00Z")
	other := mustParse(t, "2030-06-01T00:00:01Z")

	if variant.GenerateSeed("sched-1", base) == variant.GenerateSeed("sched-2", base) {
		t.Error("seed should differ by schedule ID")
	}
	if variant.GenerateSeed("sched-1", base) == variant.GenerateSeed("sched-1", other) {
		t.Error("seed should differ by planned instant")
	}
}

func TestSelect_EmptyPool_ReturnsNilVariant(t *testing.T) {
	sel := variant.Select(nil, domain.PolicyRandomUniform, 42, nil)
	if sel.Variant != nil {
		t.Errorf("expected nil variant for empty pool, got %+v", sel.Variant)
	}
}

func TestSelect_RandomUniform_Deterministic(t *testing.T) {
	pool := variants("v1", "v2", "v3")

	a := variant.Select(pool, domain.PolicyRandomUniform, 777, nil)
	b := variant.Select(pool, domain.PolicyRandomUniform, 777, nil)
	if a.Variant.ID != b.Variant.ID {
		t.Errorf("same seed produced different variants: %s != %s", a.Variant.ID, b.Variant.ID)
	}
}

func TestSelect_RoundRobin_AdvancesPastLastPosition(t *testing.T) {
	pool := variants("v3", "v1", "v2") // deliberately unsorted by ID

	last := 2 // sorted index of v3, the last position
	sel := variant.Select(pool, domain.PolicyRoundRobin, 1, &last)

	if sel.Variant.ID != "v1" {
		t.Errorf("expected wraparound to sorted[0]=v1, got %s", sel.Variant.ID)
	}
	if sel.NextVariantPos == nil || *sel.NextVariantPos != 0 {
		t.Errorf("expected next position 0, got %v", sel.NextVariantPos)
	}
}

func TestSelect_RoundRobin_FirstEverSelection(t *testing.T) {
	pool := variants("v1", "v2")

	sel := variant.Select(pool, domain.PolicyRoundRobin, 1, nil)
	if sel.Variant.ID != "v1" {
		t.Errorf("expected first sorted variant v1, got %s", sel.Variant.ID)
	}
	if sel.NextVariantPos == nil || *sel.NextVariantPos != 0 {
		t.Errorf("expected next position 0, got %v", sel.NextVariantPos)
	}
}

func TestSelect_RandomWeighted_NeverPicksZeroWeightOverEverything(t *testing.T) {
	pool := []*domain.PostVariant{
		{ID: "heavy", Weight: 1000},
		{ID: "light", Weight: 0.001},
	}

	seen := map[string]bool{}
	for seed := int64(0); seed < 50; seed++ {
		sel := variant.Select(pool, domain.PolicyRandomWeighted, seed, nil)
		seen[sel.Variant.ID] = true
	}
	if !seen["heavy"] {
		t.Error("expected the heavily-weighted variant to be picked at least once across 50 seeds")
	}
}

func TestApplyNoRepeatWindow_FallsBackWhenFilterWouldEmptyPool(t *testing.T) {
	pool := variants("v1", "v2")
	recentlyUsed := map[string]bool{"v1": true, "v2": true}

	filtered := variant.ApplyNoRepeatWindow(pool, recentlyUsed)
	if len(filtered) != len(pool) {
		t.Errorf("expected fallback to unfiltered pool, got %d variants", len(filtered))
	}
}

func TestApplyNoRepeatWindow_RemovesOnlyRecentlyUsed(t *testing.T) {
	pool := variants("v1", "v2", "v3")
	recentlyUsed := map[string]bool{"v2": true}

	filtered := variant.ApplyNoRepeatWindow(pool, recentlyUsed)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 variants remaining, got %d", len(filtered))
	}
	for _, v := range filtered {
		if v.ID == "v2" {
			t.Error("v2 should have been filtered out")
		}
	}
}

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}
