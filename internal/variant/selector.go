// Package variant implements deterministic variant selection for a
// schedule's fire: given the active variants of a template and the recent
// selection history, it picks one variant the same way every time the same
// (schedule, planned_at) pair is evaluated. Re-expressed from the original
// VariantSelector in variant_service.py using a seeded math/rand instead of
// Python's random.Random, and crypto/sha256 instead of hashlib.
package variant

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
)

// Selection is the outcome of a Select call: the chosen variant (nil if the
// pool was empty), the seed used to derive it, and — for ROUND_ROBIN — the
// new LastVariantPos the caller must persist on the schedule in the same
// transaction as the job it creates.
type Selection struct {
	Variant        *domain.PostVariant
	Seed           int64
	NextVariantPos *int
}

// GenerateSeed derives a deterministic int64 seed from a schedule ID and a
// planned instant. plannedAt is normalized to UTC with second precision
// before hashing so that callers in any timezone, and any caller re-deriving
// the seed later, always agree on the same value.
func GenerateSeed(scheduleID string, plannedAt time.Time) int64 {
	normalized := plannedAt.UTC().Truncate(time.Second)
	seedStr := fmt.Sprintf("%s:%s", scheduleID, normalized.Format("2006-01-02T15:04:05+00:00"))
	sum := sha256.Sum256([]byte(seedStr))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// ApplyNoRepeatWindow filters out variants that appear in recentlyUsed. If
// the filter would empty the pool, it returns the original, unfiltered pool —
// a schedule can never get stuck with nothing to post just because its whole
// catalog fell inside the window.
func ApplyNoRepeatWindow(pool []*domain.PostVariant, recentlyUsed map[string]bool) []*domain.PostVariant {
	if len(recentlyUsed) == 0 {
		return pool
	}

	filtered := make([]*domain.PostVariant, 0, len(pool))
	for _, v := range pool {
		if !recentlyUsed[v.ID] {
			filtered = append(filtered, v)
		}
	}
	if len(filtered) == 0 {
		return pool
	}
	return filtered
}

// Select picks a variant from pool per policy, using rng seeded by Seed.
// lastVariantPos is the schedule's current ROUND_ROBIN cursor (nil if never
// selected before).
func Select(pool []*domain.PostVariant, policy domain.SelectionPolicy, seed int64, lastVariantPos *int) Selection {
	if len(pool) == 0 {
		return Selection{Seed: seed}
	}

	rng := rand.New(rand.NewSource(seed))

	switch policy {
	case domain.PolicyRandomWeighted:
		return Selection{Variant: selectWeighted(pool, rng), Seed: seed}

	case domain.PolicyRoundRobin:
		sorted := make([]*domain.PostVariant, len(pool))
		copy(sorted, pool)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

		last := -1
		if lastVariantPos != nil {
			last = *lastVariantPos
		}
		next := (last + 1) % len(sorted)
		return Selection{Variant: sorted[next], Seed: seed, NextVariantPos: &next}

	default: // RANDOM_UNIFORM, NO_REPEAT_WINDOW (already filtered by ApplyNoRepeatWindow)
		idx := rng.Intn(len(pool))
		return Selection{Variant: pool[idx], Seed: seed}
	}
}

func selectWeighted(pool []*domain.PostVariant, rng *rand.Rand) *domain.PostVariant {
	var total float64
	for _, v := range pool {
		w := v.Weight
		if w <= 0 {
			w = 1
		}
		total += w
	}

	r := rng.Float64() * total
	var acc float64
	for _, v := range pool {
		w := v.Weight
		if w <= 0 {
			w = 1
		}
		acc += w
		if r < acc {
			return v
		}
	}
	return pool[len(pool)-1]
}
