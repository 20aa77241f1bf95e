package variant

import (
	"fmt"

	"github.com/ancodefactory/postpilot/internal/domain"
)

// SimilarityThreshold above which two variant texts are considered
// near-duplicates. Matches the 90% threshold the original content-safety
// check used with difflib.SequenceMatcher.
const SimilarityThreshold = 0.9

// ValidateContentSafety rejects a variant whose text is too long, an exact
// duplicate, or a near-duplicate (by similarity ratio) of anything in
// recentlyPublished. There is no fuzzy-text-diff library in this project's
// dependency set, so the ratio is computed with a small Levenshtein-based
// routine below rather than an added third-party dependency.
func ValidateContentSafety(v *domain.PostVariant, recentlyPublished []string) error {
	if len(v.Text) > domain.MaxPostChars {
		return fmt.Errorf("%w: %d characters", domain.ErrContentTooLong, len(v.Text))
	}

	for _, recent := range recentlyPublished {
		if recent == v.Text {
			return domain.ErrContentDuplicate
		}
		if similarityRatio(v.Text, recent) > SimilarityThreshold {
			return domain.ErrContentDuplicate
		}
	}
	return nil
}

// similarityRatio returns a 0..1 score, 1 meaning identical, derived from
// Levenshtein edit distance the same way difflib approximates a ratio:
// 1 - distance / max(len(a), len(b)).
func similarityRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if bl := len([]rune(b)); bl > maxLen {
		maxLen = bl
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
