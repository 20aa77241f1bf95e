package variant_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/variant"
)

func TestValidateContentSafety_TooLong(t *testing.T) {
	v := &domain.PostVariant{Text: strings.Repeat("a", domain.MaxPostChars+1)}

	err := variant.ValidateContentSafety(v, nil)
	if !errors.Is(err, domain.ErrContentTooLong) {
		t.Errorf("want ErrContentTooLong, got %v", err)
	}
}

func TestValidateContentSafety_ExactDuplicate(t *testing.T) {
	v := &domain.PostVariant{Text: "hello world"}

	err := variant.ValidateContentSafety(v, []string{"unrelated", "hello world"})
	if !errors.Is(err, domain.ErrContentDuplicate) {
		t.Errorf("want ErrContentDuplicate, got %v", err)
	}
}

func TestValidateContentSafety_NearDuplicate(t *testing.T) {
	v := &domain.PostVariant{Text: "This week's changelog is live, check it out!"}
	recent := "This week's changelog is live, check it out now!"

	err := variant.ValidateContentSafety(v, []string{recent})
	if !errors.Is(err, domain.ErrContentDuplicate) {
		t.Errorf("want ErrContentDuplicate for near-duplicate text, got %v", err)
	}
}

func TestValidateContentSafety_DistinctTextPasses(t *testing.T) {
	v := &domain.PostVariant{Text: "Brand new announcement unrelated to anything recent."}

	err := variant.ValidateContentSafety(v, []string{"Completely different historical post about cats."})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateContentSafety_EmptyHistoryPasses(t *testing.T) {
	v := &domain.PostVariant{Text: "Anything goes with no history."}

	if err := variant.ValidateContentSafety(v, nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
