package dedupe_test

import (
	"context"
	"testing"
	"time"

	"github.com/ancodefactory/postpilot/internal/dedupe"
)

func TestMemoryStore_AcquireIsExclusiveWithinTTL(t *testing.T) {
	s := dedupe.NewMemoryStore()
	ctx := context.Background()

	ok, err := s.Acquire(ctx, "job-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	ok, err = s.Acquire(ctx, "job-1", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected second acquire to fail while lock is held")
	}
}

func TestMemoryStore_AcquireSucceedsAfterTTLExpires(t *testing.T) {
	s := dedupe.NewMemoryStore()
	ctx := context.Background()

	if ok, err := s.Acquire(ctx, "job-1", time.Millisecond); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	time.Sleep(5 * time.Millisecond)

	ok, err := s.Acquire(ctx, "job-1", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected acquire to succeed once the TTL has elapsed")
	}
}

func TestMemoryStore_ReleaseAllowsImmediateReacquire(t *testing.T) {
	s := dedupe.NewMemoryStore()
	ctx := context.Background()

	if ok, _ := s.Acquire(ctx, "job-1", time.Hour); !ok {
		t.Fatal("expected first acquire to succeed")
	}
	if err := s.Release(ctx, "job-1"); err != nil {
		t.Fatalf("release: %v", err)
	}

	ok, err := s.Acquire(ctx, "job-1", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected acquire to succeed immediately after release")
	}
}

func TestMemoryStore_DistinctKeysDoNotInterfere(t *testing.T) {
	s := dedupe.NewMemoryStore()
	ctx := context.Background()

	if ok, _ := s.Acquire(ctx, "job-1", time.Hour); !ok {
		t.Fatal("expected job-1 acquire to succeed")
	}
	ok, err := s.Acquire(ctx, "job-2", time.Hour)
	if err != nil || !ok {
		t.Fatalf("expected job-2 acquire to succeed independently: ok=%v err=%v", ok, err)
	}
}
