package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ancodefactory/postpilot/internal/queue"
)

func TestDelayedQueue_FiresHandlerAtETA(t *testing.T) {
	var mu sync.Mutex
	var fired []string

	q := queue.NewDelayedQueue(func(_ context.Context, jobID string) {
		mu.Lock()
		fired = append(fired, jobID)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	if err := q.Enqueue(ctx, "job-now", time.Now().Add(10*time.Millisecond)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(fired)
		mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 || fired[0] != "job-now" {
		t.Fatalf("expected job-now to fire once, got %v", fired)
	}
}

func TestDelayedQueue_FiresInETAOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string

	q := queue.NewDelayedQueue(func(_ context.Context, jobID string) {
		mu.Lock()
		order = append(order, jobID)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	now := time.Now()
	_ = q.Enqueue(ctx, "later", now.Add(40*time.Millisecond))
	_ = q.Enqueue(ctx, "sooner", now.Add(10*time.Millisecond))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "sooner" || order[1] != "later" {
		t.Fatalf("expected [sooner later], got %v", order)
	}
}

func TestDelayedQueue_DoesNotFireBeforeETA(t *testing.T) {
	fired := make(chan string, 1)
	q := queue.NewDelayedQueue(func(_ context.Context, jobID string) {
		fired <- jobID
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	_ = q.Enqueue(ctx, "job-later", time.Now().Add(200*time.Millisecond))

	select {
	case jobID := <-fired:
		t.Fatalf("job %s fired too early", jobID)
	case <-time.After(50 * time.Millisecond):
		// expected: nothing fired yet
	}
}
