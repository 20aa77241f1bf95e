package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/ancodefactory/postpilot/internal/dedupe"
	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/email"
	"github.com/ancodefactory/postpilot/internal/metrics"
	"github.com/ancodefactory/postpilot/internal/publisher"
	"github.com/ancodefactory/postpilot/internal/repository"
	"github.com/ancodefactory/postpilot/internal/variant"
)

// NewQueueHandler returns the queue.Handler that fires once a planned job's
// ETA elapses: planned -> enqueued is the only thing the queue itself is
// responsible for, so a worker claiming "enqueued" jobs never has to know
// the queue exists.
func NewQueueHandler(jobs repository.JobRepository, logger *slog.Logger) func(ctx context.Context, jobID string) {
	log := logger.With("component", "queue_handler")
	return func(ctx context.Context, jobID string) {
		if err := jobs.MarkEnqueued(ctx, jobID); err != nil {
			log.Error("mark job enqueued", "job_id", jobID, "error", err)
		}
	}
}

// Worker claims enqueued (and retry-eligible failed) jobs and runs them
// against a Publisher, recording the outcome and advancing each job's state.
type Worker struct {
	id           string
	jobs         repository.JobRepository
	variants     repository.VariantRepository
	posts        repository.PostRepository
	published    repository.PublishedRepository
	attempts     repository.AttemptRepository
	dedupeStore  dedupe.Store
	dedupeTTL    time.Duration
	publisher    publisher.Publisher
	alerter      email.Sender
	alertTo      string
	logger       *slog.Logger
	pollInterval time.Duration
	concurrency  int
}

func NewWorker(
	jobs repository.JobRepository,
	variants repository.VariantRepository,
	posts repository.PostRepository,
	published repository.PublishedRepository,
	attempts repository.AttemptRepository,
	dedupeStore dedupe.Store,
	dedupeTTL time.Duration,
	pub publisher.Publisher,
	alerter email.Sender,
	alertTo string,
	logger *slog.Logger,
	pollInterval time.Duration,
	concurrency int,
) *Worker {
	hostname, _ := os.Hostname()
	id := fmt.Sprintf("%s-%d", hostname, os.Getpid())
	return &Worker{
		id:           id,
		jobs:         jobs,
		variants:     variants,
		posts:        posts,
		published:    published,
		attempts:     attempts,
		dedupeStore:  dedupeStore,
		dedupeTTL:    dedupeTTL,
		publisher:    pub,
		alerter:      alerter,
		alertTo:      alertTo,
		logger:       logger.With("component", "worker", "worker_id", id),
		pollInterval: pollInterval,
		concurrency:  concurrency,
	}
}

func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	metrics.WorkerStartTime.SetToCurrentTime()
	w.logger.Info("worker started", "concurrency", w.concurrency)

	for {
		select {
		case <-ctx.Done():
			metrics.WorkerShutdownsTotal.Inc()
			w.logger.Info("worker shut down")
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) {
	jobs, err := w.jobs.Claim(ctx, w.id, w.concurrency)
	if err != nil {
		w.logger.Error("claim jobs", "error", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	w.logger.Info("claimed jobs", "count", len(jobs))

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(j *domain.PublishJob) {
			defer wg.Done()
			metrics.JobsInFlight.Inc()
			defer metrics.JobsInFlight.Dec()
			w.runJob(ctx, j)
		}(job)
	}
	wg.Wait()
}

func (w *Worker) runJob(ctx context.Context, job *domain.PublishJob) {
	metrics.JobPickupLatency.Observe(time.Since(job.PlannedAt).Seconds())

	heartbeatCtx, cancelHeartbeat := context.WithCancel(ctx)
	defer cancelHeartbeat()
	go w.heartbeat(heartbeatCtx, job.ID)

	attempt, err := w.attempts.CreateAttempt(ctx, &domain.JobAttempt{
		JobID:      job.ID,
		AttemptNum: job.Attempt + 1,
		WorkerID:   w.id,
		StartedAt:  time.Now(),
	})
	if err != nil {
		w.logger.Error("create attempt record", "job_id", job.ID, "error", err)
	}

	start := time.Now()
	outcome, pubErr := w.publish(ctx, job)
	duration := time.Since(start)

	if attempt != nil {
		var errMsg *string
		if pubErr != nil {
			msg := pubErr.Error()
			errMsg = &msg
		}
		if completeErr := w.attempts.CompleteAttempt(ctx, attempt.ID, errMsg, duration.Milliseconds()); completeErr != nil {
			w.logger.Error("complete attempt record", "attempt_id", attempt.ID, "error", completeErr)
		}
	}

	if errors.Is(pubErr, domain.ErrJobCancelled) {
		w.releaseLock(ctx, job)
		w.logger.Info("job cancelled before publish", "job_id", job.ID)
		return
	}

	if pubErr == nil {
		metrics.PublishDuration.WithLabelValues("success").Observe(duration.Seconds())
		if _, err := w.published.RecordOutcome(ctx, job.ID, job.PostID, job.VariantID, outcome.ExternalID, outcome.URL, time.Now()); err != nil {
			w.logger.Error("record published outcome", "job_id", job.ID, "error", err)
		}
		if err := w.jobs.Succeed(ctx, job.ID); err != nil {
			w.logger.Error("mark job succeeded", "job_id", job.ID, "error", err)
		}
		metrics.JobsCompletedTotal.WithLabelValues("succeeded").Inc()
		w.releaseLock(ctx, job)
		w.logger.Info("job published", "job_id", job.ID, "external_id", outcome.ExternalID, "duration", duration)
		return
	}

	metrics.PublishDuration.WithLabelValues("failure").Observe(duration.Seconds())
	w.fail(ctx, job, pubErr)
}

// publish reloads the job to guard against a Post soft-delete cascade that
// cancelled it out from under this worker, resolves its content source,
// enforces content safety against recently published text, and hands the
// result to the publisher adapter.
func (w *Worker) publish(ctx context.Context, job *domain.PublishJob) (publisher.Outcome, error) {
	// Defense in depth beyond the claim's FOR UPDATE SKIP LOCKED: if the
	// sweeper rescued this job while its original worker's publish call was
	// still in flight, this lock stops the rescued attempt from posting a
	// second time.
	if w.dedupeStore != nil {
		acquired, err := w.dedupeStore.Acquire(ctx, job.DedupeKey, w.dedupeTTL)
		if err != nil {
			return publisher.Outcome{}, fmt.Errorf("acquire publish lock: %w", err)
		}
		if !acquired {
			return publisher.Outcome{}, publisher.Transient(fmt.Errorf("publish lock held for job %s", job.ID))
		}
	}

	current, err := w.jobs.GetByID(ctx, job.ID)
	if err != nil {
		return publisher.Outcome{}, fmt.Errorf("reload job: %w", err)
	}
	if current.Status != domain.StatusRunning {
		return publisher.Outcome{}, domain.ErrJobCancelled
	}

	v, err := w.resolveContent(ctx, job)
	if err != nil {
		return publisher.Outcome{}, err
	}

	recent, err := w.published.RecentTextsByVariant(ctx, 50)
	if err != nil {
		return publisher.Outcome{}, fmt.Errorf("load recent published text: %w", err)
	}
	if err := variant.ValidateContentSafety(v, recent); err != nil {
		metrics.ContentSafetyRejectedTotal.WithLabelValues(safetyReason(err)).Inc()
		return publisher.Outcome{}, err
	}

	return w.publisher.Publish(ctx, v)
}

// resolveContent loads whichever content source this job's snapshot
// carries: a picked variant, or — for a post-bound schedule — the fixed
// Post itself, recast as a single-use variant so the rest of the publish
// path (safety check, publisher call) doesn't need a second code path.
func (w *Worker) resolveContent(ctx context.Context, job *domain.PublishJob) (*domain.PostVariant, error) {
	if job.VariantID != "" {
		v, err := w.variants.GetByID(ctx, job.VariantID)
		if err != nil {
			return nil, fmt.Errorf("load variant: %w", err)
		}
		return v, nil
	}

	p, err := w.posts.GetByID(ctx, job.PostID)
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	if p.Deleted {
		return nil, domain.ErrPostDeleted
	}

	return &domain.PostVariant{
		ID:        p.ID,
		Text:      p.Text,
		MediaURLs: p.MediaURLs,
		Weight:    1,
		Active:    true,
	}, nil
}

func safetyReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrContentTooLong):
		return "too_long"
	case errors.Is(err, domain.ErrContentDuplicate):
		return "duplicate"
	default:
		return "other"
	}
}

// fail decides between a retry (failed, eligible again at next_attempt_at)
// and a permanent give-up (dead_letter), mirroring the teacher's
// retry-vs-exhaust branch in its old runJob.
func (w *Worker) fail(ctx context.Context, job *domain.PublishJob, pubErr error) {
	errMsg := pubErr.Error()

	// Content-safety rejections and any other non-transient publisher error
	// are not worth retrying — retrying would reproduce the same rejection.
	retryable := publisher.IsTransient(pubErr)

	if retryable && job.Attempt+1 < job.MaxAttempts {
		nextAttemptAt := time.Now().Add(retryDelay(job.Attempt))
		if err := w.jobs.Fail(ctx, job.ID, errMsg, nextAttemptAt); err != nil {
			w.logger.Error("reschedule failed job", "job_id", job.ID, "error", err)
		}
		metrics.JobsCompletedTotal.WithLabelValues("retry_scheduled").Inc()
		w.logger.Warn("job failed, will retry", "job_id", job.ID, "attempt", job.Attempt+1, "max_attempts", job.MaxAttempts, "next_attempt_at", nextAttemptAt, "error", errMsg)
		return
	}

	if err := w.jobs.DeadLetter(ctx, job.ID, errMsg); err != nil {
		w.logger.Error("dead letter job", "job_id", job.ID, "error", err)
	}
	metrics.JobsCompletedTotal.WithLabelValues("dead_letter").Inc()
	w.releaseLock(ctx, job)
	w.logger.Error("job dead lettered", "job_id", job.ID, "error", errMsg)
	w.notifyDeadLetter(ctx, job, errMsg)
}

func (w *Worker) notifyDeadLetter(ctx context.Context, job *domain.PublishJob, errMsg string) {
	if w.alerter == nil || w.alertTo == "" {
		return
	}
	subject := fmt.Sprintf("publish job %s dead-lettered", job.ID)
	body := fmt.Sprintf("Job %s (schedule %s, variant %s) gave up after %d attempts: %s", job.ID, job.ScheduleID, job.VariantID, job.Attempt+1, errMsg)
	if err := w.alerter.Send(ctx, w.alertTo, subject, body); err != nil {
		w.logger.Error("send dead letter alert", "job_id", job.ID, "error", err)
	}
}

func (w *Worker) releaseLock(ctx context.Context, job *domain.PublishJob) {
	if w.dedupeStore == nil {
		return
	}
	if err := w.dedupeStore.Release(ctx, job.DedupeKey); err != nil {
		w.logger.Warn("release dedupe lock", "job_id", job.ID, "error", err)
	}
}

func (w *Worker) heartbeat(ctx context.Context, jobID string) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.jobs.UpdateHeartbeat(ctx, jobID); err != nil {
				w.logger.Warn("update heartbeat", "job_id", jobID, "error", err)
			}
		}
	}
}

// retryDelay computes an exponential backoff with jitter, grounded on the
// teacher's retryDelay: 30s base, doubling per attempt, capped at an hour,
// jittered +-25% to avoid every retry in a batch landing at once.
func retryDelay(attempt int) time.Duration {
	base := 30 * time.Second
	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if delay > time.Hour {
		delay = time.Hour
	}
	jitter := time.Duration(rand.Int63n(int64(delay/2))) - delay/4
	return delay + jitter
}
