// Package queue implements the durable, prioritized job queue that hands
// work between producers (Watcher, Control Plane, Correlation Engine,
// batch discovery) and a single consumer loop. Every enqueue persists to
// the catalog before the in-memory channel send, so a crash between the
// two still recovers at startup.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/logging"
)

// Priority mirrors catalog.JobPriority for callers that don't want to
// import the catalog package's full vocabulary.
type Priority = catalog.JobPriority

const (
	PriorityLow      = catalog.PriorityLow
	PriorityNormal   = catalog.PriorityNormal
	PriorityHigh     = catalog.PriorityHigh
	PriorityCritical = catalog.PriorityCritical
)

// Queue is the durable, prioritized job queue.
type Queue struct {
	store      *catalog.Store
	maxRetries int
	ringSize   int

	channels map[Priority]chan catalog.Job

	mu      sync.Mutex
	recent  []catalog.Job
	current *catalog.Job
}

// New creates a Queue backed by store, recovering any jobs left running
// from a prior crash (Testable Property 3) and rehydrating the in-memory
// channels from pending rows.
func New(store *catalog.Store, maxRetries, ringSize, capacity int) (*Queue, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if ringSize <= 0 {
		ringSize = 256
	}
	if capacity <= 0 {
		capacity = 4096
	}

	q := &Queue{
		store:      store,
		maxRetries: maxRetries,
		ringSize:   ringSize,
		channels: map[Priority]chan catalog.Job{
			PriorityLow:      make(chan catalog.Job, capacity),
			PriorityNormal:   make(chan catalog.Job, capacity),
			PriorityHigh:     make(chan catalog.Job, capacity),
			PriorityCritical: make(chan catalog.Job, capacity),
		},
	}

	recovered, err := store.RecoverRunningJobs()
	if err != nil {
		return nil, fmt.Errorf("recover running jobs: %w", err)
	}
	if len(recovered) > 0 {
		logging.Queue("recovered %d job(s) left running at crash time", len(recovered))
	}

	for _, priority := range []Priority{PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow} {
		pending, err := store.PendingJobsByPriority(priority)
		if err != nil {
			return nil, fmt.Errorf("rehydrate %s queue: %w", priority, err)
		}
		for _, j := range pending {
			q.channels[priority] <- j
		}
	}

	recent, err := store.RecentJobs(ringSize)
	if err != nil {
		return nil, fmt.Errorf("load recent jobs: %w", err)
	}
	// RecentJobs is newest-first; q.recent keeps the newest job last.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	q.recent = recent

	return q, nil
}

// Enqueue persists a new job and hands it to the matching priority channel.
// Persistence happens first, satisfying the durability guarantee even if
// the process dies before the channel send completes.
func (q *Queue) Enqueue(jobType catalog.JobType, payload string, priority Priority) (string, error) {
	if priority == "" {
		priority = PriorityNormal
	}
	id := uuid.NewString()
	job := catalog.Job{ID: id, Type: jobType, Payload: payload, Priority: priority, EnqueuedAt: time.Now()}

	if err := q.store.InsertJob(job); err != nil {
		return "", fmt.Errorf("persist job: %w", err)
	}

	ch, ok := q.channels[priority]
	if !ok {
		return "", fmt.Errorf("queue: programmer error: unknown priority %q", priority)
	}
	select {
	case ch <- job:
	default:
		return "", fmt.Errorf("queue: %s priority channel is full", priority)
	}

	logging.QueueDebug("enqueued job %s type=%s priority=%s", id, jobType, priority)
	return id, nil
}

// ClaimNext atomically marks the oldest pending job of the highest non-empty
// priority running and returns it, enforcing the single-consumer / single-in-flight
// contract (there must be exactly one caller of ClaimNext in the daemon).
func (q *Queue) ClaimNext(ctx context.Context) (catalog.Job, error) {
	for _, priority := range []Priority{PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow} {
		select {
		case job := <-q.channels[priority]:
			if err := q.store.MarkRunning(job.ID); err != nil {
				return catalog.Job{}, fmt.Errorf("mark job running: %w", err)
			}
			job.Status = catalog.JobRunning
			q.mu.Lock()
			q.current = &job
			q.mu.Unlock()
			return job, nil
		default:
		}
	}
	return catalog.Job{}, catalog.ErrNoJobAvailable
}

// Complete marks a job terminal. If it failed and has not exceeded
// maxRetries, the caller may choose to re-enqueue; Complete itself never
// retries automatically, per spec.
func (q *Queue) Complete(jobID string, status catalog.JobStatus, errMsg string) error {
	if err := q.store.CompleteJob(jobID, status, errMsg); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}

	job, err := q.store.GetJob(jobID)
	if err != nil {
		return fmt.Errorf("reload completed job: %w", err)
	}

	q.mu.Lock()
	if q.current != nil && q.current.ID == jobID {
		q.current = nil
	}
	q.recent = append(q.recent, job)
	if len(q.recent) > q.ringSize {
		q.recent = q.recent[len(q.recent)-q.ringSize:]
	}
	q.mu.Unlock()

	logging.Queue("job %s completed status=%s", jobID, status)
	return nil
}

// ExceedsRetryCeiling reports whether a job's attempt count has exceeded
// the configured retry ceiling and should be marked terminally failed.
func (q *Queue) ExceedsRetryCeiling(attemptCount int) bool {
	return attemptCount > q.maxRetries
}

// Stats returns the queue stats rollup.
func (q *Queue) Stats() (catalog.JobStats, error) {
	return q.store.JobStatsSummary()
}

// Current returns the currently-running job, if any.
func (q *Queue) Current() (catalog.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return catalog.Job{}, false
	}
	return *q.current, true
}

// Recent returns up to n most-recently-completed jobs, newest first.
func (q *Queue) Recent(n int) []catalog.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n <= 0 || n > len(q.recent) {
		n = len(q.recent)
	}
	out := make([]catalog.Job, n)
	for i := 0; i < n; i++ {
		out[i] = q.recent[len(q.recent)-1-i]
	}
	return out
}
