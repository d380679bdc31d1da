package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// JobType enumerates the kinds of work the queue carries.
type JobType string

const (
	JobFileExtraction  JobType = "FILE_EXTRACTION"
	JobBatchExtraction JobType = "BATCH_EXTRACTION"
	JobFAEImport       JobType = "FAE_IMPORT"
	JobCorrelation     JobType = "CORRELATION"
	JobTranscribe      JobType = "TRANSCRIBE"
	JobVisionAnalyze   JobType = "VISION_ANALYZE"
)

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// JobPriority orders equal-type jobs within the queue.
type JobPriority string

const (
	PriorityLow      JobPriority = "low"
	PriorityNormal   JobPriority = "normal"
	PriorityHigh     JobPriority = "high"
	PriorityCritical JobPriority = "critical"
)

// Job is the catalog-backed queue entry, persisted before any in-memory
// channel send so a crash between the two leaves a pending row that queue.New
// rehydrates from PendingJobsByPriority.
type Job struct {
	ID           string
	Type         JobType
	Payload      string
	Priority     JobPriority
	Status       JobStatus
	EnqueuedAt   time.Time
	StartedAt    sql.NullTime
	FinishedAt   sql.NullTime
	AttemptCount int
	LastError    string
}

// InsertJob persists a new job in status=pending.
func (s *Store) InsertJob(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.Priority == "" {
		j.Priority = PriorityNormal
	}
	_, err := s.db.Exec(`INSERT INTO jobs (id, type, payload, priority, status, enqueued_at, attempt_count)
		VALUES (?, ?, ?, ?, ?, ?, 0)`,
		j.ID, j.Type, j.Payload, j.Priority, JobPending, j.EnqueuedAt)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// MarkRunning transitions a job to running and stamps started_at.
func (s *Store) MarkRunning(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE jobs SET status=?, started_at=? WHERE id=?`, JobRunning, time.Now(), id)
	return err
}

// CompleteJob marks a job terminal (succeeded/failed/cancelled) and stamps
// finished_at. errMsg is recorded only for non-success terminal states.
func (s *Store) CompleteJob(id string, status JobStatus, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == JobSucceeded {
		errMsg = ""
	}
	_, err := s.db.Exec(`UPDATE jobs SET status=?, finished_at=?, last_error=? WHERE id=?`,
		status, time.Now(), errMsg, id)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO job_history (job_id, status) VALUES (?, ?)`, id, status)
	return err
}

// IncrementAttempt bumps a job's attempt counter, returning the new count.
func (s *Store) IncrementAttempt(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`UPDATE jobs SET attempt_count = attempt_count + 1 WHERE id=?`, id); err != nil {
		return 0, fmt.Errorf("increment attempt: %w", err)
	}
	var n int
	if err := s.db.QueryRow(`SELECT attempt_count FROM jobs WHERE id=?`, id).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// GetJob fetches a job by id.
func (s *Store) GetJob(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanJob(s.db.QueryRow(`SELECT id, type, payload, priority, status, enqueued_at, started_at, finished_at, attempt_count, last_error FROM jobs WHERE id=?`, id))
}

func (s *Store) scanJob(row *sql.Row) (Job, error) {
	var j Job
	var typ, priority, status string
	err := row.Scan(&j.ID, &typ, &j.Payload, &priority, &status, &j.EnqueuedAt, &j.StartedAt, &j.FinishedAt, &j.AttemptCount, &j.LastError)
	if err == sql.ErrNoRows {
		return Job{}, ErrJobNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("scan job: %w", err)
	}
	j.Type, j.Priority, j.Status = JobType(typ), JobPriority(priority), JobStatus(status)
	return j, nil
}

// PendingJobsByPriority returns all pending jobs of the given priority,
// FIFO-ordered by enqueue time. Used at startup and by the queue's
// in-process channels to rehydrate from the durable table.
func (s *Store) PendingJobsByPriority(priority JobPriority) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, type, payload, priority, status, enqueued_at, started_at, finished_at, attempt_count, last_error
		FROM jobs WHERE status=? AND priority=? ORDER BY enqueued_at ASC`, JobPending, priority)
	if err != nil {
		return nil, fmt.Errorf("query pending jobs: %w", err)
	}
	defer rows.Close()
	return scanJobRows(rows)
}

// RecoverRunningJobs rewrites every job left 'running' at crash time back to
// 'pending' with an incremented attempt count -- Testable Property 3.
func (s *Store) RecoverRunningJobs() ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, type, payload, priority, status, enqueued_at, started_at, finished_at, attempt_count, last_error FROM jobs WHERE status=?`, JobRunning)
	if err != nil {
		return nil, fmt.Errorf("query running jobs: %w", err)
	}
	running, err := scanJobRows(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	var recovered []Job
	for _, j := range running {
		if _, err := s.db.Exec(`UPDATE jobs SET status=?, attempt_count=attempt_count+1, started_at=NULL WHERE id=?`, JobPending, j.ID); err != nil {
			return nil, fmt.Errorf("recover job %s: %w", j.ID, err)
		}
		j.Status = JobPending
		j.AttemptCount++
		recovered = append(recovered, j)
	}
	return recovered, nil
}

// RecentJobs returns up to limit most-recently-finished jobs.
func (s *Store) RecentJobs(limit int) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, type, payload, priority, status, enqueued_at, started_at, finished_at, attempt_count, last_error
		FROM jobs WHERE status IN ('succeeded','failed','cancelled') ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent jobs: %w", err)
	}
	defer rows.Close()
	return scanJobRows(rows)
}

// JobStats summarizes queue state for stats().
type JobStats struct {
	Pending       int
	Running       int
	SucceededTotal int
	FailedTotal   int
	ByType        map[string]int
}

// JobStatsSummary computes the queue stats rollup.
func (s *Store) JobStatsSummary() (JobStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats JobStats
	stats.ByType = make(map[string]int)

	row := s.db.QueryRow(`SELECT
		SUM(CASE WHEN status='pending' THEN 1 ELSE 0 END),
		SUM(CASE WHEN status='running' THEN 1 ELSE 0 END),
		SUM(CASE WHEN status='succeeded' THEN 1 ELSE 0 END),
		SUM(CASE WHEN status='failed' THEN 1 ELSE 0 END)
		FROM jobs`)
	var pending, running, succeeded, failed sql.NullInt64
	if err := row.Scan(&pending, &running, &succeeded, &failed); err != nil {
		return JobStats{}, fmt.Errorf("scan job stats: %w", err)
	}
	stats.Pending, stats.Running = int(pending.Int64), int(running.Int64)
	stats.SucceededTotal, stats.FailedTotal = int(succeeded.Int64), int(failed.Int64)

	rows, err := s.db.Query(`SELECT type, COUNT(*) FROM jobs GROUP BY type`)
	if err != nil {
		return JobStats{}, fmt.Errorf("query job types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return JobStats{}, err
		}
		stats.ByType[typ] = count
	}
	return stats, rows.Err()
}

func scanJobRows(rows *sql.Rows) ([]Job, error) {
	var out []Job
	for rows.Next() {
		var j Job
		var typ, priority, status string
		if err := rows.Scan(&j.ID, &typ, &j.Payload, &priority, &status, &j.EnqueuedAt, &j.StartedAt, &j.FinishedAt, &j.AttemptCount, &j.LastError); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		j.Type, j.Priority, j.Status = JobType(typ), JobPriority(priority), JobStatus(status)
		out = append(out, j)
	}
	return out, rows.Err()
}
