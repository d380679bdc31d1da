package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/logging"
	"github.com/excavator/excavator/internal/queue"
)

// Worker claims jobs from the queue one at a time and runs them through the
// Pipeline, enforcing the single-in-flight-job contract via ClaimNext.
type Worker struct {
	q        *queue.Queue
	pipeline *Pipeline
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWorker builds a Worker.
func NewWorker(q *queue.Queue, pipeline *Pipeline) *Worker {
	return &Worker{q: q, pipeline: pipeline, stopCh: make(chan struct{}), doneCh: make(chan struct{})}
}

// Start runs the claim loop in a background goroutine.
func (w *Worker) Start() {
	go w.run()
}

// Stop signals the claim loop to exit and waits for it to finish the job
// currently in flight, if any.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

func (w *Worker) run() {
	defer close(w.doneCh)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.claimAndRun()
		}
	}
}

func (w *Worker) claimAndRun() {
	job, err := w.q.ClaimNext(context.Background())
	if err != nil {
		if err != catalog.ErrNoJobAvailable {
			logging.PipelineError("claim next job: %v", err)
		}
		return
	}

	err = w.runJob(context.Background(), job)
	status := catalog.JobSucceeded
	errMsg := ""
	if err != nil {
		logging.PipelineError("job %s (%s) failed: %v", job.ID, job.Type, err)
		status = catalog.JobFailed
		errMsg = err.Error()
	}
	if completeErr := w.q.Complete(job.ID, status, errMsg); completeErr != nil {
		logging.PipelineError("failed to complete job %s: %v", job.ID, completeErr)
	}
}

func (w *Worker) runJob(ctx context.Context, job catalog.Job) error {
	switch job.Type {
	case catalog.JobFileExtraction:
		return w.pipeline.ProcessFile(ctx, job.Payload)
	case catalog.JobBatchExtraction:
		var paths []string
		if err := json.Unmarshal([]byte(job.Payload), &paths); err != nil {
			return fmt.Errorf("decode batch extraction payload: %w", err)
		}
		for _, path := range paths {
			if err := w.pipeline.ProcessFile(ctx, path); err != nil {
				return fmt.Errorf("batch extraction of %s: %w", path, err)
			}
		}
		return nil
	case catalog.JobFAEImport:
		return w.pipeline.ProcessFAEImport(ctx, job.Payload)
	default:
		return fmt.Errorf("pipeline: no handler registered for job type %q (correlation/transcribe/vision jobs are handled by their own runners)", job.Type)
	}
}
