package queue

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excavator/excavator/internal/catalog"
)

func newTestQueue(t *testing.T) (*Queue, *catalog.Store) {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "q.db"), "5s")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	q, err := New(store, 3, 256, 64)
	require.NoError(t, err)
	return q, store
}

func TestEnqueueAndClaimSingleInFlight(t *testing.T) {
	q, _ := newTestQueue(t)
	id, err := q.Enqueue(catalog.JobFileExtraction, "{}", PriorityNormal)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	job, err := q.ClaimNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, catalog.JobRunning, job.Status)

	_, ok := q.Current()
	assert.True(t, ok)

	_, err = q.ClaimNext(context.Background())
	assert.ErrorIs(t, err, catalog.ErrNoJobAvailable, "only one job was enqueued, second claim must be empty")
}

func TestPriorityOrdering(t *testing.T) {
	q, _ := newTestQueue(t)
	_, err := q.Enqueue(catalog.JobBatchExtraction, "{}", PriorityLow)
	require.NoError(t, err)
	highID, err := q.Enqueue(catalog.JobFileExtraction, "{}", PriorityHigh)
	require.NoError(t, err)

	job, err := q.ClaimNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, highID, job.ID, "high priority job must be claimed before low priority")
}

func TestCompleteUpdatesRecent(t *testing.T) {
	q, _ := newTestQueue(t)
	id, err := q.Enqueue(catalog.JobFileExtraction, "{}", PriorityNormal)
	require.NoError(t, err)
	_, err = q.ClaimNext(context.Background())
	require.NoError(t, err)

	require.NoError(t, q.Complete(id, catalog.JobSucceeded, ""))
	_, ok := q.Current()
	assert.False(t, ok)

	recent := q.Recent(10)
	require.Len(t, recent, 1)
	assert.Equal(t, id, recent[0].ID)
}

func TestRecoveryRehydratesPendingChannel(t *testing.T) {
	store, err := catalog.Open(filepath.Join(t.TempDir(), "q2.db"), "5s")
	require.NoError(t, err)
	defer store.Close()

	q1, err := New(store, 3, 256, 64)
	require.NoError(t, err)
	id, err := q1.Enqueue(catalog.JobFileExtraction, "{}", PriorityNormal)
	require.NoError(t, err)
	_, err = q1.ClaimNext(context.Background())
	require.NoError(t, err)
	// Simulate a crash: job stays 'running' in the catalog, no Complete call.

	q2, err := New(store, 3, 256, 64)
	require.NoError(t, err)
	job, err := q2.ClaimNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, 1, job.AttemptCount, "recovered job must have its attempt count incremented")
}

func TestExceedsRetryCeiling(t *testing.T) {
	q, _ := newTestQueue(t)
	assert.False(t, q.ExceedsRetryCeiling(3))
	assert.True(t, q.ExceedsRetryCeiling(4))
}
