package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(path, "5s")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedFile(t *testing.T, s *Store, path string) FileRecord {
	t.Helper()
	f, err := s.UpsertFile(FileRecord{ID: "file-" + path, Path: path, Extension: ".md", Status: FileDiscovered, ModTime: time.Now()})
	require.NoError(t, err)
	return f
}

func TestUpsertFileInsertThenUpdate(t *testing.T) {
	s := newTestStore(t)
	f := seedFile(t, s, "a.md")
	assert.Equal(t, FileDiscovered, f.Status)

	f.Status = FileIndexed
	f.Size = 100
	updated, err := s.UpsertFile(f)
	require.NoError(t, err)
	assert.Equal(t, f.ID, updated.ID)
	assert.Equal(t, FileIndexed, updated.Status)

	again, err := s.GetFileByPath("a.md")
	require.NoError(t, err)
	assert.Equal(t, int64(100), again.Size)
}

func TestInsertChunkRejectsOrphan(t *testing.T) {
	s := newTestStore(t)
	err := s.InsertChunk(ChunkRecord{ID: "c1", FileID: "does-not-exist", Text: "hi", Kind: ChunkProse})
	assert.ErrorIs(t, err, ErrOrphanChunk)
}

func TestInsertChunkAndIter(t *testing.T) {
	s := newTestStore(t)
	f := seedFile(t, s, "a.md")
	require.NoError(t, s.InsertChunk(ChunkRecord{ID: "c1", FileID: f.ID, Ordinal: 0, Text: "first", Kind: ChunkProse}))
	require.NoError(t, s.InsertChunk(ChunkRecord{ID: "c2", FileID: f.ID, Ordinal: 1, Text: "second", Kind: ChunkProse}))

	chunks, err := s.IterChunks(f.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "first", chunks[0].Text)
}

func TestInsertEntityOccurrencesRejectsOrphan(t *testing.T) {
	s := newTestStore(t)
	err := s.InsertEntityOccurrences([]EntityOccurrence{{ID: "e1", ChunkID: "missing", Type: EntityPerson}})
	assert.ErrorIs(t, err, ErrOrphanOccurrence)
}

func TestJobLifecycleAndRecovery(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertJob(Job{ID: "j1", Type: JobFileExtraction, Payload: "{}", Priority: PriorityNormal, EnqueuedAt: time.Now()}))
	require.NoError(t, s.MarkRunning("j1"))

	recovered, err := s.RecoverRunningJobs()
	require.NoError(t, err)
	require.Len(t, recovered, 1)
	assert.Equal(t, JobPending, recovered[0].Status)
	assert.Equal(t, 1, recovered[0].AttemptCount)

	j, err := s.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, JobPending, j.Status)
}

func TestCompleteJobAndStats(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertJob(Job{ID: "j1", Type: JobFileExtraction, Payload: "{}", EnqueuedAt: time.Now()}))
	require.NoError(t, s.CompleteJob("j1", JobSucceeded, ""))

	stats, err := s.JobStatsSummary()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SucceededTotal)

	recent, err := s.RecentJobs(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "j1", recent[0].ID)
}

func TestDiscoveryFeedbackStickiness(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ReplacePatterns([]Pattern{{ID: "p1", Type: PatternWorkflow, Confidence: 0.8, SourceFiles: []string{"a.md", "b.md"}}}))
	require.NoError(t, s.InsertDiscovery(Discovery{ID: "d1", PatternID: "p1", Title: "test", Confidence: 0.8}))
	require.NoError(t, s.ApplyFeedback("d1", "confirm", "looks right"))

	require.NoError(t, s.SupersedeStaleDiscoveries(map[string]bool{}))

	d, err := s.GetDiscovery("d1")
	require.NoError(t, err)
	assert.Equal(t, DiscoveryConfirmed, d.Status, "confirmed discoveries must resist supersession")
}

func TestSupersedeStaleDiscoveriesLeavesNewlyKept(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ReplacePatterns([]Pattern{{ID: "p1", Confidence: 0.8, SourceFiles: []string{"a.md"}}}))
	require.NoError(t, s.InsertDiscovery(Discovery{ID: "d1", PatternID: "p1", Title: "t", Confidence: 0.8}))

	require.NoError(t, s.SupersedeStaleDiscoveries(map[string]bool{"p1": true}))
	d, err := s.GetDiscovery("d1")
	require.NoError(t, err)
	assert.Equal(t, DiscoveryNew, d.Status)

	require.NoError(t, s.SupersedeStaleDiscoveries(map[string]bool{}))
	d, err = s.GetDiscovery("d1")
	require.NoError(t, err)
	assert.Equal(t, DiscoverySuperseded, d.Status)
}

func TestGetStatsRollup(t *testing.T) {
	s := newTestStore(t)
	f := seedFile(t, s, "a.md")
	require.NoError(t, s.InsertChunk(ChunkRecord{ID: "c1", FileID: f.ID, Text: "x"}))
	require.NoError(t, s.InsertEntityOccurrences([]EntityOccurrence{{ID: "e1", ChunkID: "c1", FileID: f.ID, Type: EntityTech, NormalizedForm: "go"}}))

	stats, err := s.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 1, stats.EntitiesByType["TECH"])
}
