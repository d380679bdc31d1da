package correlation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/operation"
)

func seedFile(t *testing.T, store *catalog.Store, path string) catalog.FileRecord {
	t.Helper()
	f, err := store.UpsertFile(catalog.FileRecord{
		ID:        uuid.NewString(),
		Path:      path,
		Extension: ".md",
		Status:    catalog.FileIndexed,
		ModTime:   time.Now(),
	})
	require.NoError(t, err)
	return f
}

func seedChunkAndOccurrence(t *testing.T, store *catalog.Store, fileID, surface string, typ catalog.EntityType) {
	t.Helper()
	chunk := catalog.ChunkRecord{ID: uuid.NewString(), FileID: fileID, Ordinal: 0, Text: surface, Kind: catalog.ChunkProse}
	require.NoError(t, store.InsertChunk(chunk))
	require.NoError(t, store.InsertEntityOccurrences([]catalog.EntityOccurrence{{
		ID:             uuid.NewString(),
		SurfaceForm:    surface,
		NormalizedForm: normalizeSurfaceForm(surface),
		Type:           typ,
		ChunkID:        chunk.ID,
		FileID:         fileID,
		Confidence:     0.9,
	}}))
}

func TestRunProducesConsolidatedEntitiesAndClearsTracker(t *testing.T) {
	store := newTestStore(t)
	f1 := seedFile(t, store, "/a/2024-01-01-standup.md")
	f2 := seedFile(t, store, "/a/2024-01-08-standup.md")
	f3 := seedFile(t, store, "/a/2024-01-15-standup.md")

	for _, f := range []catalog.FileRecord{f1, f2, f3} {
		seedChunkAndOccurrence(t, store, f.ID, "Jane Doe", catalog.EntityPerson)
		seedChunkAndOccurrence(t, store, f.ID, "Acme Corp", catalog.EntityOrg)
	}

	tracker := operation.New()
	result, err := Run(context.Background(), store, tracker)
	require.NoError(t, err)
	assert.Equal(t, 2, result.EntitiesConsolidated)

	_, running := tracker.Current()
	assert.False(t, running, "tracker must be idle once Run returns")
}
