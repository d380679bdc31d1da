package correlation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excavator/excavator/internal/catalog"
)

func TestBuildCoOccurrenceMatrixCountsSharedFiles(t *testing.T) {
	now := time.Now()
	occs := []catalog.EntityOccurrence{
		{ID: "o1", FileID: "f1"},
		{ID: "o2", FileID: "f1"},
		{ID: "o3", FileID: "f2"},
		{ID: "o4", FileID: "f2"},
	}
	mapping := map[string]string{"o1": "a", "o2": "b", "o3": "a", "o4": "b"}
	entities := []catalog.ConsolidatedEntity{
		{ID: "a", OccurrenceCount: 2, LastSeen: now},
		{ID: "b", OccurrenceCount: 2, LastSeen: now},
	}

	matrix := BuildCoOccurrenceMatrix(occs, entities, mapping)
	require.Contains(t, matrix.Counts, PairKey{A: "a", B: "b"})
	assert.Equal(t, 2, matrix.Counts[PairKey{A: "a", B: "b"}])
	assert.ElementsMatch(t, []string{"f1", "f2"}, matrix.Files[PairKey{A: "a", B: "b"}])
}

func TestPairsForFileIsDeterministicForSameFileID(t *testing.T) {
	ids := make([]string, 40)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	p1 := pairsForFile("file-123", ids)
	p2 := pairsForFile("file-123", ids)
	require.Equal(t, p1, p2, "same file id must sample the same pairs every run")
	assert.LessOrEqual(t, len(p1), maxPairsPerFile)
}

func TestPairsForFileDiffersAcrossFileIDs(t *testing.T) {
	ids := make([]string, 40)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	p1 := pairsForFile("file-a", ids)
	p2 := pairsForFile("file-b", ids)
	assert.NotEqual(t, p1, p2)
}

func TestTopEntitiesByFrequencyKeepsAllWhenUnderCap(t *testing.T) {
	entities := []catalog.ConsolidatedEntity{{ID: "a"}, {ID: "b"}}
	kept := topEntitiesByFrequency(entities)
	assert.Len(t, kept, 2)
}
