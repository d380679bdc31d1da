package correlation

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excavator/excavator/internal/catalog"
)

func newTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "c.db"), "5s")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSurfacePromotesQualifyingPatterns(t *testing.T) {
	store := newTestStore(t)
	patterns := []catalog.Pattern{
		{ID: "p1", Type: catalog.PatternWorkflow, Confidence: 0.8, SourceFiles: []string{"a", "b"}},
		{ID: "p2", Type: catalog.PatternWorkflow, Confidence: 0.5, SourceFiles: []string{"a", "b"}}, // below threshold
		{ID: "p3", Type: catalog.PatternWorkflow, Confidence: 0.9, SourceFiles: []string{"a"}},      // too few sources
	}
	require.NoError(t, store.ReplacePatterns(patterns))
	require.NoError(t, Surface(store, patterns))

	discoveries, err := store.IterDiscoveries()
	require.NoError(t, err)
	require.Len(t, discoveries, 1)
	assert.Equal(t, "p1", discoveries[0].PatternID)
}

func TestSurfaceSupersedesPatternsNotRedetected(t *testing.T) {
	store := newTestStore(t)
	first := []catalog.Pattern{{ID: "p1", Type: catalog.PatternWorkflow, Confidence: 0.8, SourceFiles: []string{"a", "b"}}}
	require.NoError(t, store.ReplacePatterns(first))
	require.NoError(t, Surface(store, first))

	require.NoError(t, store.ReplacePatterns(nil))
	require.NoError(t, Surface(store, nil))

	d, err := store.GetDiscovery(mustDiscoveryID(t, store, "p1"))
	require.NoError(t, err)
	assert.Equal(t, catalog.DiscoverySuperseded, d.Status)
}

func mustDiscoveryID(t *testing.T, store *catalog.Store, patternID string) string {
	t.Helper()
	discoveries, err := store.IterDiscoveries()
	require.NoError(t, err)
	for _, d := range discoveries {
		if d.PatternID == patternID {
			return d.ID
		}
	}
	t.Fatalf("no discovery found for pattern %s", patternID)
	return ""
}
