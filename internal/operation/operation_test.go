package operation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerStartCurrentFinish(t *testing.T) {
	tr := New()
	_, ok := tr.Current()
	assert.False(t, ok, "tracker should start idle")

	tr.Start(KindExtraction, ExtractionDetails{FilesTotal: 10})
	cur, ok := tr.Current()
	require.True(t, ok)
	assert.Equal(t, KindExtraction, cur.Kind)

	tr.Update(ExtractionDetails{FilesTotal: 10, FilesProcessed: 5})
	cur, ok = tr.Current()
	require.True(t, ok)
	details, ok := cur.Details.(ExtractionDetails)
	require.True(t, ok)
	assert.Equal(t, 5, details.FilesProcessed)

	tr.Finish()
	_, ok = tr.Current()
	assert.False(t, ok, "tracker should go idle after Finish")
}

func TestTrackerETAAveragesHistory(t *testing.T) {
	tr := New()
	assert.Equal(t, time.Duration(0), tr.ETA(KindCorrelation), "no history yet")

	tr.history[KindCorrelation].add(10 * time.Second)
	tr.history[KindCorrelation].add(20 * time.Second)
	assert.Equal(t, 15*time.Second, tr.ETA(KindCorrelation))
}

func TestEncodeEventProducesValidJSON(t *testing.T) {
	tr := New()
	tr.Start(KindCorrelation, CorrelationDetails{Stage: "consolidate"})
	tel := NewTelemetry(tr, nil)

	snap := tel.Snapshot(3, map[string]int{"PERSON": 5}, map[string]int{"expertise": 1}, StorageSizes{CatalogBytes: 100})
	raw := EncodeEvent(snap)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "correlation", decoded["current_kind"])
	assert.False(t, decoded["gpu_available"].(bool))
}
