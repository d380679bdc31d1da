package controlplane

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/operation"
	"github.com/excavator/excavator/internal/queue"
)

func newTestServer(t *testing.T) (*Server, *catalog.Store, *queue.Queue) {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "c.db"), "5s")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	q, err := queue.New(store, 3, 64, 64)
	require.NoError(t, err)

	tracker := operation.New()
	telemetry := operation.NewTelemetry(tracker, nil)

	deps := Deps{
		Catalog:   store,
		Queue:     q,
		Tracker:   tracker,
		Telemetry: telemetry,
		RunCorrelate: func(ctx context.Context) (CorrelationSummary, error) {
			return CorrelationSummary{}, nil
		},
	}
	s := New("127.0.0.1:0", deps)
	return s, store, q
}

func TestHealthReturnsHealthyRegardlessOfReadiness(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
}

func TestReadinessReflectsFlag(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/readiness", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	var body readinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Ready)
	assert.Equal(t, "startup_in_progress", body.Reason)

	s.SetReady(true)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Ready)
}

func TestHealthStaysFastDuringCorrelation(t *testing.T) {
	s, _, _ := newTestServer(t)
	s.deps.Tracker.Start(operation.KindCorrelation, operation.CorrelationDetails{Stage: "detect"})
	defer s.deps.Tracker.Finish()

	start := time.Now()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	elapsed := time.Since(start)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Less(t, elapsed, time.Second, "health must answer within 1s even mid-correlation")
}

func TestFeedbackConfirmLocksDiscovery(t *testing.T) {
	s, store, _ := newTestServer(t)
	require.NoError(t, store.ReplacePatterns([]catalog.Pattern{
		{ID: "p1", Type: catalog.PatternWorkflow, Confidence: 0.9, SourceFiles: []string{"a", "b"}},
	}))
	require.NoError(t, store.InsertDiscovery(catalog.Discovery{
		ID: "d1", PatternID: "p1", Title: "t", Confidence: 0.9, Status: catalog.DiscoveryNew,
	}))

	body, _ := json.Marshal(feedbackRequest{Action: "confirm"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/discoveries/d1/feedback", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	d, err := store.GetDiscovery("d1")
	require.NoError(t, err)
	assert.Equal(t, catalog.DiscoveryConfirmed, d.Status)
}

func TestExcavateEnqueuesBatchExtraction(t *testing.T) {
	s, _, q := newTestServer(t)
	body, _ := json.Marshal(excavateRequest{Paths: []string{"/a", "/b"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/excavate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	job, err := q.ClaimNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, catalog.JobBatchExtraction, job.Type)
}

func TestCorrelateRunReturnsConflictWhileAlreadyRunning(t *testing.T) {
	s, _, _ := newTestServer(t)
	s.deps.Tracker.Start(operation.KindCorrelation, operation.CorrelationDetails{Stage: "consolidate"})
	defer s.deps.Tracker.Finish()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/correlate/run", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestShutdownTriggersCallbackAndDrainsNewRequests(t *testing.T) {
	s, _, _ := newTestServer(t)
	called := make(chan struct{}, 1)
	s.deps.RequestShutdown = func() { called <- struct{}{} }

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shutdown", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("shutdown callback never invoked")
	}

	s.shuttingDown.Store(true)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "health keeps answering through drain")
}

func TestFileNotFoundReturns404(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/file/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
