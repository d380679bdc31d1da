package operation

import (
	"bytes"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// ProcessStats is the process-wide resource snapshot. GPU fields are left
// zero-valued with Available=false when no probe is configured -- absence
// is reported, never treated as an error.
type ProcessStats struct {
	CPUPercent    float64
	ResidentBytes uint64
	GPU           GPUStats
}

// GPUStats reports GPU utilization via an external probe tool. Available is
// false whenever no probe binary is configured or the probe failed to run.
type GPUStats struct {
	Available     bool
	UtilPercent   float64
	VRAMUsedBytes uint64
}

// GPUProbe queries GPU utilization. Telemetry works with a nil probe, in
// which case it always reports GPU unavailable; the daemon builds its
// Telemetry with a nil probe.
type GPUProbe func() (GPUStats, error)

// StorageSizes reports on-disk footprint of the persisted state.
type StorageSizes struct {
	CatalogBytes int64
	VectorBytes  int64
	LogBytes     int64
}

// Snapshot is the full /telemetry payload (spec.md §4.7): process stats,
// rolled-up counters, and the currently running operation if any.
type Snapshot struct {
	Process            ProcessStats
	PatternsDetected   int
	EntitiesByType     map[string]int
	DiscoveriesByType  map[string]int
	Current            *Descriptor
	CurrentETA         time.Duration
	Storage            StorageSizes
	UptimeSeconds      float64
}

// Telemetry assembles a Snapshot and encodes it with zerolog's event
// builder, matching the structured-JSON-event style cuemby-warren's
// health/metrics surfaces use; the event is written to an in-memory buffer
// whose bytes (one JSON object) the control plane writes directly as the
// response body.
type Telemetry struct {
	tracker   *Tracker
	startedAt time.Time
	gpuProbe  GPUProbe
}

// NewTelemetry builds a Telemetry assembler backed by tracker. gpuProbe may
// be nil.
func NewTelemetry(tracker *Tracker, gpuProbe GPUProbe) *Telemetry {
	return &Telemetry{tracker: tracker, startedAt: time.Now(), gpuProbe: gpuProbe}
}

// Snapshot gathers process stats, the tracker's current operation, and the
// caller-supplied counters into one Snapshot.
func (t *Telemetry) Snapshot(patternsDetected int, entitiesByType, discoveriesByType map[string]int, storage StorageSizes) Snapshot {
	snap := Snapshot{
		Process:           t.processStats(),
		PatternsDetected:  patternsDetected,
		EntitiesByType:    entitiesByType,
		DiscoveriesByType: discoveriesByType,
		Storage:           storage,
		UptimeSeconds:     time.Since(t.startedAt).Seconds(),
	}
	if cur, ok := t.tracker.Current(); ok {
		snap.Current = cur
		snap.CurrentETA = t.tracker.ETA(cur.Kind)
	}
	return snap
}

func (t *Telemetry) processStats() ProcessStats {
	stats := ProcessStats{ResidentBytes: residentSetSize()}
	if t.gpuProbe != nil {
		if gpu, err := t.gpuProbe(); err == nil {
			stats.GPU = gpu
		}
	}
	return stats
}

// residentSetSize reports the total memory the Go runtime has obtained from
// the OS (MemStats.Sys) as a lightweight stand-in for
// RSS -- a full OS-level RSS reading needs a platform-specific syscall the
// correlation/telemetry path has no other reason to carry.
func residentSetSize() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Sys
}

// EncodeEvent renders snap through a zerolog event into fields, the same
// event-builder style the telemetry domain stack is grounded on, returning
// the rendered JSON bytes for the control plane to write directly as the
// HTTP response body.
func EncodeEvent(snap Snapshot) []byte {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	event := logger.Log().
		Float64("cpu_percent", snap.Process.CPUPercent).
		Uint64("resident_bytes", snap.Process.ResidentBytes).
		Bool("gpu_available", snap.Process.GPU.Available).
		Float64("gpu_util_percent", snap.Process.GPU.UtilPercent).
		Uint64("gpu_vram_used_bytes", snap.Process.GPU.VRAMUsedBytes).
		Int("patterns_detected", snap.PatternsDetected).
		Interface("entities_by_type", snap.EntitiesByType).
		Interface("discoveries_by_type", snap.DiscoveriesByType).
		Int64("catalog_bytes", snap.Storage.CatalogBytes).
		Int64("vector_bytes", snap.Storage.VectorBytes).
		Int64("log_bytes", snap.Storage.LogBytes).
		Float64("uptime_seconds", snap.UptimeSeconds)
	if snap.Current != nil {
		event = event.
			Str("current_kind", string(snap.Current.Kind)).
			Time("current_started_at", snap.Current.StartedAt).
			Interface("current_details", snap.Current.Details).
			Float64("current_eta_seconds", snap.CurrentETA.Seconds())
	}
	event.Send()
	return buf.Bytes()
}
