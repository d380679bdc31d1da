package correlation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceIncreasesWithEvidenceAndDiversity(t *testing.T) {
	now := time.Now()
	low := Confidence(1, 1, now.Add(-time.Hour), now, now)
	high := Confidence(20, 8, now.Add(-90*24*time.Hour), now, now)
	assert.Less(t, low, high)
}

func TestConfidenceIsBounded(t *testing.T) {
	now := time.Now()
	c := Confidence(10000, 10000, now.Add(-365*24*time.Hour), now, now)
	assert.LessOrEqual(t, c, 1.0)
	assert.GreaterOrEqual(t, c, 0.0)
}

func TestConfidenceDecaysWithStaleRecency(t *testing.T) {
	now := time.Now()
	fresh := Confidence(5, 3, now.Add(-10*24*time.Hour), now, now)
	stale := Confidence(5, 3, now.Add(-10*24*time.Hour), now.Add(-60*24*time.Hour), now)
	assert.Greater(t, fresh, stale)
}

// TestConfidenceMatchesSpecFormula pins a known input to the exact value
// spec.md's formula produces, so a future change to the weights or the
// normalization constants (evidence=log10(count+1)/2, diversity=sources/5,
// time_span=span_days/365, recency=1-days_since_last_seen/180) gets caught
// even though the other tests here only check monotonicity and bounds.
func TestConfidenceMatchesSpecFormula(t *testing.T) {
	now := time.Now()
	firstSeen := now.Add(-365 * 24 * time.Hour)
	lastSeen := now

	// count=9 -> evidence = log10(10)/2 = 0.5 exactly.
	// distinctSources=5 -> diversity = min(1, 5/5) = 1.0.
	// span=365d -> time_span = min(1, 365/365) = 1.0.
	// lastSeen=now -> recency = 1.0.
	got := Confidence(9, 5, firstSeen, lastSeen, now)
	want := 0.35*0.5 + 0.25*1.0 + 0.20*1.0 + 0.20*1.0
	assert.InDelta(t, want, got, 1e-9)

	// evidenceScore itself: count=99 -> log10(100)/2 = 1.0 exactly (the
	// saturation point), count=999 stays capped at 1.0.
	assert.InDelta(t, 1.0, evidenceScore(99), 1e-9)
	assert.InDelta(t, 1.0, evidenceScore(999), 1e-9)
	assert.InDelta(t, math.Log10(2)/2, evidenceScore(1), 1e-9)

	// recencyScore: 90 days stale out of a 180-day ceiling -> 0.5 exactly.
	assert.InDelta(t, 0.5, recencyScore(now.Add(-90*24*time.Hour), now), 1e-9)
	assert.InDelta(t, 0.0, recencyScore(now.Add(-180*24*time.Hour), now), 1e-9)
	assert.InDelta(t, 0.0, recencyScore(now.Add(-365*24*time.Hour), now), 1e-9)
}
