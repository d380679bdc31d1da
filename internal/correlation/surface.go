package correlation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/logging"
)

const (
	minDiscoveryConfidence = 0.7
	minDiscoverySources    = 2
)

// Surface promotes the patterns from one correlation run into Discoveries,
// applying the min_confidence/min_sources thresholds, then supersedes any
// previously-surfaced Discovery whose backing pattern was not re-detected
// this run. Discoveries a user has confirmed or dismissed are left alone --
// ApplyFeedback already locks them against this, so a stale pattern behind a
// confirmed Discovery doesn't silently erase the user's judgment.
func Surface(store *catalog.Store, patterns []catalog.Pattern) error {
	existing, err := store.IterDiscoveries()
	if err != nil {
		return fmt.Errorf("list existing discoveries: %w", err)
	}
	byPattern := make(map[string]catalog.Discovery, len(existing))
	for _, d := range existing {
		byPattern[d.PatternID] = d
	}

	keep := make(map[string]bool)
	promoted := 0
	for _, p := range patterns {
		if p.Confidence < minDiscoveryConfidence || len(p.SourceFiles) < minDiscoverySources {
			continue
		}
		keep[p.ID] = true
		if _, ok := byPattern[p.ID]; ok {
			// Same pattern id re-detected this run -- already surfaced (or
			// already judged by the user), nothing to do.
			continue
		}
		d := catalog.Discovery{
			ID:         uuid.NewString(),
			PatternID:  p.ID,
			Title:      discoveryTitle(p),
			Confidence: p.Confidence,
		}
		if err := store.InsertDiscovery(d); err != nil {
			return fmt.Errorf("insert discovery for pattern %s: %w", p.ID, err)
		}
		promoted++
	}

	if err := store.SupersedeStaleDiscoveries(keep); err != nil {
		return fmt.Errorf("supersede stale discoveries: %w", err)
	}
	if promoted > 0 {
		logging.Correlation("surfaced %d new discoveries", promoted)
	}
	return nil
}

func discoveryTitle(p catalog.Pattern) string {
	switch p.Type {
	case catalog.PatternExpertise:
		return "Expertise pattern detected"
	case catalog.PatternRelationship:
		return "Relationship pattern detected"
	case catalog.PatternWorkflow:
		return "Workflow pattern detected"
	case catalog.PatternTechStack:
		return "Tech-stack pattern detected"
	default:
		return "Pattern detected"
	}
}
