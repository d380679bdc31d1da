package correlation

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/excavator/excavator/internal/catalog"
)

const relationshipMinCoFiles = 2

// RelationshipPayload is the JSON payload stored on a relationship Pattern.
type RelationshipPayload struct {
	EntityA string `json:"entity_a"`
	EntityB string `json:"entity_b"`
	Files   int    `json:"co_occurring_files"`
}

// DetectRelationship asserts entity_type/co_occurs facts into a small
// embedded Mangle program and reads back candidate_relationship(A, B): pairs
// where one side is a PERSON and the other an ORG or PROJECT, observed
// together in at least relationshipMinCoFiles distinct files. This is the
// one detector that benefits from Datalog's declarative joins -- the other
// three are simple enough as plain Go.
func DetectRelationship(ctx context.Context, entities []catalog.ConsolidatedEntity, matrix CoOccurrenceMatrix, now time.Time) ([]catalog.Pattern, error) {
	engine, err := newDatalogEngine()
	if err != nil {
		return nil, err
	}
	defer engine.close()

	byID := make(map[string]catalog.ConsolidatedEntity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
		if err := engine.addFact("entity_type", e.ID, string(e.Type)); err != nil {
			return nil, err
		}
	}
	for pair, count := range matrix.Counts {
		if count < relationshipMinCoFiles {
			continue
		}
		if err := engine.addFact("co_occurs", pair.A, pair.B, count); err != nil {
			return nil, err
		}
		// Pair keys are ordered by id, not by type; asserting both directions
		// lets the PERSON-first rules match whichever side holds the PERSON.
		if err := engine.addFact("co_occurs", pair.B, pair.A, count); err != nil {
			return nil, err
		}
	}
	if err := engine.evaluate(); err != nil {
		return nil, err
	}
	pairs, err := engine.candidateRelationships(ctx)
	if err != nil {
		return nil, err
	}

	var patterns []catalog.Pattern
	for _, pr := range pairs {
		a, okA := byID[pr[0]]
		b, okB := byID[pr[1]]
		if !okA || !okB {
			continue
		}
		key := PairKey{A: pr[0], B: pr[1]}
		if key.A > key.B {
			key.A, key.B = key.B, key.A
		}
		sourceFiles := append([]string(nil), matrix.Files[key]...)
		sort.Strings(sourceFiles)
		if len(sourceFiles) < minDiscoverySources {
			continue
		}

		payload, err := json.Marshal(RelationshipPayload{EntityA: a.ID, EntityB: b.ID, Files: len(sourceFiles)})
		if err != nil {
			return nil, err
		}
		first, last := earliestLatest(a, b)
		patterns = append(patterns, catalog.Pattern{
			ID:          deterministicID("relationship", a.ID, b.ID),
			Type:        catalog.PatternRelationship,
			Payload:     payload,
			Confidence:  Confidence(matrix.Counts[key], len(sourceFiles), first, last, now),
			SourceFiles: sourceFiles,
		})
	}
	return patterns, nil
}

func earliestLatest(a, b catalog.ConsolidatedEntity) (time.Time, time.Time) {
	first := a.FirstSeen
	if b.FirstSeen.Before(first) {
		first = b.FirstSeen
	}
	last := a.LastSeen
	if b.LastSeen.After(last) {
		last = b.LastSeen
	}
	return first, last
}
