// Package correlation implements the four-stage correlation engine: entity
// consolidation, bounded co-occurrence, pattern detection, and discovery
// surfacing (spec.md §4.6).
package correlation

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/logging"
	"github.com/excavator/excavator/internal/operation"
)

// Result summarizes one completed correlation run.
type Result struct {
	EntitiesConsolidated int
	PatternsDetected     int
	DiscoveriesSurfaced  int
}

// Run executes one full correlation pass: consolidate entities, build the
// bounded co-occurrence matrix, run the four pattern detectors, and surface
// discoveries -- in that order, since each stage consumes the previous
// stage's output. Detectors that don't depend on each other's output run
// concurrently within the detect stage via errgroup, so the wall-clock cost
// of four detectors is close to the slowest one, not their sum.
//
// tracker is updated at each stage transition so a concurrent /status or
// /telemetry read always sees an accurate "stage" tag rather than a stale
// one (Testable Property 8 / scenario S4): Run never holds a lock across a
// stage boundary that would make the tracker update wait.
func Run(ctx context.Context, store *catalog.Store, tracker *operation.Tracker) (Result, error) {
	tracker.Start(operation.KindCorrelation, operation.CorrelationDetails{Stage: "consolidate"})
	defer tracker.Finish()

	now := time.Now()

	occs, err := store.IterEntityOccurrences()
	if err != nil {
		return Result{}, fmt.Errorf("load entity occurrences: %w", err)
	}
	consolidation := Consolidate(occs)
	if err := store.ReplaceConsolidatedEntities(consolidation.Entities, consolidation.Mapping, consolidation.AliasJSON); err != nil {
		return Result{}, fmt.Errorf("replace consolidated entities: %w", err)
	}
	logging.Correlation("consolidated %d occurrences into %d entities", len(occs), len(consolidation.Entities))

	tracker.Update(operation.CorrelationDetails{Stage: "cooccurrence"})
	matrix := BuildCoOccurrenceMatrix(occs, consolidation.Entities, consolidation.Mapping)
	logging.Correlation("built co-occurrence matrix: %d pairs, %d dropped", len(matrix.Counts), matrix.DroppedPairs)

	indexedFiles, err := store.IterFiles(catalog.FileIndexed)
	if err != nil {
		return Result{}, fmt.Errorf("load indexed files: %w", err)
	}
	workflowFiles := make([]WorkflowFile, len(indexedFiles))
	for i, f := range indexedFiles {
		workflowFiles[i] = WorkflowFile{ID: f.ID, Path: f.Path, ModTime: f.ModTime}
	}

	tracker.Update(operation.CorrelationDetails{Stage: "detect"})
	var expertise, relationship, workflow, techstack []catalog.Pattern
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expertise, err = DetectExpertise(consolidation.Entities, occs, consolidation.Mapping, now)
		return err
	})
	g.Go(func() error {
		var err error
		relationship, err = DetectRelationship(gctx, consolidation.Entities, matrix, now)
		return err
	})
	g.Go(func() error {
		var err error
		workflow, err = DetectWorkflow(workflowFiles, now)
		return err
	})
	g.Go(func() error {
		var err error
		techstack, err = DetectTechStack(consolidation.Entities, matrix, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("pattern detection: %w", err)
	}

	var patterns []catalog.Pattern
	patterns = append(patterns, expertise...)
	patterns = append(patterns, relationship...)
	patterns = append(patterns, workflow...)
	patterns = append(patterns, techstack...)
	if err := store.ReplacePatterns(patterns); err != nil {
		return Result{}, fmt.Errorf("replace patterns: %w", err)
	}
	logging.Correlation("detected %d patterns (expertise=%d relationship=%d workflow=%d tech-stack=%d)",
		len(patterns), len(expertise), len(relationship), len(workflow), len(techstack))

	tracker.Update(operation.CorrelationDetails{Stage: "surface"})
	existingDiscoveries, err := store.IterDiscoveries()
	if err != nil {
		return Result{}, fmt.Errorf("load discoveries before surfacing: %w", err)
	}
	if err := Surface(store, patterns); err != nil {
		return Result{}, fmt.Errorf("surface discoveries: %w", err)
	}
	afterDiscoveries, err := store.IterDiscoveries()
	if err != nil {
		return Result{}, fmt.Errorf("load discoveries after surfacing: %w", err)
	}

	return Result{
		EntitiesConsolidated: len(consolidation.Entities),
		PatternsDetected:     len(patterns),
		DiscoveriesSurfaced:  len(afterDiscoveries) - len(existingDiscoveries),
	}, nil
}
