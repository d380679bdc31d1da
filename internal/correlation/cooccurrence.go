package correlation

import (
	"hash/fnv"
	"math/rand/v2"
	"sort"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/logging"
)

const (
	maxEntities      = 50_000
	maxPairsPerFile  = 500
	maxTotalPairs    = 1_000_000
	progressInterval = 10_000
)

// PairKey identifies an unordered pair of consolidated entity ids, always
// stored with the lexically smaller id first.
type PairKey struct {
	A, B string
}

// CoOccurrenceMatrix is a bounded sparse count of how many distinct files
// mention both entities in a pair, plus the file ids backing each count
// (used as a pattern's source_files). Built fresh every correlation run.
type CoOccurrenceMatrix struct {
	Counts       map[PairKey]int
	Files        map[PairKey][]string
	DroppedPairs int
}

// fileEntities is the set of consolidated entity ids present in one file,
// derived from the occurrence->consolidated mapping.
func fileEntities(occs []catalog.EntityOccurrence, mapping map[string]string) map[string][]string {
	byFile := make(map[string]map[string]bool)
	for _, o := range occs {
		consolidatedID, ok := mapping[o.ID]
		if !ok {
			continue
		}
		set, ok := byFile[o.FileID]
		if !ok {
			set = make(map[string]bool)
			byFile[o.FileID] = set
		}
		set[consolidatedID] = true
	}
	out := make(map[string][]string, len(byFile))
	for fileID, set := range byFile {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out[fileID] = ids
	}
	return out
}

// topEntitiesByFrequency caps the entity universe at maxEntities, keeping
// the most frequently occurring entities and breaking ties toward whichever
// was seen most recently (LastSeen).
func topEntitiesByFrequency(entities []catalog.ConsolidatedEntity) map[string]bool {
	if len(entities) <= maxEntities {
		kept := make(map[string]bool, len(entities))
		for _, e := range entities {
			kept[e.ID] = true
		}
		return kept
	}
	sorted := append([]catalog.ConsolidatedEntity(nil), entities...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].OccurrenceCount != sorted[j].OccurrenceCount {
			return sorted[i].OccurrenceCount > sorted[j].OccurrenceCount
		}
		return sorted[i].LastSeen.After(sorted[j].LastSeen)
	})
	kept := make(map[string]bool, maxEntities)
	for _, e := range sorted[:maxEntities] {
		kept[e.ID] = true
	}
	return kept
}

// BuildCoOccurrenceMatrix counts, for every pair of entities, the number of
// files in which both occur, bounded by max_entities / max_pairs_per_file /
// max_total_pairs (spec.md §4.6.2). Sampling within an over-large file is
// uniform but deterministic: the PCG seed is derived from the file id, never
// from a shared global source, so re-running over identical input produces
// an identical sample.
func BuildCoOccurrenceMatrix(occs []catalog.EntityOccurrence, entities []catalog.ConsolidatedEntity, mapping map[string]string) CoOccurrenceMatrix {
	kept := topEntitiesByFrequency(entities)
	byFile := fileEntities(occs, mapping)

	fileIDs := make([]string, 0, len(byFile))
	for fileID := range byFile {
		fileIDs = append(fileIDs, fileID)
	}
	sort.Strings(fileIDs)

	matrix := CoOccurrenceMatrix{Counts: make(map[PairKey]int), Files: make(map[PairKey][]string)}
	filesProcessed := 0
	for _, fileID := range fileIDs {
		ids := byFile[fileID]
		filtered := ids[:0:0]
		for _, id := range ids {
			if kept[id] {
				filtered = append(filtered, id)
			}
		}
		pairs := pairsForFile(fileID, filtered)
		for _, pair := range pairs {
			if len(matrix.Counts) >= maxTotalPairs {
				matrix.DroppedPairs++
				continue
			}
			matrix.Counts[pair]++
			matrix.Files[pair] = append(matrix.Files[pair], fileID)
		}
		filesProcessed++
		if filesProcessed%progressInterval == 0 {
			logging.Correlation("co-occurrence: processed %d files, %d pairs so far", filesProcessed, len(matrix.Counts))
		}
	}
	if matrix.DroppedPairs > 0 {
		logging.Correlation("co-occurrence: dropped %d pairs after hitting max_total_pairs=%d", matrix.DroppedPairs, maxTotalPairs)
	}
	return matrix
}

// pairsForFile enumerates every unordered pair of entity ids present in one
// file, sampling down to maxPairsPerFile when the file mentions enough
// entities to exceed the cap.
func pairsForFile(fileID string, ids []string) []PairKey {
	all := allPairs(ids)
	if len(all) <= maxPairsPerFile {
		return all
	}
	seed := fnvSeed(fileID)
	r := rand.New(rand.NewPCG(seed, seed))
	r.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:maxPairsPerFile]
}

func allPairs(ids []string) []PairKey {
	var pairs []PairKey
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]
			if a > b {
				a, b = b, a
			}
			pairs = append(pairs, PairKey{A: a, B: b})
		}
	}
	return pairs
}

func fnvSeed(fileID string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(fileID))
	return h.Sum64()
}
