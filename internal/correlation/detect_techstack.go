package correlation

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/excavator/excavator/internal/catalog"
)

const techClusterMinCoFiles = 3
const techClusterMinSize = 2

// TechStackPayload is the JSON payload stored on a tech-stack Pattern.
type TechStackPayload struct {
	Technologies []string `json:"technologies"`
}

// DetectTechStack clusters TECH entities by co-occurrence density using
// single-link clustering over the bounded co-occurrence matrix: two TECH
// entities join a cluster once they co-occur in at least
// techClusterMinCoFiles distinct files, and clusters merge transitively.
// Clusters below techClusterMinSize are dropped as noise.
func DetectTechStack(entities []catalog.ConsolidatedEntity, matrix CoOccurrenceMatrix, now time.Time) ([]catalog.Pattern, error) {
	techIDs := make(map[string]catalog.ConsolidatedEntity)
	for _, e := range entities {
		if e.Type == catalog.EntityTech {
			techIDs[e.ID] = e
		}
	}
	if len(techIDs) == 0 {
		return nil, nil
	}

	uf := newUnionFind()
	for id := range techIDs {
		uf.add(id)
	}
	for pair, count := range matrix.Counts {
		if count < techClusterMinCoFiles {
			continue
		}
		_, okA := techIDs[pair.A]
		_, okB := techIDs[pair.B]
		if okA && okB {
			uf.union(pair.A, pair.B)
		}
	}

	clusters := uf.groups()
	var clusterKeys []string
	for k := range clusters {
		clusterKeys = append(clusterKeys, k)
	}
	sort.Strings(clusterKeys)

	var patterns []catalog.Pattern
	for _, root := range clusterKeys {
		members := clusters[root]
		if len(members) < techClusterMinSize {
			continue
		}
		sort.Strings(members)

		names := make([]string, len(members))
		fileSet := make(map[string]bool)
		first := techIDs[members[0]].FirstSeen
		last := techIDs[members[0]].LastSeen
		for i, id := range members {
			e := techIDs[id]
			names[i] = e.CanonicalForm
			if e.FirstSeen.Before(first) {
				first = e.FirstSeen
			}
			if e.LastSeen.After(last) {
				last = e.LastSeen
			}
		}
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				key := PairKey{A: members[i], B: members[j]}
				if key.A > key.B {
					key.A, key.B = key.B, key.A
				}
				for _, f := range matrix.Files[key] {
					fileSet[f] = true
				}
			}
		}
		sourceFiles := make([]string, 0, len(fileSet))
		for f := range fileSet {
			sourceFiles = append(sourceFiles, f)
		}
		sort.Strings(sourceFiles)
		if len(sourceFiles) < minDiscoverySources {
			continue
		}

		payload, err := json.Marshal(TechStackPayload{Technologies: names})
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, catalog.Pattern{
			ID:          deterministicID("tech-stack", members...),
			Type:        catalog.PatternTechStack,
			Payload:     payload,
			Confidence:  Confidence(len(sourceFiles), len(sourceFiles), first, last, now),
			SourceFiles: sourceFiles,
		})
	}
	return patterns, nil
}

// unionFind is a minimal disjoint-set over string ids, used for single-link
// clustering of co-occurring TECH entities.
type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) add(id string) {
	if _, ok := u.parent[id]; !ok {
		u.parent[id] = id
	}
}

func (u *unionFind) find(id string) string {
	root := id
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[id] != root {
		u.parent[id], id = root, u.parent[id]
	}
	return root
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra > rb {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}

func (u *unionFind) groups() map[string][]string {
	out := make(map[string][]string)
	for id := range u.parent {
		root := u.find(id)
		out[root] = append(out[root], id)
	}
	return out
}
