package correlation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excavator/excavator/internal/catalog"
)

func TestDetectTechStackClustersCoOccurringTech(t *testing.T) {
	now := time.Now()
	entities := []catalog.ConsolidatedEntity{
		{ID: "go", Type: catalog.EntityTech, CanonicalForm: "Go", FirstSeen: now, LastSeen: now},
		{ID: "postgres", Type: catalog.EntityTech, CanonicalForm: "PostgreSQL", FirstSeen: now, LastSeen: now},
		{ID: "react", Type: catalog.EntityTech, CanonicalForm: "React", FirstSeen: now, LastSeen: now},
	}
	matrix := CoOccurrenceMatrix{
		Counts: map[PairKey]int{
			{A: "go", B: "postgres"}: 4,
		},
		Files: map[PairKey][]string{
			{A: "go", B: "postgres"}: {"f1", "f2", "f3"},
		},
	}
	patterns, err := DetectTechStack(entities, matrix, now)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.NotContains(t, patterns[0].SourceFiles, "")
}

func TestUnionFindMergesTransitively(t *testing.T) {
	uf := newUnionFind()
	uf.add("a")
	uf.add("b")
	uf.add("c")
	uf.union("a", "b")
	uf.union("b", "c")
	groups := uf.groups()
	assert.Len(t, groups, 1)
}
