package correlation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excavator/excavator/internal/catalog"
)

func occ(surface string, typ catalog.EntityType, fileID string, at time.Time) catalog.EntityOccurrence {
	return catalog.EntityOccurrence{
		ID:          uuid.NewString(),
		SurfaceForm: surface,
		Type:        typ,
		FileID:      fileID,
		ChunkID:     uuid.NewString(),
		Confidence:  0.9,
		CreatedAt:   at,
	}
}

func TestConsolidateGroupsCaseAndDiacriticVariants(t *testing.T) {
	base := time.Now().Add(-time.Hour)
	occs := []catalog.EntityOccurrence{
		occ("José García", catalog.EntityPerson, "f1", base),
		occ("jose garcia", catalog.EntityPerson, "f2", base.Add(time.Minute)),
		occ("JOSE GARCIA", catalog.EntityPerson, "f3", base.Add(2*time.Minute)),
	}
	result := Consolidate(occs)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, 3, result.Entities[0].OccurrenceCount)
	assert.Equal(t, 3, result.Entities[0].FileDiversity)
}

func TestConsolidateFoldsPersonAliases(t *testing.T) {
	base := time.Now()
	occs := []catalog.EntityOccurrence{
		occ("Mike", catalog.EntityPerson, "f1", base),
		occ("Michael", catalog.EntityPerson, "f2", base.Add(time.Minute)),
		occ("Michael", catalog.EntityPerson, "f3", base.Add(2*time.Minute)),
	}
	result := Consolidate(occs)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "Michael", result.Entities[0].CanonicalForm, "most frequent form wins canonical status")
	assert.Contains(t, result.Entities[0].Aliases, "Mike")
}

func TestConsolidateKeepsTypesDistinct(t *testing.T) {
	base := time.Now()
	occs := []catalog.EntityOccurrence{
		occ("Amazon", catalog.EntityOrg, "f1", base),
		occ("Amazon", catalog.EntityLocation, "f2", base),
	}
	result := Consolidate(occs)
	assert.Len(t, result.Entities, 2, "same surface form under different types must not merge")
}

func TestConsolidateIsDeterministicAcrossRuns(t *testing.T) {
	base := time.Now()
	occs := []catalog.EntityOccurrence{
		occ("Bob", catalog.EntityPerson, "f1", base),
		occ("Robert", catalog.EntityPerson, "f2", base.Add(time.Minute)),
		occ("Bob", catalog.EntityPerson, "f3", base.Add(2*time.Minute)),
	}
	r1 := Consolidate(occs)
	r2 := Consolidate(occs)
	require.Len(t, r1.Entities, 1)
	require.Len(t, r2.Entities, 1)
	assert.Equal(t, r1.Entities[0].CanonicalForm, r2.Entities[0].CanonicalForm)
}

func TestNormalizeSurfaceFormTrimsPunctuationAndWhitespace(t *testing.T) {
	assert.Equal(t, "acme, corp", normalizeSurfaceForm("  Acme, Corp.  "))
}
