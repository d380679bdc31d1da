package correlation

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/excavator/excavator/internal/catalog"
)

func aliasesToJSON(aliases []string) string {
	if len(aliases) == 0 {
		return "[]"
	}
	b, err := json.Marshal(aliases)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// consolidatedGroup accumulates every occurrence that normalizes to the same
// grouping key before being reduced to one ConsolidatedEntity.
type consolidatedGroup struct {
	key         string
	typ         catalog.EntityType
	occurrences []catalog.EntityOccurrence
	surfaceFreq map[string]int
}

// ConsolidationResult is the output of grouping raw entity occurrences into
// canonical entities.
type ConsolidationResult struct {
	Entities  []catalog.ConsolidatedEntity
	Mapping   map[string]string // occurrence id -> consolidated entity id
	AliasJSON map[string]string // consolidated entity id -> JSON array of aliases
}

// Consolidate groups every occurrence in occs by normalized surface form
// (diacritic-stripped, case-folded, punctuation-trimmed), additionally
// folding PERSON occurrences through the nickname alias table. Grouping is
// scoped per entity type, since "Amazon" the org and "Amazon" the location
// are distinct entities that happen to share a surface form.
//
// The canonical surface form for a group is its most frequent original
// SurfaceForm; ties break toward whichever form was first seen (earliest
// CreatedAt), making the result deterministic given identical input.
func Consolidate(occs []catalog.EntityOccurrence) ConsolidationResult {
	groups := make(map[string]*consolidatedGroup)
	var order []string // preserves first-encountered group order for determinism

	for _, o := range occs {
		key := normalizeSurfaceForm(o.SurfaceForm)
		if o.Type == catalog.EntityPerson {
			key = resolveAlias(key)
		}
		key = string(o.Type) + "\x00" + key

		g, ok := groups[key]
		if !ok {
			g = &consolidatedGroup{key: key, typ: o.Type, surfaceFreq: make(map[string]int)}
			groups[key] = g
			order = append(order, key)
		}
		g.occurrences = append(g.occurrences, o)
		g.surfaceFreq[o.SurfaceForm]++
	}

	result := ConsolidationResult{
		Mapping:   make(map[string]string),
		AliasJSON: make(map[string]string),
	}
	for _, key := range order {
		g := groups[key]
		entity, aliases := g.reduce()
		result.Entities = append(result.Entities, entity)
		result.AliasJSON[entity.ID] = aliasesToJSON(aliases)
		for _, o := range g.occurrences {
			result.Mapping[o.ID] = entity.ID
		}
	}
	return result
}

func (g *consolidatedGroup) reduce() (catalog.ConsolidatedEntity, []string) {
	canonical := canonicalSurfaceForm(g.occurrences, g.surfaceFreq)

	fileSet := make(map[string]bool)
	aliasSet := make(map[string]bool)
	first := g.occurrences[0].CreatedAt
	last := g.occurrences[0].CreatedAt
	for _, o := range g.occurrences {
		fileSet[o.FileID] = true
		if o.SurfaceForm != canonical {
			aliasSet[o.SurfaceForm] = true
		}
		if o.CreatedAt.Before(first) {
			first = o.CreatedAt
		}
		if o.CreatedAt.After(last) {
			last = o.CreatedAt
		}
	}
	aliases := make([]string, 0, len(aliasSet))
	for a := range aliasSet {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)

	return catalog.ConsolidatedEntity{
		ID:              deterministicID("entity", g.key),
		CanonicalForm:   canonical,
		Type:            g.typ,
		Aliases:         aliases,
		OccurrenceCount: len(g.occurrences),
		FileDiversity:   len(fileSet),
		FirstSeen:       first,
		LastSeen:        last,
	}, aliases
}

// canonicalSurfaceForm picks the most frequent original surface form in the
// group, breaking ties by earliest CreatedAt and then lexical order so the
// result never depends on map iteration order.
func canonicalSurfaceForm(occs []catalog.EntityOccurrence, freq map[string]int) string {
	type candidate struct {
		form      string
		count     int
		firstSeen time.Time // earliest CreatedAt among occurrences with this form
	}
	firstSeen := make(map[string]time.Time)
	for _, o := range occs {
		if t, seen := firstSeen[o.SurfaceForm]; !seen || o.CreatedAt.Before(t) {
			firstSeen[o.SurfaceForm] = o.CreatedAt
		}
	}
	var candidates []candidate
	for form, count := range freq {
		candidates = append(candidates, candidate{form: form, count: count, firstSeen: firstSeen[form]})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		if !candidates[i].firstSeen.Equal(candidates[j].firstSeen) {
			return candidates[i].firstSeen.Before(candidates[j].firstSeen)
		}
		return candidates[i].form < candidates[j].form
	})
	return candidates[0].form
}
