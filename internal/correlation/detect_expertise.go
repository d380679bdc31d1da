package correlation

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/excavator/excavator/internal/catalog"
)

const expertiseMinScore = 0.3

// ExpertisePayload is the JSON payload stored on an expertise Pattern.
type ExpertisePayload struct {
	EntityID      string `json:"entity_id"`
	CanonicalForm string `json:"canonical_form"`
	Domain        string `json:"domain"`
	Score         float64 `json:"score"`
}

// domainVocabSet is the normalized (lowercase) vocabulary for one domain,
// built once from vocabulary.go.
func domainVocabSets() map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(expertiseDomains))
	for domain, terms := range expertiseDomains {
		set := make(map[string]bool, len(terms))
		for _, t := range terms {
			set[t] = true
		}
		out[domain] = set
	}
	return out
}

// DetectExpertise scores every consolidated PERSON entity against each
// domain's vocabulary by density (how often their co-occurring TECH
// mentions fall in that domain) times diversity (how many distinct files
// exhibit that co-occurrence), emitting one Pattern per (person, domain)
// pair that clears expertiseMinScore.
func DetectExpertise(entities []catalog.ConsolidatedEntity, occs []catalog.EntityOccurrence, mapping map[string]string, now time.Time) ([]catalog.Pattern, error) {
	byID := make(map[string]catalog.ConsolidatedEntity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	vocab := domainVocabSets()

	filePersons := make(map[string]map[string]bool)
	fileTechTerms := make(map[string]map[string]bool) // fileID -> set of normalized tech canonical forms present

	for _, o := range occs {
		consolidatedID, ok := mapping[o.ID]
		if !ok {
			continue
		}
		entity, ok := byID[consolidatedID]
		if !ok {
			continue
		}
		switch entity.Type {
		case catalog.EntityPerson:
			set, ok := filePersons[o.FileID]
			if !ok {
				set = make(map[string]bool)
				filePersons[o.FileID] = set
			}
			set[consolidatedID] = true
		case catalog.EntityTech:
			set, ok := fileTechTerms[o.FileID]
			if !ok {
				set = make(map[string]bool)
				fileTechTerms[o.FileID] = set
			}
			set[normalizeSurfaceForm(entity.CanonicalForm)] = true
		}
	}

	// hits[personID][domain] = set of fileIDs exhibiting that domain's
	// vocabulary alongside the person.
	hits := make(map[string]map[string]map[string]bool)
	for fileID, persons := range filePersons {
		techTerms := fileTechTerms[fileID]
		if len(techTerms) == 0 {
			continue
		}
		for domain, vocabSet := range vocab {
			matched := false
			for term := range techTerms {
				if vocabSet[term] {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
			for personID := range persons {
				byDomain, ok := hits[personID]
				if !ok {
					byDomain = make(map[string]map[string]bool)
					hits[personID] = byDomain
				}
				files, ok := byDomain[domain]
				if !ok {
					files = make(map[string]bool)
					byDomain[domain] = files
				}
				files[fileID] = true
			}
		}
	}

	var patterns []catalog.Pattern
	personIDs := make([]string, 0, len(hits))
	for id := range hits {
		personIDs = append(personIDs, id)
	}
	sort.Strings(personIDs)

	for _, personID := range personIDs {
		entity := byID[personID]
		domains := make([]string, 0, len(hits[personID]))
		for d := range hits[personID] {
			domains = append(domains, d)
		}
		sort.Strings(domains)

		for _, domain := range domains {
			files := hits[personID][domain]
			sourceFiles := make([]string, 0, len(files))
			for f := range files {
				sourceFiles = append(sourceFiles, f)
			}
			sort.Strings(sourceFiles)

			density := float64(len(sourceFiles)) / float64(entity.FileDiversity+1)
			diversity := clamp01(float64(len(sourceFiles)) / diversityCeiling)
			score := clamp01(density * diversity * 2)
			if score < expertiseMinScore {
				continue
			}

			payload, err := json.Marshal(ExpertisePayload{
				EntityID:      personID,
				CanonicalForm: entity.CanonicalForm,
				Domain:        domain,
				Score:         score,
			})
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, catalog.Pattern{
				ID:          deterministicID("expertise", personID, domain),
				Type:        catalog.PatternExpertise,
				Payload:     payload,
				Confidence:  Confidence(len(sourceFiles), len(sourceFiles), entity.FirstSeen, entity.LastSeen, now),
				SourceFiles: sourceFiles,
			})
		}
	}
	return patterns, nil
}
