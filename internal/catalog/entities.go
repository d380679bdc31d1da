package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// EntityType is the classification of a named entity.
type EntityType string

const (
	EntityPerson   EntityType = "PERSON"
	EntityOrg      EntityType = "ORG"
	EntityProject  EntityType = "PROJECT"
	EntityTech     EntityType = "TECH"
	EntityDate     EntityType = "DATE"
	EntityLocation EntityType = "LOCATION"
	EntityOther    EntityType = "OTHER"
)

// EntityOccurrence is a single mention of a named entity in a chunk. Once
// written it is immutable.
type EntityOccurrence struct {
	ID             string
	SurfaceForm    string
	NormalizedForm string
	Type           EntityType
	ChunkID        string
	FileID         string
	Confidence     float64
	CreatedAt      time.Time
}

// InsertEntityOccurrences inserts a batch of occurrences in one transaction,
// rejecting any whose chunk does not exist.
func (s *Store) InsertEntityOccurrences(occs []EntityOccurrence) error {
	if len(occs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin occurrence batch: %w", err)
	}
	for _, o := range occs {
		var exists int
		if err := tx.QueryRow(`SELECT 1 FROM chunks WHERE id=?`, o.ChunkID).Scan(&exists); err != nil {
			tx.Rollback()
			if err == sql.ErrNoRows {
				return ErrOrphanOccurrence
			}
			return fmt.Errorf("check parent chunk: %w", err)
		}
		if _, err := tx.Exec(`INSERT INTO entity_occurrences (id, surface_form, normalized_form, type, chunk_id, file_id, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.SurfaceForm, o.NormalizedForm, o.Type, o.ChunkID, o.FileID, o.Confidence); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert occurrence: %w", err)
		}
	}
	return tx.Commit()
}

// IterEntityOccurrences streams every occurrence in the catalog. Used by
// consolidation, which must see the full stream per spec.
func (s *Store) IterEntityOccurrences() ([]EntityOccurrence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, surface_form, normalized_form, type, chunk_id, file_id, confidence, created_at FROM entity_occurrences`)
	if err != nil {
		return nil, fmt.Errorf("query occurrences: %w", err)
	}
	defer rows.Close()

	var out []EntityOccurrence
	for rows.Next() {
		var o EntityOccurrence
		var typ string
		if err := rows.Scan(&o.ID, &o.SurfaceForm, &o.NormalizedForm, &typ, &o.ChunkID, &o.FileID, &o.Confidence, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan occurrence row: %w", err)
		}
		o.Type = EntityType(typ)
		out = append(out, o)
	}
	return out, rows.Err()
}

// ConsolidatedEntity is the post-correlation merged record for a canonical
// surface form.
type ConsolidatedEntity struct {
	ID               string
	CanonicalForm    string
	Type             EntityType
	Aliases          []string
	OccurrenceCount  int
	FileDiversity    int
	FirstSeen        time.Time
	LastSeen         time.Time
}

// ReplaceConsolidatedEntities atomically replaces the consolidated-entity
// set and the occurrence->canonical mapping. Consolidation runs are
// idempotent given identical input, so a full replace is safe and simple.
func (s *Store) ReplaceConsolidatedEntities(entities []ConsolidatedEntity, mapping map[string]string, aliasJSON map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin consolidation replace: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM entity_alias_map`); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`DELETE FROM consolidated_entities`); err != nil {
		tx.Rollback()
		return err
	}
	for _, e := range entities {
		aliases := aliasJSON[e.ID]
		if aliases == "" {
			aliases = "[]"
		}
		if _, err := tx.Exec(`INSERT INTO consolidated_entities
			(id, canonical_form, type, aliases, occurrence_count, file_diversity, first_seen, last_seen)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.CanonicalForm, e.Type, aliases, e.OccurrenceCount, e.FileDiversity, e.FirstSeen, e.LastSeen); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert consolidated entity: %w", err)
		}
	}
	for occID, consolidatedID := range mapping {
		if _, err := tx.Exec(`INSERT INTO entity_alias_map (occurrence_id, consolidated_id) VALUES (?, ?)`, occID, consolidatedID); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert alias mapping: %w", err)
		}
	}
	return tx.Commit()
}

// IterConsolidatedEntities returns every consolidated entity.
func (s *Store) IterConsolidatedEntities() ([]ConsolidatedEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, canonical_form, type, occurrence_count, file_diversity, first_seen, last_seen FROM consolidated_entities`)
	if err != nil {
		return nil, fmt.Errorf("query consolidated entities: %w", err)
	}
	defer rows.Close()

	var out []ConsolidatedEntity
	for rows.Next() {
		var e ConsolidatedEntity
		var typ string
		if err := rows.Scan(&e.ID, &e.CanonicalForm, &typ, &e.OccurrenceCount, &e.FileDiversity, &e.FirstSeen, &e.LastSeen); err != nil {
			return nil, fmt.Errorf("scan consolidated entity row: %w", err)
		}
		e.Type = EntityType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

// EntityCountsByType returns occurrence counts grouped by entity type, for
// the stats rollup.
func (s *Store) EntityCountsByType() (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT type, COUNT(*) FROM entity_occurrences GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("query entity counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, err
		}
		out[typ] = count
	}
	return out, rows.Err()
}
