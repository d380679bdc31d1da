package catalog

import "fmt"

// Stats is the get_stats() rollup: per-table counts plus entity counts
// broken down by type.
type Stats struct {
	Files               int
	Chunks              int
	EntityOccurrences   int
	ConsolidatedEntities int
	Patterns            int
	Discoveries         int
	Jobs                int
	EntitiesByType      map[string]int
}

// GetStats computes the catalog-wide rollup.
func (s *Store) GetStats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	tables := []struct {
		name string
		dest *int
	}{
		{"files", &st.Files},
		{"chunks", &st.Chunks},
		{"entity_occurrences", &st.EntityOccurrences},
		{"consolidated_entities", &st.ConsolidatedEntities},
		{"patterns", &st.Patterns},
		{"discoveries", &st.Discoveries},
		{"jobs", &st.Jobs},
	}
	for _, t := range tables {
		if err := s.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, t.name)).Scan(t.dest); err != nil {
			return Stats{}, fmt.Errorf("count %s: %w", t.name, err)
		}
	}

	byType, err := s.entityCountsByTypeLocked()
	if err != nil {
		return Stats{}, err
	}
	st.EntitiesByType = byType
	return st, nil
}

func (s *Store) entityCountsByTypeLocked() (map[string]int, error) {
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
