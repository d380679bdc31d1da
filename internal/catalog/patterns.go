package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// PatternType classifies a detected structural observation.
type PatternType string

const (
	PatternExpertise   PatternType = "expertise"
	PatternRelationship PatternType = "relationship"
	PatternWorkflow    PatternType = "workflow"
	PatternTechStack   PatternType = "tech-stack"
)

// Pattern is a disposable artifact of one correlation run.
type Pattern struct {
	ID          string
	Type        PatternType
	Payload     json.RawMessage
	Confidence  float64
	SourceFiles []string
	Stale       bool
}

// ReplacePatterns marks every existing pattern stale and inserts the new
// set, per spec.md §3: "each run replaces the previous pattern set or marks
// prior patterns stale".
func (s *Store) ReplacePatterns(patterns []Pattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin pattern replace: %w", err)
	}
	if _, err := tx.Exec(`UPDATE patterns SET stale=1`); err != nil {
		tx.Rollback()
		return err
	}
	for _, p := range patterns {
		sources, err := json.Marshal(p.SourceFiles)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("marshal source files: %w", err)
		}
		if _, err := tx.Exec(`INSERT INTO patterns (id, type, payload, confidence, source_files, stale)
			VALUES (?, ?, ?, ?, ?, 0)
			ON CONFLICT(id) DO UPDATE SET type=excluded.type, payload=excluded.payload,
				confidence=excluded.confidence, source_files=excluded.source_files, stale=0`,
			p.ID, p.Type, string(p.Payload), p.Confidence, string(sources)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert pattern: %w", err)
		}
	}
	return tx.Commit()
}

// IterPatterns returns every non-stale pattern.
func (s *Store) IterPatterns() ([]Pattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, type, payload, confidence, source_files, stale FROM patterns WHERE stale=0`)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	var out []Pattern
	for rows.Next() {
		var p Pattern
		var typ, payload, sources string
		var stale int
		if err := rows.Scan(&p.ID, &typ, &payload, &p.Confidence, &sources, &stale); err != nil {
			return nil, fmt.Errorf("scan pattern row: %w", err)
		}
		p.Type = PatternType(typ)
		p.Payload = json.RawMessage(payload)
		p.Stale = stale != 0
		if err := json.Unmarshal([]byte(sources), &p.SourceFiles); err != nil {
			return nil, fmt.Errorf("unmarshal source files: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPattern fetches a single pattern by id, including stale ones.
func (s *Store) GetPattern(id string) (Pattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p Pattern
	var typ, payload, sources string
	var stale int
	err := s.db.QueryRow(`SELECT id, type, payload, confidence, source_files, stale FROM patterns WHERE id=?`, id).
		Scan(&p.ID, &typ, &payload, &p.Confidence, &sources, &stale)
	if err == sql.ErrNoRows {
		return Pattern{}, fmt.Errorf("catalog: pattern not found: %s", id)
	}
	if err != nil {
		return Pattern{}, fmt.Errorf("scan pattern: %w", err)
	}
	p.Type = PatternType(typ)
	p.Payload = json.RawMessage(payload)
	p.Stale = stale != 0
	if err := json.Unmarshal([]byte(sources), &p.SourceFiles); err != nil {
		return Pattern{}, fmt.Errorf("unmarshal source files: %w", err)
	}
	return p, nil
}
