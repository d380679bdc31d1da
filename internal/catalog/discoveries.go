package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// DiscoveryStatus is the lifecycle state of a Discovery.
type DiscoveryStatus string

const (
	DiscoveryNew        DiscoveryStatus = "new"
	DiscoveryConfirmed  DiscoveryStatus = "confirmed"
	DiscoveryDismissed  DiscoveryStatus = "dismissed"
	DiscoverySuperseded DiscoveryStatus = "superseded"
)

// Discovery is a pattern promoted past the confidence/sources thresholds.
type Discovery struct {
	ID         string
	PatternID  string
	Title      string
	Confidence float64
	Status     DiscoveryStatus
	UserNotes  string
	CreatedAt  time.Time
}

// InsertDiscovery inserts a new discovery in status=new.
func (s *Store) InsertDiscovery(d Discovery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Status == "" {
		d.Status = DiscoveryNew
	}
	_, err := s.db.Exec(`INSERT INTO discoveries (id, pattern_id, title, confidence, status, user_notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.PatternID, d.Title, d.Confidence, d.Status, d.UserNotes)
	if err != nil {
		return fmt.Errorf("insert discovery: %w", err)
	}
	return nil
}

// IterDiscoveries returns every discovery.
func (s *Store) IterDiscoveries() ([]Discovery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, pattern_id, title, confidence, status, user_notes, created_at FROM discoveries ORDER BY confidence DESC`)
	if err != nil {
		return nil, fmt.Errorf("query discoveries: %w", err)
	}
	defer rows.Close()

	var out []Discovery
	for rows.Next() {
		var d Discovery
		var status string
		if err := rows.Scan(&d.ID, &d.PatternID, &d.Title, &d.Confidence, &status, &d.UserNotes, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan discovery row: %w", err)
		}
		d.Status = DiscoveryStatus(status)
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDiscovery fetches a discovery by id.
func (s *Store) GetDiscovery(id string) (Discovery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var d Discovery
	var status string
	err := s.db.QueryRow(`SELECT id, pattern_id, title, confidence, status, user_notes, created_at FROM discoveries WHERE id=?`, id).
		Scan(&d.ID, &d.PatternID, &d.Title, &d.Confidence, &status, &d.UserNotes, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return Discovery{}, ErrDiscoveryNotFound
	}
	if err != nil {
		return Discovery{}, fmt.Errorf("scan discovery: %w", err)
	}
	d.Status = DiscoveryStatus(status)
	return d, nil
}

// ApplyFeedback confirms or dismisses a discovery. Confirming or dismissing
// locks it against supersession by a later correlation run.
func (s *Store) ApplyFeedback(id string, action string, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var status DiscoveryStatus
	switch action {
	case "confirm":
		status = DiscoveryConfirmed
	case "dismiss":
		status = DiscoveryDismissed
	default:
		return fmt.Errorf("catalog: unknown feedback action %q", action)
	}
	res, err := s.db.Exec(`UPDATE discoveries SET status=?, user_notes=? WHERE id=?`, status, notes, id)
	if err != nil {
		return fmt.Errorf("apply feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDiscoveryNotFound
	}
	return nil
}

// SupersedeStaleDiscoveries marks superseded every discovery whose status is
// still "new" and whose backing pattern is not in the keepPatternIDs set.
// Discoveries in confirmed/dismissed are never touched here -- that is the
// feedback-stickiness guarantee (Testable Scenario S6).
func (s *Store) SupersedeStaleDiscoveries(keepPatternIDs map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, pattern_id FROM discoveries WHERE status='new'`)
	if err != nil {
		return fmt.Errorf("query new discoveries: %w", err)
	}
	type idPair struct{ id, patternID string }
	var toSupersede []idPair
	for rows.Next() {
		var p idPair
		if err := rows.Scan(&p.id, &p.patternID); err != nil {
			rows.Close()
			return err
		}
		if !keepPatternIDs[p.patternID] {
			toSupersede = append(toSupersede, p)
		}
	}
	rows.Close()

	for _, p := range toSupersede {
		if _, err := s.db.Exec(`UPDATE discoveries SET status=? WHERE id=?`, DiscoverySuperseded, p.id); err != nil {
			return fmt.Errorf("supersede discovery %s: %w", p.id, err)
		}
	}
	return nil
}
