package catalog

import (
	"database/sql"
	"fmt"
)

// ChunkKind classifies the extracted content of a Chunk.
type ChunkKind string

const (
	ChunkProse ChunkKind = "prose"
	ChunkCode  ChunkKind = "code"
	ChunkTable ChunkKind = "table"
	ChunkOCR   ChunkKind = "ocr"
)

// ChunkRecord mirrors spec.md §3's Chunk entity.
type ChunkRecord struct {
	ID          string
	FileID      string
	Ordinal     int
	Text        string
	TokenCount  int
	StartOffset int
	EndOffset   int
	Kind        ChunkKind
}

// InsertChunk inserts a single chunk, rejecting it if the parent file does
// not exist (referential integrity, enforced at the Go layer as well as by
// PRAGMA foreign_keys).
func (s *Store) InsertChunk(c ChunkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertChunkLocked(c)
}

func (s *Store) insertChunkLocked(c ChunkRecord) error {
	var exists int
	if err := s.db.QueryRow(`SELECT 1 FROM files WHERE id=?`, c.FileID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return ErrOrphanChunk
		}
		return fmt.Errorf("check parent file: %w", err)
	}
	_, err := s.db.Exec(`INSERT INTO chunks (id, file_id, ordinal, text, token_count, start_offset, end_offset, kind)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.FileID, c.Ordinal, c.Text, c.TokenCount, c.StartOffset, c.EndOffset, c.Kind)
	if err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}
	return nil
}

// InsertChunks inserts a batch of chunks for one file in a single transaction.
func (s *Store) InsertChunks(chunks []ChunkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin chunk batch: %w", err)
	}
	for _, c := range chunks {
		var exists int
		if err := tx.QueryRow(`SELECT 1 FROM files WHERE id=?`, c.FileID).Scan(&exists); err != nil {
			tx.Rollback()
			if err == sql.ErrNoRows {
				return ErrOrphanChunk
			}
			return fmt.Errorf("check parent file: %w", err)
		}
		if _, err := tx.Exec(`INSERT INTO chunks (id, file_id, ordinal, text, token_count, start_offset, end_offset, kind)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.FileID, c.Ordinal, c.Text, c.TokenCount, c.StartOffset, c.EndOffset, c.Kind); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert chunk: %w", err)
		}
	}
	return tx.Commit()
}

// IterChunks returns all chunks belonging to a file, ordered by ordinal.
func (s *Store) IterChunks(fileID string) ([]ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, file_id, ordinal, text, token_count, start_offset, end_offset, kind FROM chunks WHERE file_id=? ORDER BY ordinal`, fileID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var out []ChunkRecord
	for rows.Next() {
		var c ChunkRecord
		var kind string
		if err := rows.Scan(&c.ID, &c.FileID, &c.Ordinal, &c.Text, &c.TokenCount, &c.StartOffset, &c.EndOffset, &kind); err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}
		c.Kind = ChunkKind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

// AllChunkIDs returns every chunk id in the catalog, used by reconciliation.
func (s *Store) AllChunkIDs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT id FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("query chunk ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetChunk fetches a single chunk by id.
func (s *Store) GetChunk(id string) (ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var c ChunkRecord
	var kind string
	err := s.db.QueryRow(`SELECT id, file_id, ordinal, text, token_count, start_offset, end_offset, kind FROM chunks WHERE id=?`, id).
		Scan(&c.ID, &c.FileID, &c.Ordinal, &c.Text, &c.TokenCount, &c.StartOffset, &c.EndOffset, &kind)
	if err == sql.ErrNoRows {
		return ChunkRecord{}, ErrChunkNotFound
	}
	if err != nil {
		return ChunkRecord{}, fmt.Errorf("scan chunk: %w", err)
	}
	c.Kind = ChunkKind(kind)
	return c, nil
}
