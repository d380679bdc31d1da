// Package vectorstore maintains an approximate-nearest-neighbor index over
// chunk embeddings in the same SQLite file as the catalog (one file, two
// logical stores). When built with the sqlite_vec+cgo tag it uses the
// asg017/sqlite-vec vec0 virtual table; otherwise it falls back to
// brute-force cosine similarity over a plain table.
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/excavator/excavator/internal/embedding"
	"github.com/excavator/excavator/internal/logging"
)

// Match is one result of a similarity query.
type Match struct {
	ChunkID string
	Score   float64
}

// Store is the vector index. It shares the catalog's *sql.DB handle.
type Store struct {
	db         *sql.DB
	engine     embedding.EmbeddingEngine
	dimensions int
	useVec0    bool
}

// Open wires the vector store to an already-open catalog database handle.
// useVec0 requests the cgo vec0 virtual table; it is downgraded to the
// brute-force fallback automatically if the extension was not compiled in.
func Open(db *sql.DB, engine embedding.EmbeddingEngine, dimensions int, useVec0 bool) (*Store, error) {
	s := &Store{db: db, engine: engine, dimensions: dimensions}
	s.useVec0 = useVec0 && detectVecExtension(db)

	if s.useVec0 {
		if _, err := db.Exec(fmt.Sprintf(
			`CREATE VIRTUAL TABLE IF NOT EXISTS vec_index USING vec0(chunk_id TEXT PRIMARY KEY, embedding FLOAT[%d])`, dimensions)); err != nil {
			logging.VectorStoreError("failed to create vec0 table, falling back to brute force: %v", err)
			s.useVec0 = false
		}
	}
	if !s.useVec0 {
		if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS vectors (
			chunk_id TEXT PRIMARY KEY,
			embedding TEXT NOT NULL,
			metadata TEXT
		)`); err != nil {
			return nil, fmt.Errorf("create fallback vectors table: %w", err)
		}
	}

	logging.VectorStore("vector store opened (vec0=%v, dimensions=%d)", s.useVec0, dimensions)
	return s, nil
}

// UsingExtension reports whether the native vec0 index is active.
func (s *Store) UsingExtension() bool { return s.useVec0 }

// Upsert writes (or replaces) the embedding for a chunk, with an optional
// metadata JSON blob alongside it.
func (s *Store) Upsert(ctx context.Context, chunkID string, vector []float32, metadata map[string]interface{}) error {
	if len(vector) != s.dimensions {
		return fmt.Errorf("vectorstore: programmer error: vector dimension %d != configured %d", len(vector), s.dimensions)
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if s.useVec0 {
		blob, err := encodeVecBlob(vector)
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx, `INSERT INTO vec_index(chunk_id, embedding) VALUES (?, ?)
			ON CONFLICT(chunk_id) DO UPDATE SET embedding=excluded.embedding`, chunkID, blob)
		if err != nil {
			return fmt.Errorf("vec0 upsert: %w", err)
		}
		return nil
	}

	vecJSON, err := encodeFloatJSON(vector)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO vectors(chunk_id, embedding, metadata) VALUES (?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET embedding=excluded.embedding, metadata=excluded.metadata`,
		chunkID, vecJSON, string(metaJSON))
	if err != nil {
		return fmt.Errorf("fallback upsert: %w", err)
	}
	return nil
}

// UpsertBatch writes multiple chunk embeddings in one transaction.
func (s *Store) UpsertBatch(ctx context.Context, chunkIDs []string, vectors [][]float32) error {
	if len(chunkIDs) != len(vectors) {
		return fmt.Errorf("vectorstore: programmer error: %d chunk ids but %d vectors", len(chunkIDs), len(vectors))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch upsert: %w", err)
	}
	for i, id := range chunkIDs {
		if err := s.upsertTx(tx, id, vectors[i]); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) upsertTx(tx *sql.Tx, chunkID string, vector []float32) error {
	if len(vector) != s.dimensions {
		return fmt.Errorf("vectorstore: programmer error: vector dimension %d != configured %d", len(vector), s.dimensions)
	}
	if s.useVec0 {
		blob, err := encodeVecBlob(vector)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`INSERT INTO vec_index(chunk_id, embedding) VALUES (?, ?)
			ON CONFLICT(chunk_id) DO UPDATE SET embedding=excluded.embedding`, chunkID, blob)
		return err
	}
	vecJSON, err := encodeFloatJSON(vector)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO vectors(chunk_id, embedding) VALUES (?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET embedding=excluded.embedding`, chunkID, vecJSON)
	return err
}

// Delete removes a chunk's vector, used by reconciliation when the backing
// chunk row is gone.
func (s *Store) Delete(ctx context.Context, chunkID string) error {
	table := "vectors"
	if s.useVec0 {
		table = "vec_index"
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE chunk_id=?`, table), chunkID)
	return err
}

// Has reports whether a vector exists for chunkID.
func (s *Store) Has(chunkID string) (bool, error) {
	table := "vectors"
	if s.useVec0 {
		table = "vec_index"
	}
	var exists int
	err := s.db.QueryRow(fmt.Sprintf(`SELECT 1 FROM %s WHERE chunk_id=?`, table), chunkID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AllChunkIDs returns every chunk id currently holding a vector.
func (s *Store) AllChunkIDs() ([]string, error) {
	table := "vectors"
	if s.useVec0 {
		table = "vec_index"
	}
	rows, err := s.db.Query(fmt.Sprintf(`SELECT chunk_id FROM %s`, table))
	if err != nil {
		return nil, err
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

// QueryByText embeds the query text with the engine's configured task type
// (the same one used for chunks) and returns the top-k nearest chunks.
func (s *Store) QueryByText(ctx context.Context, text string, k int) ([]Match, error) {
	vec, err := s.engine.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query text: %w", err)
	}
	return s.QueryByVector(ctx, vec, k)
}

// QueryByVector returns the top-k nearest chunks to an already-computed
// query vector.
func (s *Store) QueryByVector(ctx context.Context, query []float32, k int) ([]Match, error) {
	if k <= 0 {
		k = 10
	}
	if s.useVec0 {
		return s.queryVec0(ctx, query, k)
	}
	return s.queryBruteForce(ctx, query, k)
}

func (s *Store) queryBruteForce(ctx context.Context, query []float32, k int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chunk_id, embedding FROM vectors`)
	if err != nil {
		return nil, fmt.Errorf("scan vectors table: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var id, vecJSON string
		if err := rows.Scan(&id, &vecJSON); err != nil {
			return nil, err
		}
		vec, err := decodeFloatJSON(vecJSON)
		if err != nil {
			logging.VectorStoreError("skipping corrupt vector row %s: %v", id, err)
			continue
		}
		score, err := embedding.CosineSimilarity(query, vec)
		if err != nil {
			continue
		}
		matches = append(matches, Match{ChunkID: id, Score: score})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, rows.Err()
}
