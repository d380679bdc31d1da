//go:build sqlite_vec && cgo

package vectorstore

import (
	"context"
	"database/sql"
	"fmt"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

func init() {
	// Register the sqlite-vec extension with the mattn/go-sqlite3 driver
	// before any sql.Open call that might open this package's database --
	// the cgo extension's per-connection init hook must run first.
	vec.Auto()
}

func detectVecExtension(db *sql.DB) bool {
	var version string
	if err := db.QueryRow(`SELECT vec_version()`).Scan(&version); err != nil {
		return false
	}
	return true
}

func encodeVecBlob(v []float32) ([]byte, error) {
	blob, err := vec.SerializeFloat32(v)
	if err != nil {
		return nil, fmt.Errorf("serialize vec0 blob: %w", err)
	}
	return blob, nil
}

func (s *Store) queryVec0(ctx context.Context, query []float32, k int) ([]Match, error) {
	blob, err := encodeVecBlob(query)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_id, distance FROM vec_index WHERE embedding MATCH ? AND k = ? ORDER BY distance`, blob, k)
	if err != nil {
		return nil, fmt.Errorf("vec0 knn query: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var id string
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, err
		}
		// vec0 reports L2 distance; convert to a similarity-style score so
		// callers can treat it the same as the brute-force cosine score.
		matches = append(matches, Match{ChunkID: id, Score: 1.0 / (1.0 + distance)})
	}
	return matches, rows.Err()
}
