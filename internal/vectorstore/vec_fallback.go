//go:build !sqlite_vec || !cgo

package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
)

// detectVecExtension always reports unavailable when the cgo vec0 build tag
// is absent -- Open() downgrades to the brute-force table in that case.
func detectVecExtension(db *sql.DB) bool { return false }

func encodeVecBlob(v []float32) ([]byte, error) {
	return nil, fmt.Errorf("vectorstore: sqlite-vec extension not compiled in")
}

func (s *Store) queryVec0(ctx context.Context, query []float32, k int) ([]Match, error) {
	return nil, fmt.Errorf("vectorstore: sqlite-vec extension not compiled in")
}
