package catalog

import (
	"context"
	"fmt"

	"github.com/excavator/excavator/internal/logging"
	"github.com/excavator/excavator/internal/vectorstore"
)

// ReconcileResult reports what the reconciliation pass did.
type ReconcileResult struct {
	Reembedded int
	Orphaned   int
}

// Reconcile enforces the dual-store consistency contract at startup: a
// chunk is "indexed" iff its row exists AND its vector exists. Chunks
// missing a vector are re-embedded; vectors whose chunk row is gone are
// deleted. Loss of the vector store is recoverable this way; loss of the
// catalog is not.
func (s *Store) Reconcile(ctx context.Context, vs *vectorstore.Store, batchSize int) (ReconcileResult, error) {
	timer := logging.StartTimer(logging.CategoryCatalog, "Reconcile")
	defer timer.Stop()

	var result ReconcileResult

	chunkIDs, err := s.AllChunkIDs()
	if err != nil {
		return result, fmt.Errorf("list catalog chunks: %w", err)
	}
	vectorIDs, err := vs.AllChunkIDs()
	if err != nil {
		return result, fmt.Errorf("list vector store chunks: %w", err)
	}
	hasVector := make(map[string]bool, len(vectorIDs))
	for _, id := range vectorIDs {
		hasVector[id] = true
	}
	hasChunk := make(map[string]bool, len(chunkIDs))
	for _, id := range chunkIDs {
		hasChunk[id] = true
	}

	var missing []vectorstore.ChunkText
	for _, id := range chunkIDs {
		if hasVector[id] {
			continue
		}
		c, err := s.GetChunk(id)
		if err != nil {
			logging.CatalogError("reconcile: could not load chunk %s: %v", id, err)
			continue
		}
		missing = append(missing, vectorstore.ChunkText{ChunkID: c.ID, Text: c.Text})
	}
	if len(missing) > 0 {
		if err := vs.RebuildFromCatalog(ctx, missing, batchSize); err != nil {
			return result, fmt.Errorf("re-embed missing vectors: %w", err)
		}
		result.Reembedded = len(missing)
	}

	for _, id := range vectorIDs {
		if hasChunk[id] {
			continue
		}
		if err := vs.Delete(ctx, id); err != nil {
			logging.CatalogError("reconcile: could not delete orphan vector %s: %v", id, err)
			continue
		}
		result.Orphaned++
	}

	logging.Catalog("reconciliation complete: re-embedded=%d orphans-removed=%d", result.Reembedded, result.Orphaned)
	return result, nil
}
