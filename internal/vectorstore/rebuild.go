package vectorstore

import (
	"context"
	"fmt"

	"github.com/excavator/excavator/internal/logging"
)

// ChunkText is the minimal shape the caller supplies for a rebuild --
// decoupled from the catalog package's ChunkRecord so this package has no
// dependency on internal/catalog.
type ChunkText struct {
	ChunkID string
	Text    string
}

// RebuildFromCatalog re-embeds and re-upserts every chunk the caller
// supplies. Used both by startup reconciliation and by maintenance tooling
// when the vector store file (but not the catalog) has been lost --
// "loss of the vector store is recoverable, loss of the catalog is not."
func (s *Store) RebuildFromCatalog(ctx context.Context, chunks []ChunkText, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 32
	}
	timer := logging.StartTimer(logging.CategoryVectorStore, "RebuildFromCatalog")
	defer timer.Stop()

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		texts := make([]string, len(batch))
		ids := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
			ids[i] = c.ChunkID
		}
		vectors, err := s.engine.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed rebuild batch [%d:%d]: %w", start, end, err)
		}
		if err := s.UpsertBatch(ctx, ids, vectors); err != nil {
			return fmt.Errorf("upsert rebuild batch [%d:%d]: %w", start, end, err)
		}
		logging.VectorStoreDebug("rebuild progress: %d/%d chunks", end, len(chunks))
	}
	return nil
}
