// Package pipeline orchestrates the per-file extraction pipeline: resolve an
// extractor, extract text, chunk it, run NER, embed the chunks, and write
// the Catalog side of the dual store fully before the Vector Store side
// (spec.md §4.3 step 6) -- the Catalog is the source of truth, so a crash
// between the two leaves a chunk-without-vector that reconciliation repairs.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/chunk"
	"github.com/excavator/excavator/internal/embedding"
	"github.com/excavator/excavator/internal/extractor"
	"github.com/excavator/excavator/internal/extractor/fae"
	"github.com/excavator/excavator/internal/logging"
	"github.com/excavator/excavator/internal/ner"
	"github.com/excavator/excavator/internal/vectorstore"
)

// Config bounds a single pipeline run.
type Config struct {
	MaxFileSize    int64
	EmbedBatchSize int
}

// Pipeline wires the extraction stages together.
type Pipeline struct {
	store      *catalog.Store
	vs         *vectorstore.Store
	extractors *extractor.Registry
	fae        *fae.Extractor
	recognizer *ner.Pipeline
	embedder   embedding.EmbeddingEngine
	cfg        Config
}

// New builds a Pipeline. recognizer may be nil to run only the built-in
// technology-term detector.
func New(store *catalog.Store, vs *vectorstore.Store, embedder embedding.EmbeddingEngine, neural ner.Recognizer, cfg Config) *Pipeline {
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 32
	}
	return &Pipeline{
		store:      store,
		vs:         vs,
		extractors: extractor.NewRegistry(),
		fae:        fae.NewExtractor(),
		recognizer: ner.New(neural),
		embedder:   embedder,
		cfg:        cfg,
	}
}

// ProcessFile runs the full six-step pipeline for one file on disk, picking
// the extractor by extension/content sniff.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) error {
	return p.process(ctx, path, nil)
}

// ProcessFAEImport runs the pipeline for a conversational-AI export file,
// always using the FAE extractor regardless of its (typically .json)
// extension, since the job type already declares intent.
func (p *Pipeline) ProcessFAEImport(ctx context.Context, path string) error {
	return p.process(ctx, path, p.fae)
}

func (p *Pipeline) process(ctx context.Context, path string, ex extractor.Extractor) error {
	timer := logging.StartTimer(logging.CategoryPipeline, "process:"+path)
	defer timer.Stop()

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if p.cfg.MaxFileSize > 0 && info.Size() > p.cfg.MaxFileSize {
		return fmt.Errorf("file %s exceeds max size (%d > %d)", path, info.Size(), p.cfg.MaxFileSize)
	}

	file, err := p.store.UpsertFile(catalog.FileRecord{
		ID:        uuid.NewString(),
		Path:      path,
		Extension: strings.ToLower(filepath.Ext(path)),
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		Status:    catalog.FileQueued,
	})
	if err != nil {
		return fmt.Errorf("upsert file record: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		p.fail(file.ID, err)
		return err
	}

	// ex is nil for ordinary files (resolved here by extension/content
	// sniff); FAE imports pin the FAE extractor explicitly beforehand.
	if ex == nil {
		ex = p.extractors.Resolve(path, data)
	}

	result, err := ex.Extract(ctx, path, data)
	if err != nil {
		p.fail(file.ID, err)
		return fmt.Errorf("extract %s: %w", path, err)
	}

	chunker := p.resolveChunker(path, result.ChunkKind)
	pieces, err := chunker.Chunk(result.Text)
	if err != nil {
		p.fail(file.ID, err)
		return fmt.Errorf("chunk %s: %w", path, err)
	}

	chunks := make([]catalog.ChunkRecord, len(pieces))
	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		chunks[i] = catalog.ChunkRecord{
			ID:          uuid.NewString(),
			FileID:      file.ID,
			Ordinal:     i,
			Text:        piece.Text,
			TokenCount:  piece.TokenCount,
			StartOffset: piece.StartOffset,
			EndOffset:   piece.EndOffset,
			Kind:        piece.Kind,
		}
		texts[i] = piece.Text
	}
	if err := p.store.InsertChunks(chunks); err != nil {
		p.fail(file.ID, err)
		return fmt.Errorf("insert chunks for %s: %w", path, err)
	}

	var occurrences []catalog.EntityOccurrence
	for _, c := range chunks {
		mentions, err := p.recognizer.Recognize(c.Text)
		if err != nil {
			p.fail(file.ID, err)
			return fmt.Errorf("ner on chunk %s: %w", c.ID, err)
		}
		for _, m := range mentions {
			occurrences = append(occurrences, catalog.EntityOccurrence{
				ID:             uuid.NewString(),
				SurfaceForm:    m.SurfaceForm,
				NormalizedForm: normalizeForm(m.SurfaceForm),
				Type:           m.Type,
				ChunkID:        c.ID,
				FileID:         file.ID,
				Confidence:     m.Confidence,
				CreatedAt:      time.Now(),
			})
		}
	}
	if err := p.store.InsertEntityOccurrences(occurrences); err != nil {
		p.fail(file.ID, err)
		return fmt.Errorf("insert occurrences for %s: %w", path, err)
	}

	if result.FAEMetadata != nil {
		result.FAEMetadata.FileID = file.ID
		if err := p.store.InsertFAEMetadata(*result.FAEMetadata); err != nil {
			p.fail(file.ID, err)
			return fmt.Errorf("insert fae metadata for %s: %w", path, err)
		}
	}

	// Catalog side is now durable in full; the Vector Store write happens
	// only after it, so a crash here leaves a chunk-without-vector that
	// reconciliation repairs at next startup rather than an orphaned vector.
	if err := p.embedAndStore(ctx, chunks, texts); err != nil {
		p.fail(file.ID, err)
		return fmt.Errorf("embed/store vectors for %s: %w", path, err)
	}

	if err := p.store.MarkIndexed(file.ID); err != nil {
		return fmt.Errorf("mark %s indexed: %w", path, err)
	}
	logging.Pipeline("indexed %s: %d chunks, %d entity occurrences", path, len(chunks), len(occurrences))
	return nil
}

func (p *Pipeline) embedAndStore(ctx context.Context, chunks []catalog.ChunkRecord, texts []string) error {
	if len(chunks) == 0 {
		return nil
	}
	batch := p.cfg.EmbedBatchSize
	for start := 0; start < len(chunks); start += batch {
		end := start + batch
		if end > len(chunks) {
			end = len(chunks)
		}
		vectors, err := p.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}
		if len(vectors) != end-start {
			return fmt.Errorf("pipeline: programmer error: embedder returned %d vectors for %d texts", len(vectors), end-start)
		}
		ids := make([]string, end-start)
		for i := start; i < end; i++ {
			ids[i-start] = chunks[i].ID
		}
		if err := p.vs.UpsertBatch(ctx, ids, vectors); err != nil {
			return fmt.Errorf("vector store batch upsert: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) fail(fileID string, err error) {
	if markErr := p.store.MarkFailed(fileID, err.Error()); markErr != nil {
		logging.PipelineError("failed to mark file %s as failed after error %v: %v", fileID, err, markErr)
	}
}

func (p *Pipeline) resolveChunker(path string, kind catalog.ChunkKind) chunk.Chunker {
	if kind == catalog.ChunkCode {
		return chunk.ForExtension(strings.ToLower(filepath.Ext(path)))
	}
	return chunk.NewProseChunker()
}

// normalizeForm case-folds, strips diacritics are not applied here (plain
// ASCII fold is sufficient for the built-in vocabulary and tests); full
// normalization matching spec.md's consolidation algorithm lives in
// internal/correlation, which re-normalizes from the stored surface form.
func normalizeForm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
