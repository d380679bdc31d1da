package extractor

import (
	"context"

	"github.com/excavator/excavator/internal/catalog"
)

// SourceExtractor handles source code files: the document text is the raw
// file content, tagged ChunkCode so the pipeline routes it through the code
// chunker rather than the prose chunker.
type SourceExtractor struct{}

func NewSourceExtractor() *SourceExtractor { return &SourceExtractor{} }

func (SourceExtractor) Extract(ctx context.Context, path string, data []byte) (ExtractResult, error) {
	return ExtractResult{Text: string(data), ChunkKind: catalog.ChunkCode}, nil
}
