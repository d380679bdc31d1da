package extractor

import (
	"context"
	"unicode/utf8"

	"github.com/excavator/excavator/internal/catalog"
)

// PlaintextExtractor handles plain text and markdown files: the raw bytes
// decoded as UTF-8, replacing invalid sequences, are the document text.
type PlaintextExtractor struct{}

func NewPlaintextExtractor() *PlaintextExtractor { return &PlaintextExtractor{} }

func (PlaintextExtractor) Extract(ctx context.Context, path string, data []byte) (ExtractResult, error) {
	text := string(data)
	if !utf8.ValidString(text) {
		text = string([]rune(text))
	}
	return ExtractResult{Text: text, ChunkKind: catalog.ChunkProse}, nil
}
