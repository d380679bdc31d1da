// Package chunk splits extracted file text into bounded pieces suitable for
// embedding and entity recognition. Prose is split on paragraph/sentence
// boundaries toward a soft 500-1000 token target; source code is split on
// top-level declarations using tree-sitter, falling back to the prose
// splitter for unsupported languages.
package chunk

import "github.com/excavator/excavator/internal/catalog"

// Piece is one chunk of text produced by a Chunker, not yet assigned a
// catalog ID -- the pipeline fills that in when it persists the chunk.
type Piece struct {
	Text        string
	StartOffset int
	EndOffset   int
	TokenCount  int
	Kind        catalog.ChunkKind
}

// Chunker splits text (or source code) into bounded Pieces.
type Chunker interface {
	Chunk(text string) ([]Piece, error)
}

// estimateTokens approximates token count without a tokenizer, matching the
// teacher's own whitespace-based token estimate used elsewhere for budget
// checks.
func estimateTokens(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		isSpace := r == ' ' || r == '\n' || r == '\t' || r == '\r'
		if isSpace {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}
