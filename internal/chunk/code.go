package chunk

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/logging"
)

// topLevelNodeTypes lists the tree-sitter node types treated as natural
// chunk boundaries per language, grounded on the teacher's AST symbol
// extractor which walks these same declaration kinds.
var topLevelNodeTypes = map[string]map[string]bool{
	"go":         {"function_declaration": true, "method_declaration": true, "type_declaration": true},
	"python":     {"function_definition": true, "class_definition": true},
	"javascript": {"function_declaration": true, "class_declaration": true, "lexical_declaration": true},
	"typescript": {"function_declaration": true, "class_declaration": true, "interface_declaration": true, "lexical_declaration": true},
	"rust":       {"function_item": true, "impl_item": true, "struct_item": true, "enum_item": true, "trait_item": true},
}

// CodeChunker splits source code on top-level declarations via tree-sitter,
// applying a hard size cap that force-splits any declaration exceeding it.
// Unsupported languages fall back to ProseChunker.
type CodeChunker struct {
	Language  string
	MaxTokens int

	prose *ProseChunker
}

// NewCodeChunker builds a CodeChunker for the given language key (one of
// "go", "python", "javascript", "typescript", "rust"); any other value uses
// the prose fallback exclusively.
func NewCodeChunker(language string) *CodeChunker {
	return &CodeChunker{Language: language, MaxTokens: 1200, prose: NewProseChunker()}
}

func (c *CodeChunker) language() *sitter.Language {
	switch c.Language {
	case "go":
		return golang.GetLanguage()
	case "python":
		return python.GetLanguage()
	case "javascript":
		return javascript.GetLanguage()
	case "typescript":
		return typescript.GetLanguage()
	case "rust":
		return rust.GetLanguage()
	default:
		return nil
	}
}

func (c *CodeChunker) Chunk(text string) ([]Piece, error) {
	lang := c.language()
	if lang == nil {
		return c.prose.Chunk(text)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	content := []byte(text)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		logging.ExtractorDebug("tree-sitter parse failed for %s, falling back to prose chunking: %v", c.Language, err)
		return c.prose.Chunk(text)
	}
	defer tree.Close()

	boundaries := topLevelNodeTypes[c.Language]
	root := tree.RootNode()

	var pieces []Piece
	cursor := 0
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		if !boundaries[node.Type()] {
			continue
		}
		start, end := int(node.StartByte()), int(node.EndByte())
		if start > cursor {
			pieces = append(pieces, c.splitOversized(content[cursor:start], cursor)...)
		}
		pieces = append(pieces, c.splitOversized(content[start:end], start)...)
		cursor = end
	}
	if cursor < len(content) {
		pieces = append(pieces, c.splitOversized(content[cursor:], cursor)...)
	}

	if len(pieces) == 0 {
		return c.prose.Chunk(text)
	}
	return pieces, nil
}

// splitOversized hard-splits a single declaration's bytes if it exceeds
// MaxTokens, since the top-level boundary alone cannot bound chunk size for
// pathologically large declarations (a single 5000-line function, say).
func (c *CodeChunker) splitOversized(b []byte, offset int) []Piece {
	s := strings.TrimRight(string(b), "\n")
	if s == "" {
		return nil
	}
	if estimateTokens(s) <= c.MaxTokens {
		return []Piece{{
			Text:        s,
			StartOffset: offset,
			EndOffset:   offset + len(b),
			TokenCount:  estimateTokens(s),
			Kind:        catalog.ChunkCode,
		}}
	}

	lines := strings.SplitAfter(s, "\n")
	var pieces []Piece
	var buf strings.Builder
	bufStart := offset
	pos := offset
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		txt := buf.String()
		pieces = append(pieces, Piece{
			Text:        txt,
			StartOffset: bufStart,
			EndOffset:   bufStart + len(txt),
			TokenCount:  estimateTokens(txt),
			Kind:        catalog.ChunkCode,
		})
		buf.Reset()
	}
	for _, line := range lines {
		if buf.Len() > 0 && estimateTokens(buf.String())+estimateTokens(line) > c.MaxTokens {
			flush()
			bufStart = pos
		}
		buf.WriteString(line)
		pos += len(line)
	}
	flush()
	return pieces
}
