package chunk

import (
	"strings"

	"github.com/excavator/excavator/internal/catalog"
)

// ProseChunker splits plain text or markdown into soft-bounded chunks,
// preferring to break on blank-line paragraph boundaries and falling back
// to sentence boundaries when a single paragraph exceeds MaxTokens.
type ProseChunker struct {
	MinTokens int
	MaxTokens int
}

// NewProseChunker returns a ProseChunker targeting the spec's 500-1000 token
// soft window.
func NewProseChunker() *ProseChunker {
	return &ProseChunker{MinTokens: 500, MaxTokens: 1000}
}

func (c *ProseChunker) Chunk(text string) ([]Piece, error) {
	if c.MinTokens <= 0 {
		c.MinTokens = 500
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1000
	}

	paragraphs := splitParagraphs(text)
	var pieces []Piece
	var buf strings.Builder
	bufStart := 0
	offset := 0
	flush := func(end int) {
		if buf.Len() == 0 {
			return
		}
		s := buf.String()
		pieces = append(pieces, Piece{
			Text:        s,
			StartOffset: bufStart,
			EndOffset:   end,
			TokenCount:  estimateTokens(s),
			Kind:        catalog.ChunkProse,
		})
		buf.Reset()
	}

	for _, p := range paragraphs {
		pStart := offset
		offset += len(p.text)

		if estimateTokens(p.text) > c.MaxTokens {
			flush(pStart)
			for _, sentence := range splitSentences(p.text) {
				if buf.Len() > 0 && estimateTokens(buf.String())+estimateTokens(sentence) > c.MaxTokens {
					flush(pStart)
					bufStart = pStart
				}
				if buf.Len() == 0 {
					bufStart = pStart
				}
				buf.WriteString(sentence)
			}
			flush(offset)
			bufStart = offset
			continue
		}

		if buf.Len() == 0 {
			bufStart = pStart
		}
		if buf.Len() > 0 && estimateTokens(buf.String()) >= c.MinTokens {
			flush(pStart)
			bufStart = pStart
		}
		buf.WriteString(p.text)
	}
	flush(offset)

	if len(pieces) == 0 && len(text) > 0 {
		pieces = append(pieces, Piece{Text: text, StartOffset: 0, EndOffset: len(text), TokenCount: estimateTokens(text), Kind: catalog.ChunkProse})
	}
	return pieces, nil
}

type paragraph struct{ text string }

func splitParagraphs(text string) []paragraph {
	raw := strings.SplitAfter(text, "\n\n")
	out := make([]paragraph, 0, len(raw))
	for _, r := range raw {
		if r == "" {
			continue
		}
		out = append(out, paragraph{text: r})
	}
	return out
}

func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	for _, r := range text {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
