// Package extractor turns raw file bytes into plain text ready for chunking,
// dispatching by extension, then by a magic-byte sniff, and finally falling
// back to plaintext. PDF/DOCX/OCR/audio-transcription/vision adapters are
// named external collaborators (spec scope) and are not implemented here;
// the Extractor interface and the Registry's registration mechanism exist so
// they can be added without touching the pipeline.
package extractor

import (
	"context"
	"net/http"
	"strings"

	"github.com/excavator/excavator/internal/catalog"
)

// ExtractResult is the text pulled from a file, ready for chunking, plus any
// typed side-metadata the extractor produced along the way.
type ExtractResult struct {
	Text         string
	ChunkKind    catalog.ChunkKind
	FAEMetadata  *catalog.FAEMetadataRecord
}

// Extractor turns a file's raw bytes into an ExtractResult.
type Extractor interface {
	Extract(ctx context.Context, path string, data []byte) (ExtractResult, error)
}

// Registry resolves the right Extractor for a file, first by extension, then
// by sniffing its content, finally falling back to plaintext.
type Registry struct {
	byExtension map[string]Extractor
	plaintext   Extractor
}

// NewRegistry builds a Registry pre-populated with the built-in extractors.
func NewRegistry() *Registry {
	r := &Registry{
		byExtension: make(map[string]Extractor),
		plaintext:   NewPlaintextExtractor(),
	}
	source := NewSourceExtractor()
	for _, ext := range []string{".go", ".py", ".js", ".jsx", ".mjs", ".ts", ".tsx", ".rs", ".java", ".c", ".h", ".cpp", ".hpp"} {
		r.byExtension[ext] = source
	}
	for _, ext := range []string{".md", ".markdown", ".txt"} {
		r.byExtension[ext] = r.plaintext
	}
	return r
}

// Register associates an extension (including the leading dot) with an
// Extractor, allowing adapters like PDF/DOCX/vision/transcription to be
// added without modifying the pipeline.
func (r *Registry) Register(ext string, e Extractor) {
	r.byExtension[ext] = e
}

// Resolve picks the Extractor for path, sniffing content when the extension
// is unknown, and falling back to plaintext.
func (r *Registry) Resolve(path string, data []byte) Extractor {
	ext := extOf(path)
	if e, ok := r.byExtension[ext]; ok {
		return e
	}
	if sniffed := sniffKind(data); sniffed != "" {
		if e, ok := r.byExtension[sniffed]; ok {
			return e
		}
	}
	return r.plaintext
}

func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(path[i:])
}

// sniffKind maps http.DetectContentType's result to one of the extensions
// the Registry knows how to route, matching the teacher's pattern of
// preferring the standard library's own content-sniffing table over a
// hand-rolled one.
func sniffKind(data []byte) string {
	ct := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(ct, "text/plain"):
		return ".txt"
	default:
		return ""
	}
}
