// Package ner recognizes named entities inside a chunk of text. A pluggable
// Recognizer interface allows a neural backend to be registered, but a
// regex-based technology-term detector always runs and augments whatever
// the configured Recognizer produces.
package ner

import "github.com/excavator/excavator/internal/catalog"

// Mention is a single recognized entity occurrence within a chunk, not yet
// assigned a catalog ID.
type Mention struct {
	SurfaceForm string
	Type        catalog.EntityType
	Offset      int
	Confidence  float64
}

// Recognizer is the capability interface a neural NER backend implements.
// None is bundled by default; the pack's examples do not carry a ready-to-use
// neural NER model, so the built-in detector below is the only Recognizer
// wired in until one is registered.
type Recognizer interface {
	Recognize(text string) ([]Mention, error)
}

// Pipeline runs an optional neural Recognizer plus the always-on TechTerm
// detector, merging their output.
type Pipeline struct {
	Neural Recognizer
	Tech   *TechTermDetector
}

// New builds a Pipeline. neural may be nil, in which case only the
// technology-term detector runs.
func New(neural Recognizer) *Pipeline {
	return &Pipeline{Neural: neural, Tech: NewTechTermDetector()}
}

func (p *Pipeline) Recognize(text string) ([]Mention, error) {
	var out []Mention
	if p.Neural != nil {
		mentions, err := p.Neural.Recognize(text)
		if err != nil {
			return nil, err
		}
		out = append(out, mentions...)
	}
	out = append(out, p.Tech.Recognize(text)...)
	return out, nil
}
