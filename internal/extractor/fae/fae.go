// Package fae extracts text and side-metadata from exported conversational
// AI transcripts (the "FAE import" in spec.md terms), dispatching on a
// top-level "provider" field to a small per-provider schema mapping. Adding
// a new provider means adding one file to this package, not touching the
// extraction pipeline.
package fae

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/extractor"
)

// Message is one turn of a conversation, normalized across providers.
type Message struct {
	Role    string
	Content string
}

// Conversation is a provider export normalized into the common shape every
// provider mapper converts into.
type Conversation struct {
	ConversationID string
	Messages       []Message
}

// Mapper converts one provider's raw JSON export into the common
// Conversation shape.
type Mapper func(raw []byte) (Conversation, error)

// Registry dispatches on the export's "provider" field.
type Registry struct {
	mappers map[string]Mapper
}

// NewRegistry builds a Registry with the built-in chatgpt/claude/gemini
// schema mappers.
func NewRegistry() *Registry {
	return &Registry{mappers: map[string]Mapper{
		"chatgpt": mapChatGPT,
		"claude":  mapClaude,
		"gemini":  mapGemini,
	}}
}

// Register adds or overrides a provider mapper.
func (r *Registry) Register(provider string, m Mapper) {
	r.mappers[provider] = m
}

type envelope struct {
	Provider            string `json:"provider"`
	ExportFormatVersion string `json:"export_format_version"`
}

// Extractor implements extractor.Extractor for FAE JSON exports.
type Extractor struct {
	registry *Registry
}

func NewExtractor() *Extractor {
	return &Extractor{registry: NewRegistry()}
}

func (e *Extractor) Register(provider string, m Mapper) {
	e.registry.Register(provider, m)
}

var _ extractor.Extractor = (*Extractor)(nil)

func (e *Extractor) Extract(ctx context.Context, path string, data []byte) (extractor.ExtractResult, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return extractor.ExtractResult{}, fmt.Errorf("fae: parse envelope: %w", err)
	}
	mapper, ok := e.registry.mappers[env.Provider]
	if !ok {
		return extractor.ExtractResult{}, fmt.Errorf("fae: unrecognized provider %q", env.Provider)
	}

	conv, err := mapper(data)
	if err != nil {
		return extractor.ExtractResult{}, fmt.Errorf("fae: map %s export: %w", env.Provider, err)
	}

	var sb strings.Builder
	for _, m := range conv.Messages {
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n\n")
	}

	return extractor.ExtractResult{
		Text:      sb.String(),
		ChunkKind: catalog.ChunkProse,
		FAEMetadata: &catalog.FAEMetadataRecord{
			Provider:            env.Provider,
			ConversationID:      conv.ConversationID,
			ExportFormatVersion: env.ExportFormatVersion,
		},
	}, nil
}
