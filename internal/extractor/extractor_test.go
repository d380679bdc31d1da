package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excavator/excavator/internal/catalog"
)

func TestRegistryResolvesByExtension(t *testing.T) {
	r := NewRegistry()
	e := r.Resolve("main.go", []byte("package main"))
	_, ok := e.(*SourceExtractor)
	assert.True(t, ok)

	e = r.Resolve("notes.md", []byte("# hi"))
	_, ok = e.(*PlaintextExtractor)
	assert.True(t, ok)
}

func TestRegistryFallsBackToPlaintext(t *testing.T) {
	r := NewRegistry()
	e := r.Resolve("mystery.xyz", []byte("plain ascii content"))
	_, ok := e.(*PlaintextExtractor)
	assert.True(t, ok)
}

func TestSourceExtractorTagsCodeKind(t *testing.T) {
	e := NewSourceExtractor()
	res, err := e.Extract(context.Background(), "main.go", []byte("package main\n"))
	require.NoError(t, err)
	assert.Equal(t, catalog.ChunkCode, res.ChunkKind)
	assert.Contains(t, res.Text, "package main")
}

func TestPlaintextExtractorTagsProseKind(t *testing.T) {
	e := NewPlaintextExtractor()
	res, err := e.Extract(context.Background(), "notes.md", []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, catalog.ChunkProse, res.ChunkKind)
	assert.Equal(t, "hello world", res.Text)
}
