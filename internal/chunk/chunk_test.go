package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProseChunkerSplitsOnParagraphs(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("This is a reasonably long sentence about file indexing and correlation. ")
		sb.WriteString("\n\n")
	}
	c := NewProseChunker()
	c.MinTokens = 100
	c.MaxTokens = 200

	pieces, err := c.Chunk(sb.String())
	require.NoError(t, err)
	require.NotEmpty(t, pieces)
	for _, p := range pieces {
		assert.LessOrEqual(t, p.TokenCount, 260, "chunk should stay near the soft max token target")
	}
}

func TestProseChunkerSingleShortParagraph(t *testing.T) {
	c := NewProseChunker()
	pieces, err := c.Chunk("a short note")
	require.NoError(t, err)
	require.Len(t, pieces, 1)
	assert.Equal(t, "a short note", pieces[0].Text)
}

func TestCodeChunkerSplitsGoTopLevelDecls(t *testing.T) {
	src := `package main

func First() int {
	return 1
}

func Second() int {
	return 2
}
`
	c := NewCodeChunker("go")
	pieces, err := c.Chunk(src)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(pieces), 2)

	joined := ""
	for _, p := range pieces {
		joined += p.Text
	}
	assert.Contains(t, joined, "func First")
	assert.Contains(t, joined, "func Second")
}

func TestCodeChunkerFallsBackForUnknownLanguage(t *testing.T) {
	c := NewCodeChunker("cobol")
	pieces, err := c.Chunk("IDENTIFICATION DIVISION.\n")
	require.NoError(t, err)
	require.NotEmpty(t, pieces)
}

func TestForExtensionResolvesLanguage(t *testing.T) {
	_, ok := ForExtension(".go").(*CodeChunker)
	assert.True(t, ok)
	_, ok = ForExtension(".md").(*ProseChunker)
	assert.True(t, ok)
}
