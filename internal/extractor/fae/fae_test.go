package fae

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractChatGPTExport(t *testing.T) {
	raw := []byte(`{
		"provider": "chatgpt",
		"conversation_id": "conv-1",
		"export_format_version": "1",
		"mapping": {
			"a": {"message": {"author": {"role": "user"}, "content": {"parts": ["hi there"]}}},
			"b": {"message": {"author": {"role": "assistant"}, "content": {"parts": ["hello back"]}}}
		}
	}`)

	e := NewExtractor()
	res, err := e.Extract(context.Background(), "export.json", raw)
	require.NoError(t, err)
	require.NotNil(t, res.FAEMetadata)
	assert.Equal(t, "chatgpt", res.FAEMetadata.Provider)
	assert.Equal(t, "conv-1", res.FAEMetadata.ConversationID)
	assert.Contains(t, res.Text, "hi there")
	assert.Contains(t, res.Text, "hello back")
}

func TestExtractClaudeExport(t *testing.T) {
	raw := []byte(`{
		"provider": "claude",
		"export_format_version": "1",
		"uuid": "conv-2",
		"chat_messages": [
			{"sender": "human", "text": "question"},
			{"sender": "assistant", "text": "answer"}
		]
	}`)

	e := NewExtractor()
	res, err := e.Extract(context.Background(), "export.json", raw)
	require.NoError(t, err)
	assert.Equal(t, "conv-2", res.FAEMetadata.ConversationID)
	assert.Contains(t, res.Text, "question")
}

func TestExtractGeminiExport(t *testing.T) {
	raw := []byte(`{
		"provider": "gemini",
		"export_format_version": "1",
		"conversationId": "conv-3",
		"turns": [{"role": "user", "parts": ["what is go"]}]
	}`)

	e := NewExtractor()
	res, err := e.Extract(context.Background(), "export.json", raw)
	require.NoError(t, err)
	assert.Equal(t, "conv-3", res.FAEMetadata.ConversationID)
	assert.Contains(t, res.Text, "what is go")
}

func TestExtractUnknownProviderErrors(t *testing.T) {
	raw := []byte(`{"provider": "unknown"}`)
	e := NewExtractor()
	_, err := e.Extract(context.Background(), "export.json", raw)
	assert.Error(t, err)
}
