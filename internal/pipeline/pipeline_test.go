package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/vectorstore"
)

type fakeEmbedder struct{ dims int }

func (f fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, f.dims), nil
}
func (f fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dims)
	}
	return out, nil
}
func (f fakeEmbedder) Dimensions() int { return f.dims }
func (f fakeEmbedder) Name() string    { return "fake" }

func newTestPipeline(t *testing.T) (*Pipeline, *catalog.Store) {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "p.db"), "5s")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	vs, err := vectorstore.Open(store.DB(), fakeEmbedder{dims: 4}, 4, false)
	require.NoError(t, err)

	p := New(store, vs, fakeEmbedder{dims: 4}, nil, Config{EmbedBatchSize: 8})
	return p, store
}

func TestProcessFileIndexesProseFile(t *testing.T) {
	p, store := newTestPipeline(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("We use Python and Kubernetes daily.\n\nJane Doe wrote this.\n"), 0644))

	require.NoError(t, p.ProcessFile(context.Background(), path))

	f, err := store.GetFileByPath(path)
	require.NoError(t, err)
	assert.Equal(t, catalog.FileIndexed, f.Status)

	chunks, err := store.IterChunks(f.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}

func TestProcessFileErrorsOnMissingFile(t *testing.T) {
	p, _ := newTestPipeline(t)
	err := p.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}

func TestProcessFileChunksGoSource(t *testing.T) {
	p, store := newTestPipeline(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	src := "package main\n\nfunc main() {}\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	require.NoError(t, p.ProcessFile(context.Background(), path))

	f, err := store.GetFileByPath(path)
	require.NoError(t, err)
	chunks, err := store.IterChunks(f.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, catalog.ChunkCode, chunks[0].Kind)
}
