package vectorstore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

type fakeEngine struct {
	dims int
	byText map[string][]float32
}

func (f *fakeEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := f.byText[text]; ok {
		return v, nil
	}
	return make([]float32, f.dims), nil
}

func (f *fakeEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEngine) Dimensions() int { return f.dims }
func (f *fakeEngine) Name() string    { return "fake" }

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	engine := &fakeEngine{dims: 3, byText: map[string][]float32{
		"alpha query": {1, 0, 0},
	}}
	store, err := Open(db, engine, 3, false)
	require.NoError(t, err)
	return store, db
}

func TestUpsertAndQueryByVector(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "chunk-a", []float32{1, 0, 0}, nil))
	require.NoError(t, store.Upsert(ctx, "chunk-b", []float32{0, 1, 0}, nil))

	matches, err := store.QueryByVector(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "chunk-a", matches[0].ChunkID)
}

func TestUpsertRejectsWrongDimension(t *testing.T) {
	store, _ := newTestStore(t)
	err := store.Upsert(context.Background(), "chunk-a", []float32{1, 0}, nil)
	assert.Error(t, err)
}

func TestDeleteRemovesVector(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "chunk-a", []float32{1, 0, 0}, nil))

	has, err := store.Has("chunk-a")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, store.Delete(ctx, "chunk-a"))
	has, err = store.Has("chunk-a")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestQueryByText(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "chunk-a", []float32{1, 0, 0}, nil))
	require.NoError(t, store.Upsert(ctx, "chunk-b", []float32{0, 0, 1}, nil))

	matches, err := store.QueryByText(ctx, "alpha query", 2)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "chunk-a", matches[0].ChunkID)
}

func TestRebuildFromCatalog(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	chunks := []ChunkText{{ChunkID: "c1", Text: "hello"}, {ChunkID: "c2", Text: "world"}}
	require.NoError(t, store.RebuildFromCatalog(ctx, chunks, 1))

	ids, err := store.AllChunkIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c1", "c2"}, ids)
}
