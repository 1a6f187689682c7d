package vectorstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/interfaces"
	"github.com/ternarybob/responsa/internal/models"
)

// fakeEmbedder returns configured vectors per text, with a uniform
// default so ties resolve by insertion order
type fakeEmbedder struct {
	vectors map[string][]float32
	failOn  string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.failOn != "" && text == f.failOn {
		return nil, fmt.Errorf("embedding rejected")
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) Generate(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("not a generator")
}

func (f *fakeEmbedder) HealthCheck(ctx context.Context) error { return nil }

func (f *fakeEmbedder) GetProvider() interfaces.ProviderType { return "fake" }

func (f *fakeEmbedder) Close() error { return nil }

func passage(docID, content string) models.Passage {
	return models.Passage{
		Content:    content,
		SourceKind: models.SourceAuthoritative,
		DocID:      docID,
		ChunkID:    "c1",
	}
}

func TestSearchOrdersBySimilarity(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"about batteries": {1, 0, 0},
		"about seats":     {0, 1, 0},
		"about wheels":    {0, 0, 1},
		"battery query":   {0.9, 0.1, 0},
	}}
	store := New(embedder, common.GetLogger())

	require.NoError(t, store.Insert(context.Background(), []models.Passage{
		passage("F1", "about seats"),
		passage("F2", "about batteries"),
		passage("F3", "about wheels"),
	}))

	results, err := store.Search(context.Background(), "battery query", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "F2", results[0].DocID)
	assert.Equal(t, "F1", results[1].DocID)
}

func TestSearchEmptyStore(t *testing.T) {
	store := New(&fakeEmbedder{}, common.GetLogger())

	results, err := store.Search(context.Background(), "anything", 3)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchKLargerThanStore(t *testing.T) {
	store := New(&fakeEmbedder{}, common.GetLogger())
	require.NoError(t, store.Insert(context.Background(), []models.Passage{
		passage("F1", "one"),
		passage("F2", "two"),
	}))

	results, err := store.Search(context.Background(), "query", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestInsertFailsWholeBatch(t *testing.T) {
	embedder := &fakeEmbedder{failOn: "poison"}
	store := New(embedder, common.GetLogger())

	err := store.Insert(context.Background(), []models.Passage{
		passage("F1", "fine"),
		passage("F2", "poison"),
	})

	require.Error(t, err)
	assert.Equal(t, 0, store.Count())
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"first":  {1, 0, 0},
		"second": {0, 1, 0},
		"query":  {0.6, 0.8, 0},
	}}
	store := New(embedder, common.GetLogger())

	require.NoError(t, store.Insert(context.Background(), []models.Passage{
		passage("F1", "first"),
		passage("F2", "second"),
	}))

	path := t.TempDir() + "/authoritative_vectorstore"
	require.NoError(t, store.Persist(context.Background(), path))

	restored, err := Restore(path, embedder, common.GetLogger())
	require.NoError(t, err)
	assert.Equal(t, store.Count(), restored.Count())

	// The restored index answers identically, in the same order
	want, err := store.Search(context.Background(), "query", 2)
	require.NoError(t, err)
	got, err := restored.Search(context.Background(), "query", 2)
	require.NoError(t, err)

	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.Equal(t, want[i].CitationKey(), got[i].CitationKey())
	}
}

func TestRestoreMissingCache(t *testing.T) {
	_, err := Restore(t.TempDir()+"/nothing_here", &fakeEmbedder{}, common.GetLogger())
	assert.Error(t, err)
}
