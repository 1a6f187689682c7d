package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/models"
)

func newTestLoader(chunkSize, overlap int) *Loader {
	cfg := &common.ProcessingConfig{
		ChunkSize:    chunkSize,
		ChunkOverlap: overlap,
	}
	return NewLoader(cfg, common.GetLogger())
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFactsSequentialIDs(t *testing.T) {
	loader := newTestLoader(10, 0)
	path := writeTempFile(t, "facts.md", "abcdefghijklmnopqrstuvwxyz")

	passages := loader.LoadFacts(path)
	require.Len(t, passages, 3)

	for i, p := range passages {
		assert.Equal(t, models.SourceAuthoritative, p.SourceKind)
		assert.Equal(t, fmt.Sprintf("F%d", i+1), p.DocID)
		assert.Equal(t, fmt.Sprintf("c%d", i+1), p.ChunkID)
		assert.Equal(t, path, p.Origin)
	}
}

func TestLoadFactsDeterministic(t *testing.T) {
	loader := newTestLoader(10, 2)
	path := writeTempFile(t, "facts.md", strings.Repeat("0123456789", 10))

	first := loader.LoadFacts(path)
	second := loader.LoadFacts(path)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}

func TestLoadFactsMissingFile(t *testing.T) {
	loader := newTestLoader(800, 100)

	passages := loader.LoadFacts(filepath.Join(t.TempDir(), "does-not-exist.md"))
	assert.Empty(t, passages)
}

func TestLoadExternalDropsShortRecords(t *testing.T) {
	loader := newTestLoader(800, 100)
	path := writeTempFile(t, "external.json", `[
		{"video_id": "v1", "title": "First", "transcript": "short"},
		{"video_id": "v2", "title": "Second", "transcript": "this transcript is long enough to keep"},
		{"video_id": "v3", "title": "Third", "transcript": "   padded but still too short   "}
	]`)

	passages := loader.LoadExternal(path)
	require.Len(t, passages, 2)

	// Doc ids reflect original record position even when earlier records
	// are dropped.
	assert.Equal(t, "E2", passages[0].DocID)
	assert.Equal(t, "c1", passages[0].ChunkID)
	assert.Equal(t, "Second", passages[0].Title)
	assert.Equal(t, "v2", passages[0].Origin)

	assert.Equal(t, "E3", passages[1].DocID)
	assert.Equal(t, models.SourceSupplemental, passages[1].SourceKind)
}

func TestLoadExternalNestedTranscriptWins(t *testing.T) {
	loader := newTestLoader(800, 100)
	path := writeTempFile(t, "external.json", `[
		{"video_id": "v1", "title": "Nested", "transcript": "flat transcript that is long enough",
		 "transcriptText": {"content": "nested transcript content that is long enough"}}
	]`)

	passages := loader.LoadExternal(path)
	require.Len(t, passages, 1)
	assert.Equal(t, "nested transcript content that is long enough", passages[0].Content)
}

func TestLoadExternalSplitsLongRecords(t *testing.T) {
	loader := newTestLoader(30, 0)
	long := strings.Repeat("sentence with enough content ", 4) // 116 runes
	path := writeTempFile(t, "external.json", `[
		{"video_id": "v1", "title": "Long", "transcript": "`+long+`"}
	]`)

	passages := loader.LoadExternal(path)
	require.Greater(t, len(passages), 1)

	for _, p := range passages {
		assert.Equal(t, "E1", p.DocID)
		assert.Equal(t, "Long", p.Title)
	}
	assert.Equal(t, "c1", passages[0].ChunkID)
	assert.Equal(t, "c2", passages[1].ChunkID)
}

func TestLoadExternalMalformedJSON(t *testing.T) {
	loader := newTestLoader(800, 100)
	path := writeTempFile(t, "external.json", `{not valid json`)

	passages := loader.LoadExternal(path)
	assert.Empty(t, passages)
}

func TestLoadExternalEmptyArray(t *testing.T) {
	loader := newTestLoader(800, 100)
	path := writeTempFile(t, "external.json", `[]`)

	passages := loader.LoadExternal(path)
	assert.Empty(t, passages)
}
