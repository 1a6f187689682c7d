package vectorstore

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsa/internal/interfaces"
	"github.com/ternarybob/responsa/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// entry pairs a passage with its embedding and its insertion position.
// Position keeps search ordering deterministic across persist/restore.
type entry struct {
	Passage   models.Passage
	Embedding []float32
	Position  int
}

// Store is an in-memory cosine-similarity index over embedded passages,
// with Badger-backed persistence. Inserts happen only on the
// single-builder path; searches are read-only and safe concurrently.
type Store struct {
	embedder interfaces.LLMService
	logger   arbor.ILogger

	mu      sync.RWMutex
	entries []entry
}

// New creates an empty store that embeds through the given service
func New(embedder interfaces.LLMService, logger arbor.ILogger) *Store {
	return &Store{
		embedder: embedder,
		logger:   logger,
	}
}

// Insert embeds and stores a batch of passages. A failed embedding fails
// the whole batch; the caller decides whether to tolerate the loss.
func (s *Store) Insert(ctx context.Context, passages []models.Passage) error {
	embedded := make([]entry, 0, len(passages))
	for _, p := range passages {
		vector, err := s.embedder.Embed(ctx, p.Content)
		if err != nil {
			return fmt.Errorf("failed to embed passage %s: %w", p.CitationKey(), err)
		}
		embedded = append(embedded, entry{Passage: p, Embedding: vector})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range embedded {
		embedded[i].Position = len(s.entries)
		s.entries = append(s.entries, embedded[i])
	}
	return nil
}

// Search returns the top-k passages by cosine similarity to the query,
// best first. An empty store returns no results and no error.
func (s *Store) Search(ctx context.Context, query string, k int) ([]models.Passage, error) {
	s.mu.RLock()
	empty := len(s.entries) == 0
	s.mu.RUnlock()
	if empty || k <= 0 {
		return nil, nil
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		passage models.Passage
		score   float64
	}
	results := make([]scored, 0, len(s.entries))
	for _, e := range s.entries {
		results = append(results, scored{
			passage: e.Passage,
			score:   cosineSimilarity(queryVector, e.Embedding),
		})
	}

	// Stable sort keeps insertion order on ties, so a restored index
	// returns the same sequence the persisted one did.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if k > len(results) {
		k = len(results)
	}
	passages := make([]models.Passage, 0, k)
	for _, r := range results[:k] {
		passages = append(passages, r.passage)
	}
	return passages, nil
}

// Count returns the number of stored passages
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// storedRecord is the on-disk shape of one entry
type storedRecord struct {
	Key        string
	SourceKind string
	DocID      string
	ChunkID    string
	Title      string
	Origin     string
	Content    string
	Embedding  []float32
	Position   int
}

// Persist writes all entries to a Badger database at path. Embeddings
// are persisted, so a restored store searches identically without
// re-embedding anything.
func (s *Store) Persist(ctx context.Context, path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := openBadger(path)
	if err != nil {
		return err
	}
	defer db.Close()

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		record := storedRecord{
			Key:        e.Passage.CitationKey(),
			SourceKind: string(e.Passage.SourceKind),
			DocID:      e.Passage.DocID,
			ChunkID:    e.Passage.ChunkID,
			Title:      e.Passage.Title,
			Origin:     e.Passage.Origin,
			Content:    e.Passage.Content,
			Embedding:  e.Embedding,
			Position:   e.Position,
		}
		if err := db.Upsert(record.Key, &record); err != nil {
			return fmt.Errorf("failed to persist passage %s: %w", record.Key, err)
		}
	}

	s.logger.Debug().Int("passages", len(s.entries)).Str("path", path).Msg("Vector store persisted")
	return nil
}

// Restore loads a previously persisted store from path. Missing or empty
// caches are errors; the caller falls back to a rebuild.
func Restore(path string, embedder interfaces.LLMService, logger arbor.ILogger) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no cache at %s: %w", path, err)
	}

	db, err := openBadger(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var records []storedRecord
	if err := db.Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to read cache at %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("cache at %s is empty", path)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Position < records[j].Position
	})

	store := New(embedder, logger)
	store.entries = make([]entry, 0, len(records))
	for _, r := range records {
		store.entries = append(store.entries, entry{
			Passage: models.Passage{
				Content:    r.Content,
				SourceKind: models.SourceKind(r.SourceKind),
				DocID:      r.DocID,
				ChunkID:    r.ChunkID,
				Title:      r.Title,
				Origin:     r.Origin,
			},
			Embedding: r.Embedding,
			Position:  r.Position,
		})
	}

	logger.Debug().Int("passages", len(records)).Str("path", path).Msg("Vector store restored from cache")
	return store, nil
}

func openBadger(path string) (*badgerhold.Store, error) {
	options := badgerhold.DefaultOptions
	options.Options = badger.DefaultOptions(path).
		WithLogger(nil). // arbor handles logging
		WithIndexCacheSize(32 << 20)

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database at %s: %w", path, err)
	}
	return db, nil
}

// cosineSimilarity returns the cosine of the angle between two vectors,
// or 0 when either has zero magnitude or lengths differ
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
