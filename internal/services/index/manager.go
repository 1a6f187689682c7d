package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/interfaces"
	"github.com/ternarybob/responsa/internal/models"
	"github.com/ternarybob/responsa/internal/services/ingest"
	"github.com/ternarybob/responsa/internal/vectorstore"
)

// Manager owns the two vector indexes and their lifecycle
// (Unbuilt -> Building -> Ready). It prefers restoring a persisted cache
// over rebuilding, and persists whatever it builds. Builds are serialized
// by a mutex; readers only ever observe atomically published Ready
// indexes, never a half-built one.
type Manager struct {
	cfg      *common.Config
	loader   *ingest.Loader
	embedder interfaces.LLMService
	logger   arbor.ILogger

	buildMu sync.Mutex // one builder at a time

	mu       sync.RWMutex
	phases   map[models.IndexKind]models.IndexPhase
	indexes  map[models.IndexKind]interfaces.VectorIndex
	restored map[models.IndexKind]bool
}

// NewManager creates an index manager with both kinds Unbuilt
func NewManager(cfg *common.Config, loader *ingest.Loader, embedder interfaces.LLMService, logger arbor.ILogger) *Manager {
	return &Manager{
		cfg:      cfg,
		loader:   loader,
		embedder: embedder,
		logger:   logger,
		phases: map[models.IndexKind]models.IndexPhase{
			models.IndexAuthoritative: models.PhaseUnbuilt,
			models.IndexSupplemental:  models.PhaseUnbuilt,
		},
		indexes:  make(map[models.IndexKind]interfaces.VectorIndex),
		restored: make(map[models.IndexKind]bool),
	}
}

// Build produces a Ready index for each kind. It is idempotent: kinds
// already Ready are left untouched, so repeat invocations never
// duplicate passages. The only fatal condition is an authoritative
// source that yields no passages.
func (m *Manager) Build(ctx context.Context) error {
	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	if err := m.buildAuthoritative(ctx); err != nil {
		return err
	}
	m.buildSupplemental(ctx)
	m.persistAll(ctx)

	return nil
}

func (m *Manager) buildAuthoritative(ctx context.Context) error {
	kind := models.IndexAuthoritative
	if m.phase(kind) == models.PhaseReady {
		m.logger.Debug().Str("kind", string(kind)).Msg("Index already ready, skipping build")
		return nil
	}

	m.setPhase(kind, models.PhaseBuilding)

	if store, err := vectorstore.Restore(m.cachePath(kind), m.embedder, m.logger); err == nil {
		m.publish(kind, store, true)
		return nil
	} else {
		m.logger.Info().Err(err).Str("kind", string(kind)).Msg("Cache restore failed, rebuilding index")
	}

	passages := m.loader.LoadFacts(m.cfg.Sources.FactsFile)
	if len(passages) == 0 {
		m.setPhase(kind, models.PhaseUnbuilt)
		return fmt.Errorf("no authoritative passages loaded from %s", m.cfg.Sources.FactsFile)
	}

	store := m.buildStore(ctx, kind, passages)
	m.publish(kind, store, false)
	return nil
}

func (m *Manager) buildSupplemental(ctx context.Context) {
	kind := models.IndexSupplemental
	if m.phase(kind) == models.PhaseReady {
		m.logger.Debug().Str("kind", string(kind)).Msg("Index already ready, skipping build")
		return
	}

	m.setPhase(kind, models.PhaseBuilding)

	if store, err := vectorstore.Restore(m.cachePath(kind), m.embedder, m.logger); err == nil {
		m.publish(kind, store, true)
		return
	}

	// A missing supplemental source is not an error: the kind stays
	// Unbuilt and behaves as an always-empty index on query.
	path := m.cfg.Sources.ExternalFile
	if path == "" {
		m.setPhase(kind, models.PhaseUnbuilt)
		return
	}
	if _, err := os.Stat(path); err != nil {
		m.logger.Info().Str("path", path).Msg("Supplemental source absent, index stays empty")
		m.setPhase(kind, models.PhaseUnbuilt)
		return
	}

	passages := m.loader.LoadExternal(path)
	if len(passages) == 0 {
		m.setPhase(kind, models.PhaseUnbuilt)
		return
	}

	store := m.buildStore(ctx, kind, passages)
	m.publish(kind, store, false)
}

// buildStore inserts passages in batches of batch_size, pausing
// retry_delay between successive batches to respect the embedding
// provider's rate limits. A failed batch is dropped (logged, followed by
// a doubled pause), so a partial build still ends Ready.
func (m *Manager) buildStore(ctx context.Context, kind models.IndexKind, passages []models.Passage) interfaces.VectorIndex {
	store := vectorstore.New(m.embedder, m.logger)
	batchSize := m.cfg.Processing.BatchSize

	for start := 0; start < len(passages); start += batchSize {
		end := start + batchSize
		if end > len(passages) {
			end = len(passages)
		}
		batch := passages[start:end]
		batchNum := start/batchSize + 1

		if err := store.Insert(ctx, batch); err != nil {
			m.logger.Warn().
				Err(err).
				Str("kind", string(kind)).
				Int("batch", batchNum).
				Int("dropped", len(batch)).
				Msg("Batch insert failed, continuing with next batch")
			m.pause(ctx, 2*m.cfg.Processing.RetryDelay)
			continue
		}

		m.logger.Debug().
			Str("kind", string(kind)).
			Int("batch", batchNum).
			Int("passages", len(batch)).
			Msg("Batch inserted")

		if end < len(passages) {
			m.pause(ctx, m.cfg.Processing.RetryDelay)
		}
	}

	m.logger.Info().
		Str("kind", string(kind)).
		Int("indexed", store.Count()).
		Int("loaded", len(passages)).
		Msg("Index built")

	return store
}

// pause is the deliberate rate-limit-compliance delay between batches.
// It must not be parallelized away.
func (m *Manager) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// persistAll writes every Ready index with content back to its cache
// location. Persistence failures are logged and non-fatal; the in-memory
// index stays usable for the process lifetime.
func (m *Manager) persistAll(ctx context.Context) {
	for _, kind := range []models.IndexKind{models.IndexAuthoritative, models.IndexSupplemental} {
		m.mu.RLock()
		idx := m.indexes[kind]
		ready := m.phases[kind] == models.PhaseReady
		m.mu.RUnlock()

		if !ready || idx == nil || idx.Count() == 0 {
			continue
		}
		if err := idx.Persist(ctx, m.cachePath(kind)); err != nil {
			m.logger.Warn().Err(err).Str("kind", string(kind)).Msg("Failed to persist index cache")
		}
	}
}

// Search queries the given index kind. A kind that is not Ready answers
// with an empty result, never an error.
func (m *Manager) Search(ctx context.Context, kind models.IndexKind, query string, k int) ([]models.Passage, error) {
	m.mu.RLock()
	idx := m.indexes[kind]
	ready := m.phases[kind] == models.PhaseReady
	m.mu.RUnlock()

	if !ready || idx == nil {
		return nil, nil
	}
	return idx.Search(ctx, query, k)
}

// Ready reports whether questions can be answered: the authoritative
// index must be Ready (the supplemental one is optional).
func (m *Manager) Ready() bool {
	return m.phase(models.IndexAuthoritative) == models.PhaseReady
}

// Status returns the externally visible state of both index kinds
func (m *Manager) Status() []models.IndexStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make([]models.IndexStatus, 0, 2)
	for _, kind := range []models.IndexKind{models.IndexAuthoritative, models.IndexSupplemental} {
		status := models.IndexStatus{
			Kind:     kind,
			Phase:    m.phases[kind],
			Restored: m.restored[kind],
		}
		if idx := m.indexes[kind]; idx != nil {
			status.Passages = idx.Count()
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func (m *Manager) phase(kind models.IndexKind) models.IndexPhase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phases[kind]
}

func (m *Manager) setPhase(kind models.IndexKind, phase models.IndexPhase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phases[kind] = phase
}

// publish atomically swaps in a Ready index so concurrent readers never
// observe partial state
func (m *Manager) publish(kind models.IndexKind, idx interfaces.VectorIndex, fromCache bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexes[kind] = idx
	m.phases[kind] = models.PhaseReady
	m.restored[kind] = fromCache

	m.logger.Info().
		Str("kind", string(kind)).
		Int("passages", idx.Count()).
		Bool("from_cache", fromCache).
		Msg("Index ready")
}

func (m *Manager) cachePath(kind models.IndexKind) string {
	return filepath.Join(m.cfg.Storage.CacheDir, fmt.Sprintf("%s_vectorstore", kind))
}
