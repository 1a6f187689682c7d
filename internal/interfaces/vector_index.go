package interfaces

import (
	"context"

	"github.com/ternarybob/responsa/internal/models"
)

// VectorIndex is the nearest-neighbor service the pipeline queries.
// Implementations are append-once, read-many: many questions may call
// Search concurrently once the index is published; Insert is only called
// from the single-builder build path.
type VectorIndex interface {
	// Insert embeds and stores a batch of passages
	Insert(ctx context.Context, passages []models.Passage) error

	// Search returns the top-k passages by similarity to the query,
	// ordered best first
	Search(ctx context.Context, query string, k int) ([]models.Passage, error)

	// Count returns the number of stored passages
	Count() int

	// Persist writes the index to the given cache location so Restore
	// can reproduce identical search behavior
	Persist(ctx context.Context, path string) error
}
