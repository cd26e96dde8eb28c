// Package vectorstore provides vector index implementations for chunk
// embeddings.
//
// Three interchangeable backends sit behind the Index interface: an in-memory
// flat index, an embedded chromem-go database, and an external Qdrant service.
// All backends honor the same Filter semantics, so retrieval code is backend
// agnostic.
package vectorstore

import (
	"context"
	"errors"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDimensionMismatch is returned when a vector's dimensionality does not
	// match the index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyVector indicates an empty or nil vector.
	ErrEmptyVector = errors.New("empty or nil vector")

	// ErrStoreUnavailable indicates the backing store cannot be reached.
	ErrStoreUnavailable = errors.New("vector store unavailable")
)

// Result is a single similarity search hit.
type Result struct {
	// ID is the vector identifier supplied at Add time.
	ID string `json:"id"`

	// Score is the cosine similarity to the query vector, higher is closer.
	Score float32 `json:"score"`

	// Metadata is the metadata stored alongside the vector.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Index is the interface for vector storage backends.
//
// An index has a fixed dimensionality set at construction time, matching the
// embedding provider's output. Adding a vector under an existing ID replaces
// the stored vector, so re-indexing content is idempotent.
type Index interface {
	// Add stores a vector with its metadata under the given ID.
	// Returns ErrDimensionMismatch if the vector has the wrong length.
	Add(ctx context.Context, id string, vector []float32, metadata map[string]string) error

	// Search returns up to k results ordered by descending similarity.
	// When filter is non-nil, only vectors whose metadata matches every
	// filter condition are considered. Searching an empty index returns an
	// empty result, not an error.
	Search(ctx context.Context, vector []float32, k int, filter Filter) ([]Result, error)

	// Delete removes vectors by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the index.
	Close() error
}
