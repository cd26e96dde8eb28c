package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// memoryEntry is one stored vector with its metadata and insertion sequence.
type memoryEntry struct {
	id       string
	vector   []float32
	metadata map[string]string
	seq      uint64
}

// MemoryIndex is a flat in-memory index performing exact cosine similarity
// over all stored vectors.
//
// Vectors are normalized at insertion so similarity reduces to a dot product.
// Equal scores break ties by insertion order, which keeps search results
// deterministic. The index is safe for concurrent use.
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	entries   []memoryEntry
	byID      map[string]int
	nextSeq   uint64
}

// NewMemoryIndex creates an empty index for vectors of the given dimension.
func NewMemoryIndex(dimension int) (*MemoryIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}
	return &MemoryIndex{
		dimension: dimension,
		byID:      make(map[string]int),
	}, nil
}

// Add stores a vector. An existing ID is replaced in place, keeping its
// original insertion order.
func (m *MemoryIndex) Add(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	if len(vector) == 0 {
		return ErrEmptyVector
	}
	if len(vector) != m.dimension {
		return fmt.Errorf("%w: got %d, index expects %d", ErrDimensionMismatch, len(vector), m.dimension)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	normalized := normalize(vector)
	meta := cloneMetadata(metadata)

	m.mu.Lock()
	defer m.mu.Unlock()

	if idx, ok := m.byID[id]; ok {
		m.entries[idx].vector = normalized
		m.entries[idx].metadata = meta
		return nil
	}

	m.entries = append(m.entries, memoryEntry{
		id:       id,
		vector:   normalized,
		metadata: meta,
		seq:      m.nextSeq,
	})
	m.byID[id] = len(m.entries) - 1
	m.nextSeq++
	return nil
}

// Search returns up to k hits ordered by descending similarity.
func (m *MemoryIndex) Search(ctx context.Context, vector []float32, k int, filter Filter) ([]Result, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}
	if len(vector) != m.dimension {
		return nil, fmt.Errorf("%w: got %d, index expects %d", ErrDimensionMismatch, len(vector), m.dimension)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	query := normalize(vector)

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		entry *memoryEntry
		score float32
	}
	candidates := make([]scored, 0, len(m.entries))
	for i := range m.entries {
		entry := &m.entries[i]
		if !filter.Matches(entry.metadata) {
			continue
		}
		candidates = append(candidates, scored{entry: entry, score: dot(query, entry.vector)})
	}

	// Stable on insertion sequence so equal scores keep a deterministic order.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].entry.seq < candidates[j].entry.seq
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	results := make([]Result, 0, k)
	for _, c := range candidates[:k] {
		results = append(results, Result{
			ID:       c.entry.id,
			Score:    c.score,
			Metadata: cloneMetadata(c.entry.metadata),
		})
	}
	return results, nil
}

// Delete removes vectors by ID. Unknown IDs are ignored.
func (m *MemoryIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := m.entries[:0]
	for _, entry := range m.entries {
		if _, gone := drop[entry.id]; !gone {
			kept = append(kept, entry)
		}
	}
	m.entries = kept

	m.byID = make(map[string]int, len(m.entries))
	for i, entry := range m.entries {
		m.byID[entry.id] = i
	}
	return nil
}

// Count returns the number of stored vectors.
func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Close is a no-op for the in-memory index.
func (m *MemoryIndex) Close() error {
	return nil
}

// normalize returns a unit-length copy of v. A zero vector is returned as a
// copy unchanged.
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// dot computes the dot product of two equal-length vectors.
func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// cloneMetadata copies a metadata map so callers cannot mutate stored state.
func cloneMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}

var _ Index = (*MemoryIndex)(nil)
