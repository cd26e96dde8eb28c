package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryIndex(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	require.NoError(t, err)
	require.NotNil(t, idx)

	_, err = NewMemoryIndex(0)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewMemoryIndex(-1)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMemoryIndexAdd(t *testing.T) {
	ctx := context.Background()
	idx, err := NewMemoryIndex(3)
	require.NoError(t, err)

	err = idx.Add(ctx, "1_0", []float32{1, 0, 0}, map[string]string{"content_id": "1"})
	require.NoError(t, err)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	t.Run("dimension mismatch", func(t *testing.T) {
		err := idx.Add(ctx, "bad", []float32{1, 0}, nil)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("empty vector", func(t *testing.T) {
		err := idx.Add(ctx, "bad", nil, nil)
		assert.ErrorIs(t, err, ErrEmptyVector)
	})

	t.Run("re-adding an ID replaces the vector", func(t *testing.T) {
		err := idx.Add(ctx, "1_0", []float32{0, 1, 0}, map[string]string{"content_id": "1"})
		require.NoError(t, err)

		count, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		results, err := idx.Search(ctx, []float32{0, 1, 0}, 1, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	})
}

func TestMemoryIndexSearch(t *testing.T) {
	ctx := context.Background()
	idx, err := NewMemoryIndex(3)
	require.NoError(t, err)

	t.Run("empty index returns empty result", func(t *testing.T) {
		results, err := idx.Search(ctx, []float32{1, 0, 0}, 5, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	require.NoError(t, idx.Add(ctx, "1_0", []float32{1, 0, 0}, map[string]string{"content_id": "1"}))
	require.NoError(t, idx.Add(ctx, "2_0", []float32{0, 1, 0}, map[string]string{"content_id": "2"}))
	require.NoError(t, idx.Add(ctx, "3_0", []float32{0.9, 0.1, 0}, map[string]string{"content_id": "3"}))

	t.Run("orders by descending similarity", func(t *testing.T) {
		results, err := idx.Search(ctx, []float32{1, 0, 0}, 3, nil)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "1_0", results[0].ID)
		assert.Equal(t, "3_0", results[1].ID)
		assert.Equal(t, "2_0", results[2].ID)
		assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
		assert.GreaterOrEqual(t, results[1].Score, results[2].Score)
	})

	t.Run("k caps the result count", func(t *testing.T) {
		results, err := idx.Search(ctx, []float32{1, 0, 0}, 2, nil)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("k larger than index size returns all", func(t *testing.T) {
		results, err := idx.Search(ctx, []float32{1, 0, 0}, 100, nil)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("filter restricts candidates", func(t *testing.T) {
		results, err := idx.Search(ctx, []float32{1, 0, 0}, 3, Filter{}.In("content_id", []string{"2", "3"}))
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "3_0", results[0].ID)
		assert.Equal(t, "2_0", results[1].ID)
	})

	t.Run("filter matching nothing returns empty", func(t *testing.T) {
		results, err := idx.Search(ctx, []float32{1, 0, 0}, 3, Filter{}.Eq("content_id", "99"))
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		_, err := idx.Search(ctx, []float32{1, 0}, 3, nil)
		assert.ErrorIs(t, err, ErrDimensionMismatch)

		_, err = idx.Search(ctx, nil, 3, nil)
		assert.ErrorIs(t, err, ErrEmptyVector)

		_, err = idx.Search(ctx, []float32{1, 0, 0}, 0, nil)
		assert.Error(t, err)
	})
}

func TestMemoryIndexSearchTieBreak(t *testing.T) {
	ctx := context.Background()
	idx, err := NewMemoryIndex(2)
	require.NoError(t, err)

	// Identical vectors score identically; insertion order decides.
	require.NoError(t, idx.Add(ctx, "first", []float32{1, 0}, nil))
	require.NoError(t, idx.Add(ctx, "second", []float32{1, 0}, nil))
	require.NoError(t, idx.Add(ctx, "third", []float32{1, 0}, nil))

	results, err := idx.Search(ctx, []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].ID)
	assert.Equal(t, "second", results[1].ID)
	assert.Equal(t, "third", results[2].ID)
}

func TestMemoryIndexDelete(t *testing.T) {
	ctx := context.Background()
	idx, err := NewMemoryIndex(2)
	require.NoError(t, err)

	require.NoError(t, idx.Add(ctx, "a", []float32{1, 0}, nil))
	require.NoError(t, idx.Add(ctx, "b", []float32{0, 1}, nil))

	require.NoError(t, idx.Delete(ctx, []string{"a", "unknown"}))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := idx.Search(ctx, []float32{0, 1}, 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)
}

func TestNormalize(t *testing.T) {
	v := normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}
