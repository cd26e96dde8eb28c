package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autocurate/autocurate/internal/content"
	"github.com/autocurate/autocurate/internal/preferences"
	"github.com/autocurate/autocurate/internal/vectorstore"
)

type fakeContentStore struct {
	eligible  []content.Record
	lastQuery content.EligibleQuery
	err       error
}

func (s *fakeContentStore) GetContent(_ context.Context, _ int64) (*content.Record, error) {
	return nil, content.ErrNotFound
}

func (s *fakeContentStore) ListPending(_ context.Context, _ int) ([]content.Record, error) {
	return nil, nil
}

func (s *fakeContentStore) ListEligible(_ context.Context, q content.EligibleQuery) ([]content.Record, error) {
	s.lastQuery = q
	if s.err != nil {
		return nil, s.err
	}
	records := s.eligible
	if q.Limit > 0 && len(records) > q.Limit {
		records = records[:q.Limit]
	}
	return records, nil
}

func (s *fakeContentStore) UpdateStatus(_ context.Context, _ int64, _ content.ProcessingStatus) error {
	return nil
}

func (s *fakeContentStore) SaveChunks(_ context.Context, _ []content.Chunk) error {
	return nil
}

type fakePrefsStore struct {
	prefs map[int64]preferences.Preferences
}

func (s *fakePrefsStore) GetPreferences(_ context.Context, userID int64) (preferences.Preferences, error) {
	p, ok := s.prefs[userID]
	if !ok {
		return preferences.Preferences{}, preferences.ErrNotFound
	}
	return p, nil
}

func (s *fakePrefsStore) SavePreferences(_ context.Context, p preferences.Preferences) error {
	s.prefs[p.UserID] = p
	return nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (e *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = e.vector
	}
	return out, e.err
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vector, nil
}

// failingIndex always errors on search.
type failingIndex struct{}

func (failingIndex) Add(_ context.Context, _ string, _ []float32, _ map[string]string) error {
	return nil
}

func (failingIndex) Search(_ context.Context, _ []float32, _ int, _ vectorstore.Filter) ([]vectorstore.Result, error) {
	return nil, vectorstore.ErrStoreUnavailable
}

func (failingIndex) Delete(_ context.Context, _ []string) error { return nil }
func (failingIndex) Count(_ context.Context) (int, error)       { return 0, nil }
func (failingIndex) Close() error                               { return nil }

func records(ids ...int64) []content.Record {
	now := time.Now()
	out := make([]content.Record, len(ids))
	for i, id := range ids {
		out[i] = content.Record{
			ID:        id,
			Title:     "article",
			ScrapedAt: now.Add(-time.Duration(i) * time.Hour),
			Status:    content.StatusCompleted,
		}
	}
	return out
}

func TestRetrieveDefaultsWhenNoPreferences(t *testing.T) {
	contents := &fakeContentStore{eligible: records(1, 2, 3)}
	prefs := &fakePrefsStore{prefs: map[int64]preferences.Preferences{}}
	index, err := vectorstore.NewMemoryIndex(2)
	require.NoError(t, err)

	engine := New(contents, prefs, &fakeEmbedder{vector: []float32{1, 0}}, index, 5, zap.NewNop())
	result, err := engine.Retrieve(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), result.Preferences.UserID)
	assert.Equal(t, "daily", result.Preferences.Frequency)
	assert.False(t, result.RelevanceUsed)
	assert.Len(t, result.Records, 3)
	// Oversampled listing: default 10 max items at 5x.
	assert.Equal(t, 50, contents.lastQuery.Limit)
}

func TestRetrieveNoTopicsUsesRecency(t *testing.T) {
	contents := &fakeContentStore{eligible: records(1, 2, 3, 4)}
	prefs := &fakePrefsStore{prefs: map[int64]preferences.Preferences{
		7: {UserID: 7, MaxItems: 2, Frequency: "daily"},
	}}
	index, err := vectorstore.NewMemoryIndex(2)
	require.NoError(t, err)

	engine := New(contents, prefs, &fakeEmbedder{vector: []float32{1, 0}}, index, 5, zap.NewNop())
	result, err := engine.Retrieve(context.Background(), 7)
	require.NoError(t, err)

	assert.False(t, result.RelevanceUsed)
	require.Len(t, result.Records, 2)
	assert.Equal(t, int64(1), result.Records[0].ID)
	assert.Equal(t, int64(2), result.Records[1].ID)
}

func TestRetrieveRanksByRelevanceWithBackfill(t *testing.T) {
	ctx := context.Background()
	contents := &fakeContentStore{eligible: records(1, 2, 3, 4)}
	prefs := &fakePrefsStore{prefs: map[int64]preferences.Preferences{
		7: {UserID: 7, MaxItems: 3, Topics: []string{"go"}},
	}}

	index, err := vectorstore.NewMemoryIndex(2)
	require.NoError(t, err)
	// Article 3 is most relevant, with two chunks to exercise dedup.
	// Article 2 is mildly relevant. Articles 1 and 4 have no vectors.
	require.NoError(t, index.Add(ctx, content.VectorID(3, 0), []float32{1, 0}, map[string]string{"content_id": "3"}))
	require.NoError(t, index.Add(ctx, content.VectorID(3, 1), []float32{0.99, 0.01}, map[string]string{"content_id": "3"}))
	require.NoError(t, index.Add(ctx, content.VectorID(2, 0), []float32{0.5, 0.5}, map[string]string{"content_id": "2"}))

	engine := New(contents, prefs, &fakeEmbedder{vector: []float32{1, 0}}, index, 5, zap.NewNop())
	result, err := engine.Retrieve(ctx, 7)
	require.NoError(t, err)

	assert.True(t, result.RelevanceUsed)
	require.Len(t, result.Records, 3)
	// Relevance hits first, deduplicated to one entry per article.
	assert.Equal(t, int64(3), result.Records[0].ID)
	assert.Equal(t, int64(2), result.Records[1].ID)
	// Recency backfill fills the remaining slot.
	assert.Equal(t, int64(1), result.Records[2].ID)
}

func TestRetrieveExcludesNonCandidateVectors(t *testing.T) {
	ctx := context.Background()
	contents := &fakeContentStore{eligible: records(1)}
	prefs := &fakePrefsStore{prefs: map[int64]preferences.Preferences{
		7: {UserID: 7, MaxItems: 5, Topics: []string{"go"}},
	}}

	index, err := vectorstore.NewMemoryIndex(2)
	require.NoError(t, err)
	// Article 99 is indexed but not eligible; it must never surface.
	require.NoError(t, index.Add(ctx, content.VectorID(99, 0), []float32{1, 0}, map[string]string{"content_id": "99"}))
	require.NoError(t, index.Add(ctx, content.VectorID(1, 0), []float32{0.9, 0.1}, map[string]string{"content_id": "1"}))

	engine := New(contents, prefs, &fakeEmbedder{vector: []float32{1, 0}}, index, 5, zap.NewNop())
	result, err := engine.Retrieve(ctx, 7)
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, int64(1), result.Records[0].ID)
}

func TestRetrieveDegradesWhenVectorSearchFails(t *testing.T) {
	contents := &fakeContentStore{eligible: records(1, 2)}
	prefs := &fakePrefsStore{prefs: map[int64]preferences.Preferences{
		7: {UserID: 7, MaxItems: 2, Topics: []string{"go"}},
	}}

	engine := New(contents, prefs, &fakeEmbedder{vector: []float32{1, 0}}, failingIndex{}, 5, zap.NewNop())
	result, err := engine.Retrieve(context.Background(), 7)
	require.NoError(t, err)

	assert.False(t, result.RelevanceUsed)
	require.Len(t, result.Records, 2)
	assert.Equal(t, int64(1), result.Records[0].ID)
}

func TestRetrieveDegradesWhenEmbeddingFails(t *testing.T) {
	contents := &fakeContentStore{eligible: records(1, 2)}
	prefs := &fakePrefsStore{prefs: map[int64]preferences.Preferences{
		7: {UserID: 7, MaxItems: 2, Topics: []string{"go"}},
	}}
	index, err := vectorstore.NewMemoryIndex(2)
	require.NoError(t, err)

	engine := New(contents, prefs, &fakeEmbedder{err: errors.New("backend down")}, index, 5, zap.NewNop())
	result, err := engine.Retrieve(context.Background(), 7)
	require.NoError(t, err)

	assert.False(t, result.RelevanceUsed)
	assert.Len(t, result.Records, 2)
}

func TestRetrieveEmptyCandidates(t *testing.T) {
	contents := &fakeContentStore{}
	prefs := &fakePrefsStore{prefs: map[int64]preferences.Preferences{}}
	index, err := vectorstore.NewMemoryIndex(2)
	require.NoError(t, err)

	engine := New(contents, prefs, &fakeEmbedder{vector: []float32{1, 0}}, index, 5, zap.NewNop())
	result, err := engine.Retrieve(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
}

func TestRetrieveListError(t *testing.T) {
	contents := &fakeContentStore{err: errors.New("db locked")}
	prefs := &fakePrefsStore{prefs: map[int64]preferences.Preferences{}}
	index, err := vectorstore.NewMemoryIndex(2)
	require.NoError(t, err)

	engine := New(contents, prefs, &fakeEmbedder{vector: []float32{1, 0}}, index, 5, zap.NewNop())
	_, err = engine.Retrieve(context.Background(), 1)
	assert.Error(t, err)
}
