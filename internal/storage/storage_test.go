package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autocurate/autocurate/internal/content"
	"github.com/autocurate/autocurate/internal/digest"
	"github.com/autocurate/autocurate/internal/preferences"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedRecord(t *testing.T, store *Store, rec content.Record) int64 {
	t.Helper()
	if rec.ScrapedAt.IsZero() {
		rec.ScrapedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = content.StatusPending
	}
	id, err := store.SaveContent(context.Background(), &rec)
	require.NoError(t, err)
	return id
}

func TestGetContent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := seedRecord(t, store, content.Record{
		SourceURL:   "https://example.com/a",
		Title:       "Go Concurrency Patterns",
		RawText:     "raw",
		CleanedText: "cleaned",
		ContentHash: "h1",
		WordCount:   120,
		Language:    "en",
		Category:    "technology",
	})

	rec, err := store.GetContent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Go Concurrency Patterns", rec.Title)
	assert.Equal(t, "cleaned", rec.Text())
	assert.Equal(t, content.StatusPending, rec.Status)

	_, err = store.GetContent(ctx, 9999)
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestSaveContentDeduplicatesByHash(t *testing.T) {
	store := newTestStore(t)

	first := seedRecord(t, store, content.Record{SourceURL: "https://example.com/a", ContentHash: "same"})
	second := seedRecord(t, store, content.Record{SourceURL: "https://example.com/b", ContentHash: "same"})
	assert.Equal(t, first, second)

	t.Run("hash-less records are never deduplicated", func(t *testing.T) {
		a := seedRecord(t, store, content.Record{SourceURL: "https://example.com/c"})
		b := seedRecord(t, store, content.Record{SourceURL: "https://example.com/d"})
		assert.NotEqual(t, a, b)
	})
}

func TestListPending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	older := seedRecord(t, store, content.Record{ContentHash: "h1", ScrapedAt: base})
	newer := seedRecord(t, store, content.Record{ContentHash: "h2", ScrapedAt: base.Add(time.Hour)})
	done := seedRecord(t, store, content.Record{ContentHash: "h3", ScrapedAt: base, Status: content.StatusPending})
	require.NoError(t, store.UpdateStatus(ctx, done, content.StatusProcessing))
	require.NoError(t, store.UpdateStatus(ctx, done, content.StatusCompleted))

	pending, err := store.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, older, pending[0].ID)
	assert.Equal(t, newer, pending[1].ID)

	limited, err := store.ListPending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestUpdateStatusTransitions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := seedRecord(t, store, content.Record{ContentHash: "h1"})

	// pending -> completed skips processing and is illegal.
	err := store.UpdateStatus(ctx, id, content.StatusCompleted)
	assert.Error(t, err)

	require.NoError(t, store.UpdateStatus(ctx, id, content.StatusProcessing))
	require.NoError(t, store.UpdateStatus(ctx, id, content.StatusFailed))

	// failed -> pending is the retry reset.
	require.NoError(t, store.UpdateStatus(ctx, id, content.StatusPending))

	assert.ErrorIs(t, store.UpdateStatus(ctx, 9999, content.StatusProcessing), content.ErrNotFound)
}

func TestListEligible(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	complete := func(rec content.Record) int64 {
		id := seedRecord(t, store, rec)
		require.NoError(t, store.UpdateStatus(ctx, id, content.StatusProcessing))
		require.NoError(t, store.UpdateStatus(ctx, id, content.StatusCompleted))
		return id
	}

	recent := complete(content.Record{ContentHash: "h1", Category: "technology", Language: "en", WordCount: 200, ScrapedAt: now.Add(-time.Hour)})
	complete(content.Record{ContentHash: "h2", Category: "sports", Language: "en", WordCount: 200, ScrapedAt: now.Add(-2 * time.Hour)})
	complete(content.Record{ContentHash: "h3", Category: "technology", Language: "de", WordCount: 200, ScrapedAt: now.Add(-3 * time.Hour)})
	complete(content.Record{ContentHash: "h4", Category: "technology", Language: "en", WordCount: 900, ScrapedAt: now.Add(-4 * time.Hour)})
	complete(content.Record{ContentHash: "h5", Category: "technology", Language: "en", WordCount: 200, ScrapedAt: now.Add(-48 * time.Hour)})
	seedRecord(t, store, content.Record{ContentHash: "h6", Category: "technology", Language: "en", WordCount: 200, ScrapedAt: now.Add(-time.Hour)}) // still pending

	records, err := store.ListEligible(ctx, content.EligibleQuery{
		Since:        now.Add(-24 * time.Hour),
		Categories:   []string{"technology"},
		MaxWordCount: 800,
		Language:     "en",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, recent, records[0].ID)

	t.Run("unbounded word count", func(t *testing.T) {
		records, err := store.ListEligible(ctx, content.EligibleQuery{
			Since:      now.Add(-24 * time.Hour),
			Categories: []string{"technology"},
			Language:   "en",
		})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("ordered newest first with limit", func(t *testing.T) {
		records, err := store.ListEligible(ctx, content.EligibleQuery{
			Since: now.Add(-72 * time.Hour),
			Limit: 3,
		})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.True(t, records[0].ScrapedAt.After(records[1].ScrapedAt))
	})

	t.Run("nothing eligible returns empty", func(t *testing.T) {
		records, err := store.ListEligible(ctx, content.EligibleQuery{Since: now.Add(time.Hour)})
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestSaveChunks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := seedRecord(t, store, content.Record{ContentHash: "h1"})
	now := time.Now().UTC()

	metadata := map[string]string{"title": "Article", "word_count": "1"}
	chunks := []content.Chunk{
		{ContentID: id, Ordinal: 0, Text: "first", VectorID: content.VectorID(id, 0), EmbeddingModel: "m", Metadata: metadata, CreatedAt: now},
		{ContentID: id, Ordinal: 1, Text: "second", VectorID: content.VectorID(id, 1), EmbeddingModel: "m", CreatedAt: now},
	}
	require.NoError(t, store.SaveChunks(ctx, chunks))

	// Re-saving the same ordinals replaces rather than duplicates.
	chunks[0].Text = "first revised"
	require.NoError(t, store.SaveChunks(ctx, chunks))

	var count int
	require.NoError(t, store.db.Get(&count, "SELECT COUNT(*) FROM chunks WHERE content_id = ?", id))
	assert.Equal(t, 2, count)

	var text string
	require.NoError(t, store.db.Get(&text, "SELECT chunk_text FROM chunks WHERE content_id = ? AND chunk_index = 0", id))
	assert.Equal(t, "first revised", text)

	var encoded string
	require.NoError(t, store.db.Get(&encoded, "SELECT metadata FROM chunks WHERE content_id = ? AND chunk_index = 0", id))
	assert.JSONEq(t, `{"title": "Article", "word_count": "1"}`, encoded)

	require.NoError(t, store.db.Get(&encoded, "SELECT metadata FROM chunks WHERE content_id = ? AND chunk_index = 1", id))
	assert.JSONEq(t, `{}`, encoded)

	assert.NoError(t, store.SaveChunks(ctx, nil))
}

func TestPreferencesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetPreferences(ctx, 1)
	assert.ErrorIs(t, err, preferences.ErrNotFound)

	prefs := preferences.Default(1)
	prefs.Topics = []string{"go", "databases"}
	prefs.Categories = []string{"technology"}
	prefs.MaxItems = 15
	require.NoError(t, store.SavePreferences(ctx, prefs))

	got, err := store.GetPreferences(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "databases"}, got.Topics)
	assert.Equal(t, []string{"technology"}, got.Categories)
	assert.Equal(t, 15, got.MaxItems)
	assert.Equal(t, "daily", got.Frequency)

	// Upsert replaces.
	prefs.Frequency = "weekly"
	require.NoError(t, store.SavePreferences(ctx, prefs))
	got, err = store.GetPreferences(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "weekly", got.Frequency)
}

func TestDigestsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveDigest(ctx, digest.Digest{
			ID:              string(rune('a' + i)),
			UserID:          1,
			Title:           "Daily Digest",
			DigestType:      "daily",
			Content:         "body",
			ArticleCount:    5,
			WordCount:       500,
			ReadTimeMinutes: 2,
			ModelUsed:       "gpt-4",
			ContentIDs:      []int64{10, 20, 30},
			GeneratedAt:     base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, store.SaveDigest(ctx, digest.Digest{
		ID: "other", UserID: 2, Title: "t", DigestType: "daily", GeneratedAt: base,
	}))

	digests, err := store.ListDigests(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, digests, 2)
	assert.Equal(t, "c", digests[0].ID)
	assert.Equal(t, "b", digests[1].ID)
	assert.Equal(t, "gpt-4", digests[0].ModelUsed)
	assert.Equal(t, []int64{10, 20, 30}, digests[0].ContentIDs)

	t.Run("nil content ids round-trip as empty", func(t *testing.T) {
		digests, err := store.ListDigests(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, digests, 1)
		assert.Empty(t, digests[0].ContentIDs)
	})
}
