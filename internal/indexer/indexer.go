// Package indexer runs the chunk, embed, store pipeline over ingested
// content.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/autocurate/autocurate/internal/content"
	"github.com/autocurate/autocurate/internal/embeddings"
	"github.com/autocurate/autocurate/internal/textproc"
	"github.com/autocurate/autocurate/internal/vectorstore"
)

var tracer = otel.Tracer("autocurate.indexer")

var (
	// ErrIntegrity is returned when the embedding provider breaks its
	// one-vector-per-chunk contract. This is a programming or provider
	// fault, not a transient failure, and the affected record is marked
	// failed.
	ErrIntegrity = errors.New("embedding count does not match chunk count")

	// ErrNoText is returned when a record has no usable text after
	// cleaning. The record is marked failed so it stays out of digests and
	// can be reset once the ingest side supplies real text.
	ErrNoText = errors.New("content has no usable text")
)

// Indexer turns content records into embedded, searchable chunks.
type Indexer struct {
	store    content.Store
	chunker  *textproc.Chunker
	provider embeddings.Provider
	index    vectorstore.Index
	minText  int
	logger   *zap.Logger
}

// New creates an Indexer. minTextLength is the minimum cleaned-text length
// worth embedding; shorter records fail with ErrNoText.
func New(store content.Store, chunker *textproc.Chunker, provider embeddings.Provider, index vectorstore.Index, minTextLength int, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		store:    store,
		chunker:  chunker,
		provider: provider,
		index:    index,
		minText:  minTextLength,
		logger:   logger,
	}
}

// Index processes one content record end to end: chunk its text, embed every
// chunk in one provider call, store the vectors under deterministic ids, and
// persist the chunk rows.
//
// The record moves pending -> processing at the start and ends completed or
// failed. A record with no usable text ends failed with ErrNoText. Vector
// ids are derived from (content id, chunk ordinal), so re-indexing
// overwrites the previous vectors instead of duplicating them.
func (ix *Indexer) Index(ctx context.Context, contentID int64) error {
	ctx, span := tracer.Start(ctx, "Indexer.Index")
	defer span.End()
	span.SetAttributes(attribute.Int64("content_id", contentID))

	rec, err := ix.store.GetContent(ctx, contentID)
	if err != nil {
		return fmt.Errorf("loading content %d: %w", contentID, err)
	}

	if err := ix.store.UpdateStatus(ctx, contentID, content.StatusProcessing); err != nil {
		return fmt.Errorf("marking content %d processing: %w", contentID, err)
	}

	chunks, err := ix.process(ctx, rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if statusErr := ix.store.UpdateStatus(ctx, contentID, content.StatusFailed); statusErr != nil {
			ix.logger.Error("failed to mark content failed",
				zap.Int64("content_id", contentID),
				zap.Error(statusErr),
			)
		}
		return err
	}

	if err := ix.store.UpdateStatus(ctx, contentID, content.StatusCompleted); err != nil {
		return fmt.Errorf("marking content %d completed: %w", contentID, err)
	}

	span.SetAttributes(attribute.Int("chunks", chunks))
	ix.logger.Info("indexed content",
		zap.Int64("content_id", contentID),
		zap.Int("chunks", chunks),
	)
	return nil
}

// process does the fallible middle of the pipeline and returns the number of
// chunks indexed.
func (ix *Indexer) process(ctx context.Context, rec *content.Record) (int, error) {
	// Re-clean defensively even when the ingest layer already produced
	// cleaned text.
	text := textproc.CleanText(rec.Text())
	if len(text) < ix.minText {
		return 0, fmt.Errorf("%w: content %d has %d cleaned characters, minimum is %d",
			ErrNoText, rec.ID, len(text), ix.minText)
	}

	texts := ix.chunker.Chunk(text)
	if len(texts) == 0 {
		return 0, fmt.Errorf("%w: content %d produced no chunks", ErrNoText, rec.ID)
	}

	vectors, err := ix.provider.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks of content %d: %w", len(texts), rec.ID, err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("%w: %d vectors for %d chunks of content %d",
			ErrIntegrity, len(vectors), len(texts), rec.ID)
	}

	base := recordMetadata(rec)
	now := time.Now().UTC()
	chunks := make([]content.Chunk, len(texts))
	for i, text := range texts {
		metadata := make(map[string]string, len(base)+1)
		for k, v := range base {
			metadata[k] = v
		}
		metadata["word_count"] = strconv.Itoa(textproc.CountWords(text))

		vectorID := content.VectorID(rec.ID, i)
		if err := ix.index.Add(ctx, vectorID, vectors[i], metadata); err != nil {
			return 0, fmt.Errorf("storing vector %s: %w", vectorID, err)
		}
		chunks[i] = content.Chunk{
			ContentID:      rec.ID,
			Ordinal:        i,
			Text:           text,
			VectorID:       vectorID,
			EmbeddingModel: ix.provider.Model(),
			Metadata:       metadata,
			CreatedAt:      now,
		}
	}

	if err := ix.store.SaveChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("saving chunks of content %d: %w", rec.ID, err)
	}
	return len(chunks), nil
}

// recordMetadata snapshots the record fields carried on every chunk's vector.
// The snapshot is taken once at indexing time; later edits to the record do
// not retroactively change stored vectors.
func recordMetadata(rec *content.Record) map[string]string {
	metadata := map[string]string{
		"content_id": strconv.FormatInt(rec.ID, 10),
		"title":      rec.Title,
		"url":        rec.SourceURL,
		"author":     rec.Author,
		"category":   rec.Category,
		"language":   rec.Language,
	}
	if rec.PublishedAt != nil {
		metadata["published_date"] = rec.PublishedAt.UTC().Format(time.RFC3339)
	}
	return metadata
}

// IndexPending drains up to limit pending records, continuing past
// individual failures. It returns the number successfully indexed and the
// first error encountered, if any.
func (ix *Indexer) IndexPending(ctx context.Context, limit int) (int, error) {
	records, err := ix.store.ListPending(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("listing pending content: %w", err)
	}

	indexed := 0
	var firstErr error
	for _, rec := range records {
		if err := ix.Index(ctx, rec.ID); err != nil {
			ix.logger.Warn("indexing failed",
				zap.Int64("content_id", rec.ID),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		indexed++
	}
	return indexed, firstErr
}
