package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/autocurate/autocurate/internal/content"
)

// contentColumns is the select list shared by all content reads.
var contentColumns = []string{
	"id", "url", "title", "author", "content", "cleaned_content",
	"content_hash", "word_count", "language", "category",
	"published_date", "scraped_at", "processing_status",
}

// GetContent returns a content record by id, or content.ErrNotFound.
func (s *Store) GetContent(ctx context.Context, id int64) (*content.Record, error) {
	query, args, err := builder.Select(contentColumns...).
		From("content").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	var rec content.Record
	if err := s.db.GetContext(ctx, &rec, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, content.ErrNotFound
		}
		return nil, fmt.Errorf("getting content %d: %w", id, err)
	}
	return &rec, nil
}

// SaveContent inserts a record and returns its assigned id. A record whose
// content hash already exists returns the existing id unchanged, so repeated
// ingestion of the same article is idempotent.
func (s *Store) SaveContent(ctx context.Context, rec *content.Record) (int64, error) {
	if rec.ContentHash != "" {
		var existing int64
		err := s.db.GetContext(ctx, &existing,
			"SELECT id FROM content WHERE content_hash = ?", rec.ContentHash)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("checking content hash: %w", err)
		}
	}

	query, args, err := builder.Insert("content").
		Columns("url", "title", "author", "content", "cleaned_content",
			"content_hash", "word_count", "language", "category",
			"published_date", "scraped_at", "processing_status").
		Values(rec.SourceURL, rec.Title, rec.Author, rec.RawText, rec.CleanedText,
			rec.ContentHash, rec.WordCount, rec.Language, rec.Category,
			rec.PublishedAt, rec.ScrapedAt, rec.Status).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building insert: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting content: %w", err)
	}
	return result.LastInsertId()
}

// ListPending returns up to limit records in pending status, oldest first.
func (s *Store) ListPending(ctx context.Context, limit int) ([]content.Record, error) {
	q := builder.Select(contentColumns...).
		From("content").
		Where(sq.Eq{"processing_status": content.StatusPending}).
		OrderBy("scraped_at ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	records := []content.Record{}
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("listing pending content: %w", err)
	}
	return records, nil
}

// ListEligible returns completed records matching the query, most recently
// scraped first.
func (s *Store) ListEligible(ctx context.Context, eq content.EligibleQuery) ([]content.Record, error) {
	q := builder.Select(contentColumns...).
		From("content").
		Where(sq.Eq{"processing_status": content.StatusCompleted}).
		Where(sq.GtOrEq{"scraped_at": eq.Since}).
		OrderBy("scraped_at DESC")

	if len(eq.Categories) > 0 {
		q = q.Where(sq.Eq{"category": eq.Categories})
	}
	if eq.MaxWordCount > 0 {
		q = q.Where(sq.LtOrEq{"word_count": eq.MaxWordCount})
	}
	if eq.Language != "" {
		q = q.Where(sq.Eq{"language": eq.Language})
	}
	if eq.Limit > 0 {
		q = q.Limit(uint64(eq.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	records := []content.Record{}
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("listing eligible content: %w", err)
	}
	return records, nil
}

// UpdateStatus advances a record's processing status after checking the
// transition is legal.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status content.ProcessingStatus) error {
	var current content.ProcessingStatus
	err := s.db.GetContext(ctx, &current,
		"SELECT processing_status FROM content WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return content.ErrNotFound
		}
		return fmt.Errorf("reading status for %d: %w", id, err)
	}

	if !current.CanTransitionTo(status) {
		return fmt.Errorf("illegal status transition for content %d: %s -> %s", id, current, status)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE content SET processing_status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("updating status for %d: %w", id, err)
	}
	return nil
}

// SaveChunks persists chunk records in one transaction. Saving the same
// (content, ordinal) pair twice replaces the previous row.
func (s *Store) SaveChunks(ctx context.Context, chunks []content.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO chunks (content_id, chunk_index, chunk_text, vector_id, embedding_model, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_id, chunk_index) DO UPDATE SET
			chunk_text = excluded.chunk_text,
			vector_id = excluded.vector_id,
			embedding_model = excluded.embedding_model,
			metadata = excluded.metadata,
			created_at = excluded.created_at`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		metadata := c.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata of chunk %s: %w", c.VectorID, err)
		}
		if _, err := stmt.ExecContext(ctx, c.ContentID, c.Ordinal, c.Text,
			c.VectorID, c.EmbeddingModel, string(encoded), c.CreatedAt); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.VectorID, err)
		}
	}

	return tx.Commit()
}

var _ content.Store = (*Store)(nil)
