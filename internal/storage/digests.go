package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/autocurate/autocurate/internal/digest"
)

// digestRow maps the digests table; list-valued fields are stored as JSON.
type digestRow struct {
	ID              string    `db:"id"`
	UserID          int64     `db:"user_id"`
	Title           string    `db:"title"`
	DigestType      string    `db:"digest_type"`
	Content         string    `db:"content"`
	ArticleCount    int       `db:"article_count"`
	WordCount       int       `db:"word_count"`
	ReadTimeMinutes int       `db:"read_time_minutes"`
	ModelUsed       string    `db:"model_used"`
	ContentIDs      string    `db:"content_ids"`
	GeneratedAt     time.Time `db:"generated_at"`
}

// SaveDigest inserts a generated digest.
func (s *Store) SaveDigest(ctx context.Context, d digest.Digest) error {
	contentIDs := d.ContentIDs
	if contentIDs == nil {
		contentIDs = []int64{}
	}
	encoded, err := json.Marshal(contentIDs)
	if err != nil {
		return fmt.Errorf("encoding content ids of digest %s: %w", d.ID, err)
	}

	query, args, err := builder.Insert("digests").
		Columns("id", "user_id", "title", "digest_type", "content",
			"article_count", "word_count", "read_time_minutes",
			"model_used", "content_ids", "generated_at").
		Values(d.ID, d.UserID, d.Title, d.DigestType, d.Content,
			d.ArticleCount, d.WordCount, d.ReadTimeMinutes,
			d.ModelUsed, string(encoded), d.GeneratedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving digest %s: %w", d.ID, err)
	}
	return nil
}

// ListDigests returns a user's digests, newest first, up to limit.
func (s *Store) ListDigests(ctx context.Context, userID int64, limit int) ([]digest.Digest, error) {
	q := builder.Select("id", "user_id", "title", "digest_type", "content",
		"article_count", "word_count", "read_time_minutes",
		"model_used", "content_ids", "generated_at").
		From("digests").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("generated_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows := []digestRow{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing digests for %d: %w", userID, err)
	}

	digests := make([]digest.Digest, len(rows))
	for i, row := range rows {
		var contentIDs []int64
		if err := json.Unmarshal([]byte(row.ContentIDs), &contentIDs); err != nil {
			return nil, fmt.Errorf("decoding content ids of digest %s: %w", row.ID, err)
		}
		digests[i] = digest.Digest{
			ID:              row.ID,
			UserID:          row.UserID,
			Title:           row.Title,
			DigestType:      row.DigestType,
			Content:         row.Content,
			ArticleCount:    row.ArticleCount,
			WordCount:       row.WordCount,
			ReadTimeMinutes: row.ReadTimeMinutes,
			ModelUsed:       row.ModelUsed,
			ContentIDs:      contentIDs,
			GeneratedAt:     row.GeneratedAt,
		}
	}
	return digests, nil
}

var _ digest.Store = (*Store)(nil)
