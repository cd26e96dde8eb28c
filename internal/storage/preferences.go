package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/autocurate/autocurate/internal/preferences"
)

// prefsRow is the database shape of a preferences record. Topics and
// categories are stored as JSON arrays.
type prefsRow struct {
	UserID          int64     `db:"user_id"`
	Topics          string    `db:"topics"`
	Categories      string    `db:"categories"`
	ContentDepth    string    `db:"content_depth"`
	Format          string    `db:"format"`
	ArticleLength   string    `db:"article_length"`
	Frequency       string    `db:"frequency"`
	Language        string    `db:"language"`
	MaxItems        int       `db:"max_items"`
	IncludeTrending bool      `db:"include_trending"`
	IncludeSummary  bool      `db:"include_summary"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// GetPreferences returns a user's preferences, or preferences.ErrNotFound.
func (s *Store) GetPreferences(ctx context.Context, userID int64) (preferences.Preferences, error) {
	var row prefsRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM user_preferences WHERE user_id = ?", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return preferences.Preferences{}, preferences.ErrNotFound
		}
		return preferences.Preferences{}, fmt.Errorf("getting preferences for %d: %w", userID, err)
	}

	prefs := preferences.Preferences{
		UserID:          row.UserID,
		ContentDepth:    row.ContentDepth,
		Format:          row.Format,
		ArticleLength:   row.ArticleLength,
		Frequency:       row.Frequency,
		Language:        row.Language,
		MaxItems:        row.MaxItems,
		IncludeTrending: row.IncludeTrending,
		IncludeSummary:  row.IncludeSummary,
		UpdatedAt:       row.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(row.Topics), &prefs.Topics); err != nil {
		return preferences.Preferences{}, fmt.Errorf("decoding topics for %d: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(row.Categories), &prefs.Categories); err != nil {
		return preferences.Preferences{}, fmt.Errorf("decoding categories for %d: %w", userID, err)
	}
	return prefs, nil
}

// SavePreferences inserts or replaces a user's preferences.
func (s *Store) SavePreferences(ctx context.Context, prefs preferences.Preferences) error {
	topics, err := json.Marshal(emptyIfNil(prefs.Topics))
	if err != nil {
		return fmt.Errorf("encoding topics: %w", err)
	}
	categories, err := json.Marshal(emptyIfNil(prefs.Categories))
	if err != nil {
		return fmt.Errorf("encoding categories: %w", err)
	}

	updatedAt := prefs.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (
			user_id, topics, categories, content_depth, format,
			article_length, frequency, language, max_items,
			include_trending, include_summary, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			topics = excluded.topics,
			categories = excluded.categories,
			content_depth = excluded.content_depth,
			format = excluded.format,
			article_length = excluded.article_length,
			frequency = excluded.frequency,
			language = excluded.language,
			max_items = excluded.max_items,
			include_trending = excluded.include_trending,
			include_summary = excluded.include_summary,
			updated_at = excluded.updated_at`,
		prefs.UserID, string(topics), string(categories), prefs.ContentDepth,
		prefs.Format, prefs.ArticleLength, prefs.Frequency, prefs.Language,
		prefs.MaxItems, prefs.IncludeTrending, prefs.IncludeSummary, updatedAt)
	if err != nil {
		return fmt.Errorf("saving preferences for %d: %w", prefs.UserID, err)
	}
	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ preferences.Store = (*Store)(nil)
