// Package preferences models per-user digest preferences and derives content
// filters from them.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a user has no stored preferences.
	ErrNotFound = errors.New("preferences not found")

	// ErrUnknownField is returned when updating a preference field that does
	// not exist.
	ErrUnknownField = errors.New("unknown preference field")
)

// Max items bounds. Values outside the range clamp rather than error, so a
// stale or hand-edited row never breaks digest generation.
const (
	MinMaxItems     = 1
	MaxMaxItems     = 50
	DefaultMaxItems = 10
)

// Preferences holds one user's digest preferences.
type Preferences struct {
	UserID int64 `db:"user_id" json:"user_id"`

	// Topics are free-text interests used for relevance retrieval.
	Topics []string `json:"topics"`

	// Categories restrict content to these categories. Empty means all.
	Categories []string `json:"categories"`

	// ContentDepth is "headlines", "summaries", or "full".
	ContentDepth string `db:"content_depth" json:"content_depth"`

	// Format is the digest rendering style, e.g. "bullet_points" or "prose".
	Format string `db:"format" json:"format"`

	// ArticleLength is "short", "medium", or "long".
	ArticleLength string `db:"article_length" json:"article_length"`

	// Frequency is "daily", "weekly", or "monthly".
	Frequency string `db:"frequency" json:"frequency"`

	// Language restricts content language. Empty means any.
	Language string `db:"language" json:"language"`

	// MaxItems is the maximum article count per digest.
	MaxItems int `db:"max_items" json:"max_items"`

	// IncludeTrending mixes in popular items beyond the user's topics.
	IncludeTrending bool `db:"include_trending" json:"include_trending"`

	// IncludeSummary asks the composer for an overall summary section.
	IncludeSummary bool `db:"include_summary" json:"include_summary"`

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Default returns the preferences applied to a user with no stored row.
func Default(userID int64) Preferences {
	return Preferences{
		UserID:         userID,
		ContentDepth:   "summaries",
		Format:         "bullet_points",
		ArticleLength:  "medium",
		Frequency:      "daily",
		MaxItems:       DefaultMaxItems,
		IncludeSummary: true,
	}
}

// EffectiveMaxItems returns MaxItems clamped to the allowed range, with zero
// mapping to the default.
func (p Preferences) EffectiveMaxItems() int {
	if p.MaxItems == 0 {
		return DefaultMaxItems
	}
	if p.MaxItems < MinMaxItems {
		return MinMaxItems
	}
	if p.MaxItems > MaxMaxItems {
		return MaxMaxItems
	}
	return p.MaxItems
}

// knownFields enumerates the updatable preference fields. Updates to any
// other name are rejected rather than silently dropped.
var knownFields = map[string]struct{}{
	"topics":           {},
	"categories":       {},
	"content_depth":    {},
	"format":           {},
	"article_length":   {},
	"frequency":        {},
	"language":         {},
	"max_items":        {},
	"include_trending": {},
	"include_summary":  {},
}

// UpdateField sets a single preference field by name.
//
// Value types: topics and categories take []string, max_items takes int, the
// include flags take bool, everything else takes string.
func (p *Preferences) UpdateField(field string, value any) error {
	if _, ok := knownFields[field]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	switch field {
	case "topics":
		v, ok := value.([]string)
		if !ok {
			return fmt.Errorf("field %q requires []string, got %T", field, value)
		}
		p.Topics = v
	case "categories":
		v, ok := value.([]string)
		if !ok {
			return fmt.Errorf("field %q requires []string, got %T", field, value)
		}
		p.Categories = v
	case "max_items":
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("field %q requires int, got %T", field, value)
		}
		if v < MinMaxItems || v > MaxMaxItems {
			return fmt.Errorf("max_items must be between %d and %d, got %d", MinMaxItems, MaxMaxItems, v)
		}
		p.MaxItems = v
	case "include_trending", "include_summary":
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("field %q requires bool, got %T", field, value)
		}
		if field == "include_trending" {
			p.IncludeTrending = v
		} else {
			p.IncludeSummary = v
		}
	default:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %q requires string, got %T", field, value)
		}
		switch field {
		case "content_depth":
			p.ContentDepth = v
		case "format":
			p.Format = v
		case "article_length":
			p.ArticleLength = v
		case "frequency":
			p.Frequency = v
		case "language":
			p.Language = v
		}
	}
	return nil
}

// PersonalizationContext renders the preferences as a short instruction block
// for the summarization model.
func (p Preferences) PersonalizationContext() string {
	var b strings.Builder
	if len(p.Topics) > 0 {
		fmt.Fprintf(&b, "The reader is interested in: %s.\n", strings.Join(p.Topics, ", "))
	}
	if p.ContentDepth != "" {
		fmt.Fprintf(&b, "Content depth: %s.\n", p.ContentDepth)
	}
	if p.Format != "" {
		fmt.Fprintf(&b, "Preferred format: %s.\n", strings.ReplaceAll(p.Format, "_", " "))
	}
	if p.ArticleLength != "" {
		fmt.Fprintf(&b, "Preferred article length: %s.\n", p.ArticleLength)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Store persists user preferences.
type Store interface {
	// GetPreferences returns a user's preferences.
	// Returns ErrNotFound when the user has no stored row.
	GetPreferences(ctx context.Context, userID int64) (Preferences, error)

	// SavePreferences inserts or replaces a user's preferences.
	SavePreferences(ctx context.Context, prefs Preferences) error
}
