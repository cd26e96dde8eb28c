package preferences

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildFilter(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		prefs        Preferences
		wantSince    time.Time
		wantMaxWords int
	}{
		{
			name:         "daily short",
			prefs:        Preferences{Frequency: "daily", ArticleLength: "short"},
			wantSince:    now.Add(-24 * time.Hour),
			wantMaxWords: 300,
		},
		{
			name:         "weekly medium",
			prefs:        Preferences{Frequency: "weekly", ArticleLength: "medium"},
			wantSince:    now.Add(-7 * 24 * time.Hour),
			wantMaxWords: 800,
		},
		{
			name:         "monthly long is unbounded",
			prefs:        Preferences{Frequency: "monthly", ArticleLength: "long"},
			wantSince:    now.Add(-30 * 24 * time.Hour),
			wantMaxWords: 0,
		},
		{
			name:         "unknown frequency falls back to daily",
			prefs:        Preferences{Frequency: "hourly", ArticleLength: "medium"},
			wantSince:    now.Add(-24 * time.Hour),
			wantMaxWords: 800,
		},
		{
			name:         "empty tiers fall back to daily and unbounded",
			prefs:        Preferences{},
			wantSince:    now.Add(-24 * time.Hour),
			wantMaxWords: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := BuildFilter(tt.prefs, now)
			assert.Equal(t, tt.wantSince, q.Since)
			assert.Equal(t, tt.wantMaxWords, q.MaxWordCount)
		})
	}
}

func TestBuildFilterCarriesCategoriesAndLanguage(t *testing.T) {
	now := time.Now()
	prefs := Preferences{
		Categories: []string{"technology", "science"},
		Language:   "en",
	}

	q := BuildFilter(prefs, now)
	assert.Equal(t, []string{"technology", "science"}, q.Categories)
	assert.Equal(t, "en", q.Language)
}

func TestBuildFilterIsPure(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	prefs := Preferences{Frequency: "weekly", ArticleLength: "short"}

	first := BuildFilter(prefs, now)
	second := BuildFilter(prefs, now)
	assert.Equal(t, first, second)
}
