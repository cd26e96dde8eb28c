package preferences

import (
	"time"

	"github.com/autocurate/autocurate/internal/content"
)

// Article length tiers map to word count ceilings. "long" is unbounded.
const (
	shortMaxWords  = 300
	mediumMaxWords = 800
)

// Frequency tiers map to recency windows. Unknown frequencies use the daily
// window so a malformed row never widens a user's digest.
const (
	dailyWindow   = 24 * time.Hour
	weeklyWindow  = 7 * 24 * time.Hour
	monthlyWindow = 30 * 24 * time.Hour
)

// BuildFilter derives an eligibility query from preferences.
//
// The function is pure: the same preferences and reference time always
// produce the same query, and nothing is read from globals or clocks.
func BuildFilter(prefs Preferences, now time.Time) content.EligibleQuery {
	return content.EligibleQuery{
		Since:        now.Add(-frequencyWindow(prefs.Frequency)),
		Categories:   prefs.Categories,
		MaxWordCount: lengthCeiling(prefs.ArticleLength),
		Language:     prefs.Language,
	}
}

// lengthCeiling maps an article length tier to a word count ceiling.
// Zero means unbounded.
func lengthCeiling(tier string) int {
	switch tier {
	case "short":
		return shortMaxWords
	case "medium":
		return mediumMaxWords
	default:
		return 0
	}
}

// frequencyWindow maps a digest frequency to a recency window.
func frequencyWindow(frequency string) time.Duration {
	switch frequency {
	case "weekly":
		return weeklyWindow
	case "monthly":
		return monthlyWindow
	default:
		return dailyWindow
	}
}
